package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/interface/catalog"
	"github.com/airbusgeo/geocube-provisioner/service"
	"github.com/airbusgeo/geocube-provisioner/service/log"
	"github.com/gorilla/mux"
)

// Backend is a catalog able to serve the uploads and the tasks in two steps
// (implemented by interface/catalog/memory)
type Backend interface {
	catalog.Service
	// StartUpload registers the upload of the image and returns the id of the upload job
	StartUpload(image common.Image) (string, error)
	// ReceiveUpload attaches the file to the upload job
	ReceiveUpload(jobID string, data []byte) error
	// JobStatus returns the status of an upload or a delete job
	JobStatus(jobID string) (common.Job, error)
}

// Handler serves the catalog REST API
type Handler struct {
	backend Backend
}

// NewHandler creates a handler serving the catalog REST API on the router
func NewHandler(r *mux.Router, backend Backend) *Handler {
	h := &Handler{backend: backend}
	r.HandleFunc("/products", h.SaveProductHandler).Methods("POST")
	r.HandleFunc("/products/{product}", h.GetProductHandler).Methods("GET")
	r.HandleFunc("/products/{product}", h.DeleteProductHandler).Methods("DELETE")
	r.HandleFunc("/products/{product}/delete_related_objects", h.DeleteRelatedObjectsHandler).Methods("POST")
	r.HandleFunc("/products/{product}/bands", h.ListBandsHandler).Methods("GET")
	r.HandleFunc("/products/{product}/images", h.ListImagesHandler).Methods("GET")
	r.HandleFunc("/bands", h.SaveBandHandler).Methods("POST")
	r.HandleFunc("/tasks/{job}", h.JobStatusHandler).Methods("GET")
	r.HandleFunc("/uploads", h.CreateUploadHandler).Methods("POST")
	r.HandleFunc("/uploads/{job}", h.JobStatusHandler).Methods("GET")
	r.HandleFunc("/uploads/{job}/file", h.ReceiveUploadHandler).Methods("PUT")
	return h
}

// WriteError writes the http status corresponding to the error
func WriteError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case service.IsNotFound(err):
		w.WriteHeader(http.StatusNotFound)
	case service.IsAlreadyExists(err):
		w.WriteHeader(http.StatusConflict)
	case errors.Is(err, catalog.ErrDependentObjects):
		w.WriteHeader(http.StatusPreconditionFailed)
	case service.Temporary(err):
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		log.Logger(req.Context()).Sugar().Warnf("%s %s: %v", req.Method, req.URL.Path, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
	fmt.Fprintf(w, "%v", err)
}

// WriteJSON writes the status and the json encoding of v
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// pathVar returns the unescaped variable of the route.
// The router is expected to match the encoded path (mux.Router.UseEncodedPath) so that ids may contain '/'.
func pathVar(w http.ResponseWriter, req *http.Request, name string) (string, bool) {
	v, err := url.PathUnescape(mux.Vars(req)[name])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "%s: %v", name, err)
		return "", false
	}
	return v, true
}

func decode(w http.ResponseWriter, req *http.Request, v interface{}) bool {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "%v", err)
		return false
	}
	return true
}

// GetProductHandler retrieves a product
func (h *Handler) GetProductHandler(w http.ResponseWriter, req *http.Request) {
	product, ok := pathVar(w, req, "product")
	if !ok {
		return
	}
	p, err := h.backend.GetProduct(req.Context(), product)
	if err != nil {
		WriteError(w, req, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// SaveProductHandler creates a product
func (h *Handler) SaveProductHandler(w http.ResponseWriter, req *http.Request) {
	var p common.Product
	if !decode(w, req, &p) {
		return
	}
	p, err := h.backend.SaveProduct(req.Context(), p)
	if err != nil {
		WriteError(w, req, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

// DeleteProductHandler deletes a product without band nor image
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, req *http.Request) {
	product, ok := pathVar(w, req, "product")
	if !ok {
		return
	}
	if err := h.backend.DeleteProduct(req.Context(), product); err != nil {
		WriteError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteRelatedObjectsHandler starts the deletion of the bands and the images of a product
func (h *Handler) DeleteRelatedObjectsHandler(w http.ResponseWriter, req *http.Request) {
	product, ok := pathVar(w, req, "product")
	if !ok {
		return
	}
	job, err := h.backend.DeleteRelatedObjects(req.Context(), product)
	if err != nil {
		WriteError(w, req, err)
		return
	}
	if job == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusAccepted, TaskResponse{ID: job.ID()})
}

// ListBandsHandler lists the bands of a product
func (h *Handler) ListBandsHandler(w http.ResponseWriter, req *http.Request) {
	product, ok := pathVar(w, req, "product")
	if !ok {
		return
	}
	bands, err := h.backend.Bands(req.Context(), product)
	if err != nil {
		WriteError(w, req, err)
		return
	}
	if bands == nil {
		bands = []common.Band{}
	}
	WriteJSON(w, http.StatusOK, bands)
}

// ListImagesHandler lists the images of a product
func (h *Handler) ListImagesHandler(w http.ResponseWriter, req *http.Request) {
	product, ok := pathVar(w, req, "product")
	if !ok {
		return
	}
	images, err := h.backend.Images(req.Context(), product)
	if err != nil {
		WriteError(w, req, err)
		return
	}
	if images == nil {
		images = []common.Image{}
	}
	WriteJSON(w, http.StatusOK, images)
}

// SaveBandHandler creates a band
func (h *Handler) SaveBandHandler(w http.ResponseWriter, req *http.Request) {
	var b common.Band
	if !decode(w, req, &b) {
		return
	}
	b, err := h.backend.SaveBand(req.Context(), b)
	if err != nil {
		WriteError(w, req, err)
		return
	}
	WriteJSON(w, http.StatusCreated, b)
}

// CreateUploadHandler registers the upload of an image and returns the url where to put the file
func (h *Handler) CreateUploadHandler(w http.ResponseWriter, req *http.Request) {
	var upload UploadRequest
	if !decode(w, req, &upload) {
		return
	}
	id, err := h.backend.StartUpload(upload.Image)
	if err != nil {
		WriteError(w, req, err)
		return
	}
	WriteJSON(w, http.StatusCreated, UploadResponse{ID: id, URL: "uploads/" + id + "/file"})
}

// ReceiveUploadHandler receives the file of an upload
func (h *Handler) ReceiveUploadHandler(w http.ResponseWriter, req *http.Request) {
	data, err := io.ReadAll(req.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "%v", err)
		return
	}
	job, ok := pathVar(w, req, "job")
	if !ok {
		return
	}
	if err := h.backend.ReceiveUpload(job, data); err != nil {
		WriteError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JobStatusHandler returns the status of a task or an upload
func (h *Handler) JobStatusHandler(w http.ResponseWriter, req *http.Request) {
	job, ok := pathVar(w, req, "job")
	if !ok {
		return
	}
	status, err := h.backend.JobStatus(job)
	if err != nil {
		WriteError(w, req, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}
