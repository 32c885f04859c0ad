package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/interface/vector"
	"github.com/airbusgeo/geocube-provisioner/service"
	"github.com/airbusgeo/geocube-provisioner/service/log"
	"github.com/gorilla/mux"
)

// Handler serves the vector-store REST API
type Handler struct {
	backend vector.Service
}

// NewHandler creates a handler serving the vector-store REST API on the router
func NewHandler(r *mux.Router, backend vector.Service) *Handler {
	h := &Handler{backend: backend}
	r.HandleFunc("/tables", h.CreateTableHandler).Methods("POST")
	r.HandleFunc("/tables/{table}", h.GetTableHandler).Methods("GET")
	r.HandleFunc("/tables/{table}", h.DeleteTableHandler).Methods("DELETE")
	return h
}

func writeError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case service.IsNotFound(err):
		w.WriteHeader(http.StatusNotFound)
	case service.IsAlreadyExists(err):
		w.WriteHeader(http.StatusConflict)
	case service.Temporary(err):
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		log.Logger(req.Context()).Sugar().Warnf("%s %s: %v", req.Method, req.URL.Path, err)
		w.WriteHeader(http.StatusBadRequest)
	}
	fmt.Fprintf(w, "%v", err)
}

// GetTableHandler retrieves a table
func (h *Handler) GetTableHandler(w http.ResponseWriter, req *http.Request) {
	table, err := url.PathUnescape(mux.Vars(req)["table"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "table: %v", err)
		return
	}
	t, err := h.backend.GetTable(req.Context(), table)
	if err != nil {
		writeError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(t)
}

// DeleteTableHandler deletes a table
func (h *Handler) DeleteTableHandler(w http.ResponseWriter, req *http.Request) {
	table, err := url.PathUnescape(mux.Vars(req)["table"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "table: %v", err)
		return
	}
	if err := h.backend.DeleteTable(req.Context(), table); err != nil {
		writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateTableHandler creates a table
func (h *Handler) CreateTableHandler(w http.ResponseWriter, req *http.Request) {
	var t common.Table
	if err := json.NewDecoder(req.Body).Decode(&t); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "%v", err)
		return
	}
	t, err := h.backend.CreateTable(req.Context(), t)
	if err != nil {
		writeError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(t)
}
