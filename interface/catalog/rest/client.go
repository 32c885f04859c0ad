package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/interface/catalog"
	"github.com/airbusgeo/geocube-provisioner/service"
)

// UploadRequest is the body of POST /uploads
type UploadRequest struct {
	Image common.Image `json:"image"`
}

// UploadResponse is the response of POST /uploads: the id of the upload job and the url where to PUT the file
type UploadResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// TaskResponse is the response of an endpoint starting an asynchronous task
type TaskResponse struct {
	ID string `json:"id"`
}

// Client is an HTTP implementation of catalog.Service
type Client struct {
	base   *url.URL
	client *http.Client
}

// New creates a client of the catalog served at server.
// client is expected to authenticate the requests (see interface/auth).
func New(server string, client *http.Client) (*Client, error) {
	if !strings.HasSuffix(server, "/") {
		server += "/"
	}
	base, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("rest.New: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{base: base, client: client}, nil
}

// url joins the path segments to the base url, escaping each segment (ids may contain '/')
func (c *Client) url(elem ...string) string {
	escaped := make([]string, len(elem))
	for i, e := range elem {
		escaped[i] = url.PathEscape(e)
	}
	return c.base.ResolveReference(&url.URL{Path: strings.Join(elem, "/"), RawPath: strings.Join(escaped, "/")}).String()
}

// GetProduct implements catalog.Service
func (c *Client) GetProduct(ctx context.Context, id string) (common.Product, error) {
	var p common.Product
	if _, err := service.HTTPDoJSON(ctx, c.client, http.MethodGet, c.url("products", id), nil, &p, "product", id); err != nil {
		return common.Product{}, fmt.Errorf("GetProduct: %w", err)
	}
	return p, nil
}

// SaveProduct implements catalog.Service
func (c *Client) SaveProduct(ctx context.Context, product common.Product) (common.Product, error) {
	var p common.Product
	if _, err := service.HTTPDoJSON(ctx, c.client, http.MethodPost, c.url("products"), product, &p, "product", product.ID); err != nil {
		return common.Product{}, fmt.Errorf("SaveProduct: %w", err)
	}
	return p, nil
}

// DeleteProduct implements catalog.Service
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if _, err := service.HTTPDoJSON(ctx, c.client, http.MethodDelete, c.url("products", id), nil, nil, "product", id); err != nil {
		return fmt.Errorf("DeleteProduct: %w", err)
	}
	return nil
}

// DeleteRelatedObjects implements catalog.Service
func (c *Client) DeleteRelatedObjects(ctx context.Context, productID string) (catalog.Job, error) {
	var task TaskResponse
	status, err := service.HTTPDoJSON(ctx, c.client, http.MethodPost, c.url("products", productID, "delete_related_objects"), nil, &task, "product", productID)
	if err != nil {
		return nil, fmt.Errorf("DeleteRelatedObjects: %w", err)
	}
	if status == http.StatusNoContent || task.ID == "" {
		return nil, nil
	}
	return &job{client: c, kind: "delete", id: task.ID, url: c.url("tasks", task.ID)}, nil
}

// SaveBand implements catalog.Service
func (c *Client) SaveBand(ctx context.Context, band common.Band) (common.Band, error) {
	var b common.Band
	if _, err := service.HTTPDoJSON(ctx, c.client, http.MethodPost, c.url("bands"), band, &b, "band", band.ID); err != nil {
		return common.Band{}, fmt.Errorf("SaveBand: %w", err)
	}
	return b, nil
}

// Bands implements catalog.Service
func (c *Client) Bands(ctx context.Context, productID string) ([]common.Band, error) {
	var bands []common.Band
	if _, err := service.HTTPDoJSON(ctx, c.client, http.MethodGet, c.url("products", productID, "bands"), nil, &bands, "product", productID); err != nil {
		return nil, fmt.Errorf("Bands: %w", err)
	}
	return bands, nil
}

// Images implements catalog.Service
func (c *Client) Images(ctx context.Context, productID string) ([]common.Image, error) {
	var images []common.Image
	if _, err := service.HTTPDoJSON(ctx, c.client, http.MethodGet, c.url("products", productID, "images"), nil, &images, "product", productID); err != nil {
		return nil, fmt.Errorf("Images: %w", err)
	}
	return images, nil
}

// UploadImage implements catalog.Service
func (c *Client) UploadImage(ctx context.Context, image common.Image, file io.Reader, contentType string) (catalog.Job, error) {
	var upload UploadResponse
	if _, err := service.HTTPDoJSON(ctx, c.client, http.MethodPost, c.url("uploads"), UploadRequest{Image: image}, &upload, "image", image.ID); err != nil {
		return nil, fmt.Errorf("UploadImage.Create: %w", err)
	}
	target, err := c.base.Parse(upload.URL)
	if err != nil {
		return nil, fmt.Errorf("UploadImage.ParseURL: %w", err)
	}
	if err := service.HTTPPut(ctx, c.client, target.String(), file, contentType); err != nil {
		return nil, fmt.Errorf("UploadImage.Put: %w", err)
	}
	return &job{client: c, kind: "upload", id: upload.ID, url: c.url("uploads", upload.ID)}, nil
}

// job implements catalog.Job
type job struct {
	client *Client
	kind   string
	id     string
	url    string
}

func (j *job) Kind() string { return j.kind }
func (j *job) ID() string   { return j.id }

func (j *job) Status(ctx context.Context) (common.Job, error) {
	var status common.Job
	if _, err := service.HTTPDoJSON(ctx, j.client.client, http.MethodGet, j.url, nil, &status, j.kind, j.id); err != nil {
		return common.Job{}, err
	}
	return status, nil
}
