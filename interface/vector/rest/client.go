package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/service"
)

// Client is an HTTP implementation of vector.Service
type Client struct {
	base   *url.URL
	client *http.Client
}

// New creates a client of the vector-store served at server
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

// GetTable implements vector.Service
func (c *Client) GetTable(ctx context.Context, id string) (common.Table, error) {
	var t common.Table
	if _, err := service.HTTPDoJSON(ctx, c.client, http.MethodGet, c.url("tables", id), nil, &t, "table", id); err != nil {
		return common.Table{}, fmt.Errorf("GetTable: %w", err)
	}
	return t, nil
}

// DeleteTable implements vector.Service
func (c *Client) DeleteTable(ctx context.Context, id string) error {
	if _, err := service.HTTPDoJSON(ctx, c.client, http.MethodDelete, c.url("tables", id), nil, nil, "table", id); err != nil {
		return fmt.Errorf("DeleteTable: %w", err)
	}
	return nil
}

// CreateTable implements vector.Service
func (c *Client) CreateTable(ctx context.Context, table common.Table) (common.Table, error) {
	var t common.Table
	if _, err := service.HTTPDoJSON(ctx, c.client, http.MethodPost, c.url("tables"), table, &t, "table", table.ID); err != nil {
		return common.Table{}, fmt.Errorf("CreateTable: %w", err)
	}
	return t, nil
}
