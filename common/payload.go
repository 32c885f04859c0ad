package common

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Resolution of a band
type Resolution struct {
	Unit  string  `json:"unit" yaml:"unit"`
	Value float64 `json:"value" yaml:"value"`
}

// Product is a catalog entity representing an imagery dataset
type Product struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// Band describes one raster channel of a product
type Band struct {
	ID           string     `json:"id"`
	ProductID    string     `json:"product_id"`
	Name         string     `json:"name"`
	BandIndex    int        `json:"band_index"`
	FileIndex    int        `json:"file_index"`
	DataRange    [2]float64 `json:"data_range"`
	DataType     DataType   `json:"data_type"`
	DisplayRange [2]float64 `json:"display_range"`
	Resolution   Resolution `json:"resolution"`
}

// Image is one raster asset of a product
type Image struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Acquired  time.Time       `json:"acquired"`
	Footprint json.RawMessage `json:"footprint,omitempty"`
	Overwrite bool            `json:"overwrite,omitempty"`
}

// Field is a named typed attribute of a vector table
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Model is the schema of a vector table: its attributes and the type of its geometry
type Model struct {
	Fields   []Field      `json:"fields"`
	Geometry GeometryType `json:"geometry"`
}

// Table is a vector-store entity
type Table struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model Model  `json:"model"`
}

// Job is the status of a remote asynchronous operation
type Job struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
	Errors []string  `json:"errors,omitempty"`
}

// Event is published when a resource has been provisioned or removed
type Event struct {
	Kind   string `json:"kind"` // product (EventKindProduct) or table (EventKindTable)
	ID     string `json:"id"`
	Action string `json:"action"` // created (EventCreated) or deleted (EventDeleted)
}

// FieldNames returns the names of the fields of the model
func (m Model) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// Value implements the driver.Value interface
func (m Model) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface.
func (m *Model) Scan(value interface{}) error {
	if value == nil {
		*m = Model{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &m)
}
