package provisioner

import (
	"fmt"
	"time"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/interface/catalog"
)

//go:generate go run github.com/dmarkham/enumer -json -text -type SchemaVariant -trimprefix Schema -transform snake
//go:generate go run github.com/dmarkham/enumer -json -text -type ResetPolicy -trimprefix Reset -transform snake

// SchemaVariant selects the attributes of a vector table
type SchemaVariant int

const (
	// SchemaDetections: date and id of the source image of the detection
	SchemaDetections SchemaVariant = iota
	// SchemaConfidence: date and confidence of the detection
	SchemaConfidence
)

// ResetPolicy defines how the errors are handled when resetting a table
type ResetPolicy int

const (
	// ResetStrict: only a not-found error means that the table is absent. Any other error is returned.
	ResetStrict ResetPolicy = iota
	// ResetIgnoreErrors: any error during the lookup or the deletion is logged and ignored.
	ResetIgnoreErrors
)

// BandConfig describes the band created with a product
type BandConfig struct {
	Name         string            `json:"name" yaml:"name"`
	BandIndex    int               `json:"band_index" yaml:"band_index"`
	FileIndex    int               `json:"file_index" yaml:"file_index"`
	DataRange    [2]float64        `json:"data_range" yaml:"data_range"`
	DataType     common.DataType   `json:"data_type" yaml:"data_type"`
	DisplayRange [2]float64        `json:"display_range" yaml:"display_range"`
	Resolution   common.Resolution `json:"resolution" yaml:"resolution"`
}

// ImageConfig describes the image uploaded with a product
type ImageConfig struct {
	Name     string    `json:"name" yaml:"name"`
	Acquired time.Time `json:"acquired" yaml:"acquired"`
	// Sample is the raster file to upload: a local path or an url (file, http(s), ftp, gs, s3). Zip archives are extracted.
	Sample string `json:"sample" yaml:"sample"`
	// Footprint is an optional geojson file
	Footprint string `json:"footprint,omitempty" yaml:"footprint,omitempty"`
}

// Config of the provisioner
type Config struct {
	Tags       []string                 `json:"tags" yaml:"tags"`
	Band       BandConfig               `json:"band" yaml:"band"`
	Image      ImageConfig              `json:"image" yaml:"image"`
	TableNames map[SchemaVariant]string `json:"table_names" yaml:"table_names"`
	// GeometryType of the tables
	Geometry     common.GeometryType `json:"geometry" yaml:"geometry"`
	ResetPolicy  ResetPolicy         `json:"reset_policy" yaml:"reset_policy"`
	PollInterval time.Duration       `json:"poll_interval" yaml:"poll_interval"`
	// WorkDir is where the remote samples are downloaded
	WorkDir string `json:"workdir" yaml:"workdir"`
}

// DefaultConfig returns the configuration of the vessel detection demo
func DefaultConfig() Config {
	return Config{
		Tags: []string{common.TagExamples},
		Band: BandConfig{
			Name:         "vv",
			BandIndex:    0,
			FileIndex:    0,
			DataRange:    [2]float64{1, 4095},
			DataType:     common.DataTypeUInt16,
			DisplayRange: [2]float64{858, 2926},
			Resolution:   common.Resolution{Unit: "meters", Value: 10},
		},
		Image: ImageConfig{
			Name:     "image1",
			Acquired: time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC),
			Sample:   "data/s1_sample_1.tif",
		},
		TableNames: map[SchemaVariant]string{
			SchemaDetections: "S1 Vessel Detections Demo",
			SchemaConfidence: "S1-S2 Vessel Detections Demo",
		},
		Geometry:     common.GeometryMultiPolygon,
		ResetPolicy:  ResetStrict,
		PollInterval: catalog.DefaultPollInterval,
	}
}

// Validate checks that the configuration is complete
func (c Config) Validate() error {
	if c.Band.Name == "" {
		return fmt.Errorf("missing band name")
	}
	if c.Band.DataRange[0] > c.Band.DataRange[1] {
		return fmt.Errorf("invalid band data range %v", c.Band.DataRange)
	}
	if c.Image.Name == "" {
		return fmt.Errorf("missing image name")
	}
	if c.Image.Sample == "" {
		return fmt.Errorf("missing image sample")
	}
	if c.Image.Acquired.IsZero() {
		return fmt.Errorf("missing image acquisition date")
	}
	for _, v := range SchemaVariantValues() {
		if c.TableNames[v] == "" {
			return fmt.Errorf("missing table name for schema %s", v)
		}
	}
	if !c.ResetPolicy.IsAResetPolicy() {
		return fmt.Errorf("invalid reset policy %d", c.ResetPolicy)
	}
	return nil
}

// Model returns the schema of the tables of the variant
func (c Config) Model(variant SchemaVariant) (common.Model, error) {
	var fields []common.Field
	switch variant {
	case SchemaDetections:
		fields = []common.Field{
			{Name: common.AttrDate, Type: common.FieldString},
			{Name: common.AttrSourceImageID, Type: common.FieldString},
		}
	case SchemaConfidence:
		fields = []common.Field{
			{Name: common.AttrDate, Type: common.FieldString},
			{Name: common.AttrConfidence, Type: common.FieldFloat},
		}
	default:
		return common.Model{}, fmt.Errorf("unknown schema variant %d", variant)
	}
	geometry := c.Geometry
	if geometry == "" {
		geometry = common.GeometryMultiPolygon
	}
	return common.Model{Fields: fields, Geometry: geometry}, nil
}
