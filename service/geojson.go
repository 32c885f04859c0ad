package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/airbusgeo/geocube-provisioner/service/geometry"
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
)

// UnmarshalGeometry, merging featureCollections into a multipolygon
func UnmarshalGeometry(data []byte) (_ geom.Geometry, err error) {
	var g geojson.Geometry
	if err := g.UnmarshalJSON(data); err != nil {
		return g.Geometry, err
	}
	switch geo := g.Geometry.(type) {
	case geojson.FeatureCollection:
		var gc geom.Collection
		for _, f := range geo.Features {
			gc = append(gc, f.Geometry.Geometry)
		}
		return geometry.ToMultiPolygon(gc)
	case geojson.Feature:
		return geo.Geometry.Geometry, nil
	default:
		return g.Geometry, nil
	}
}

// LoadFootprint reads a geojson file and returns the validated footprint as a geojson multipolygon
func LoadFootprint(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFootprint.ReadFile: %w", err)
	}
	g, err := UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("LoadFootprint.Unmarshal: %w", err)
	}
	mp, _, err := geometry.Footprint(g)
	if err != nil {
		return nil, fmt.Errorf("LoadFootprint.%w", err)
	}
	b, err := json.Marshal(geojson.Geometry{Geometry: mp})
	if err != nil {
		return nil, fmt.Errorf("LoadFootprint.Marshal: %w", err)
	}
	return b, nil
}

// ToJSON writes the json encoding of v in workingdir/filename (if workingdir is defined)
func ToJSON(v interface{}, workingdir, filename string) error {
	if workingdir != "" {
		vb, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("toJSON.Marshal: %w", err)
		}
		if err := os.WriteFile(filepath.Join(workingdir, filename), vb, 0644); err != nil {
			return fmt.Errorf("toJSON.WriteFile: %w", err)
		}
	}
	return nil
}
