package geometry

import (
	"errors"
	"fmt"

	"github.com/go-spatial/geom"
	geomwkt "github.com/go-spatial/geom/encoding/wkt"
	"github.com/paulsmith/gogeos/geos"
)

// ErrInvalidFootprint is returned when a footprint is not a valid non-empty surface
var ErrInvalidFootprint = errors.New("invalid footprint")

func mergeMultiPolygons(g geom.Geometry, mp *geom.MultiPolygon) error {
	switch g := g.(type) {
	case geom.MultiPolygon:
		*mp = append(*mp, g.Polygons()...)
	case geom.Polygon:
		*mp = append(*mp, g.LinearRings())
	case geom.Collection:
		for _, g := range g.Geometries() {
			if err := mergeMultiPolygons(g, mp); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unsupported geometry %T", ErrInvalidFootprint, g)
	}
	return nil
}

// ToMultiPolygon merges polygons, multipolygons and collections of them into one multipolygon
func ToMultiPolygon(g geom.Geometry) (geom.MultiPolygon, error) {
	var mp geom.MultiPolygon
	if err := mergeMultiPolygons(g, &mp); err != nil {
		return nil, err
	}
	return mp, nil
}

// Footprint converts the geometry to a multipolygon and checks that it is a valid non-empty surface.
// Returns the multipolygon and its WKT representation
func Footprint(g geom.Geometry) (geom.MultiPolygon, string, error) {
	mp, err := ToMultiPolygon(g)
	if err != nil {
		return nil, "", err
	}
	if len(mp) == 0 {
		return nil, "", fmt.Errorf("%w: empty geometry", ErrInvalidFootprint)
	}
	wkt, err := geomwkt.EncodeString(mp)
	if err != nil {
		return nil, "", fmt.Errorf("Footprint.EncodeString: %w", err)
	}
	if err := checkValid(wkt); err != nil {
		return nil, "", err
	}
	return mp, wkt, nil
}

func checkValid(wkt string) error {
	g, err := geos.FromWKT(wkt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFootprint, err)
	}
	if empty, err := g.IsEmpty(); err != nil {
		return fmt.Errorf("checkValid.IsEmpty: %w", err)
	} else if empty {
		return fmt.Errorf("%w: empty geometry", ErrInvalidFootprint)
	}
	if valid, err := g.IsValid(); err != nil {
		return fmt.Errorf("checkValid.IsValid: %w", err)
	} else if !valid {
		return fmt.Errorf("%w: %s", ErrInvalidFootprint, wkt)
	}
	return nil
}
