package region

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// featureCollection is decoded by hand so that each feature goes through
// geojson.Feature's own decoder.
type featureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// ParseBoundary decodes a GeoJSON FeatureCollection and merges every feature
// whose property field equals value exactly into one boundary.
func ParseBoundary(data []byte, field, value string) (*Boundary, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected a FeatureCollection and got %q", fc.Type)
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i, raw := range fc.Features {
		var f geojson.Feature
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decode feature %d: %w", i, err)
		}
		name, _ := f.Properties[field].(string)
		if name != value {
			continue
		}
		if err := appendPolygons(mp, f.Geometry); err != nil {
			return nil, fmt.Errorf("feature %d (%s): %w", i, name, err)
		}
	}

	if mp.NumPolygons() == 0 {
		return nil, fmt.Errorf("%s=%q: %w", field, value, ErrBoundaryNotFound)
	}
	return NewBoundary(value, mp)
}

func appendPolygons(mp *geom.MultiPolygon, g geom.T) error {
	switch t := g.(type) {
	case *geom.Polygon:
		return pushXY(mp, t)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if err := pushXY(mp, t.Polygon(i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported boundary geometry %T", g)
	}
}

// pushXY drops any Z/M ordinates so every polygon shares the XY layout.
func pushXY(mp *geom.MultiPolygon, p *geom.Polygon) error {
	coords := p.Coords()
	xy := make([][]geom.Coord, len(coords))
	for i, ring := range coords {
		xy[i] = make([]geom.Coord, len(ring))
		for j, c := range ring {
			xy[i][j] = geom.Coord{c.X(), c.Y()}
		}
	}
	poly, err := geom.NewPolygon(geom.XY).SetCoords(xy)
	if err != nil {
		return err
	}
	return mp.Push(poly)
}
