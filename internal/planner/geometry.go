package planner

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/bwise1/trip_planner/internal/model"
	"github.com/twpayne/go-polyline"
)

var errEmptyGeometry = errors.New("empty encoded geometry")

// DecodeError reports an encoded polyline that could not be decoded.
type DecodeError struct {
	Encoded string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode polyline %q: %v", truncate(e.Encoded, 32), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeGeometry decodes a precision 1e-5 encoded polyline into coordinates.
func DecodeGeometry(encoded string) ([]model.Coordinate, error) {
	if encoded == "" {
		return nil, &DecodeError{Encoded: encoded, Err: errEmptyGeometry}
	}

	decoded, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, &DecodeError{Encoded: encoded, Err: err}
	}

	coords := make([]model.Coordinate, len(decoded))
	for i, p := range decoded {
		coords[i] = model.Coordinate{Lat: p[0], Lon: p[1]}
	}
	return coords, nil
}

// LinePaths flattens either arm of a transit line geometry into coordinate paths.
// An encoded path that cannot be decoded is logged and skipped.
func LinePaths(logger *slog.Logger, g model.LineGeometry) ([][]model.Coordinate, error) {
	switch g.Format {
	case model.GeometryEncoded:
		paths := make([][]model.Coordinate, 0, len(g.Encoded))
		for i, enc := range g.Encoded {
			path, err := DecodeGeometry(enc)
			if err != nil {
				logging.LogError(logger, "line path decode failed", err, slog.Int("path", i))
				continue
			}
			paths = append(paths, path)
		}
		return paths, nil
	case model.GeometryGeoJSON:
		if g.GeoJSON == nil {
			return nil, nil
		}
		var paths [][]model.Coordinate
		for _, f := range g.GeoJSON.Features {
			for _, line := range f.Geometry.Coordinates {
				path := make([]model.Coordinate, len(line))
				for i, p := range line {
					path[i] = model.Coordinate{Lat: p[1], Lon: p[0]}
				}
				paths = append(paths, path)
			}
		}
		return paths, nil
	default:
		return nil, fmt.Errorf("unknown geometry format %q", g.Format)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
