package model

// TransitLine is a route of the fixed transit network.
type TransitLine struct {
	ID        string `json:"id"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
	Color     string `json:"color"`
	Mode      string `json:"mode"`
}

// TransitStop is a stop cluster served by a line.
type TransitStop struct {
	Code string     `json:"code"`
	Name string     `json:"name"`
	City string     `json:"city,omitempty"`
	At   Coordinate `json:"at"`
}

// GeometryFormat tags which arm of LineGeometry is populated.
type GeometryFormat string

const (
	GeometryEncoded GeometryFormat = "encoded"
	GeometryGeoJSON GeometryFormat = "geojson"
)

// LineGeometry holds a line shape in exactly one of its two upstream formats.
type LineGeometry struct {
	Format  GeometryFormat     `json:"format"`
	Encoded []string           `json:"encoded,omitempty"`
	GeoJSON *FeatureCollection `json:"geojson,omitempty"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Geometry   MultiLineGeometry      `json:"geometry"`
}

// MultiLineGeometry coordinates are GeoJSON ordered: [lon, lat].
type MultiLineGeometry struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}
