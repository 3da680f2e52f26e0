package model

import "fmt"

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// String renders the coordinate as "lat,lon", the form the trip planner expects.
func (c Coordinate) String() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lon)
}

// Viewport is the visible map area reported by the client.
type Viewport struct {
	West  float64 `json:"west" validate:"longitude"`
	South float64 `json:"south" validate:"latitude"`
	East  float64 `json:"east" validate:"longitude"`
	North float64 `json:"north" validate:"latitude"`
}

// Viewbox renders the viewport as "west,south,east,north".
func (v Viewport) Viewbox() string {
	return fmt.Sprintf("%g,%g,%g,%g", v.West, v.South, v.East, v.North)
}

// IsZero reports whether no viewport has been reported yet.
func (v Viewport) IsZero() bool {
	return v == Viewport{}
}

// MapView is where the client map should be centered.
type MapView struct {
	Center Coordinate `json:"center"`
	Zoom   int        `json:"zoom"`
}
