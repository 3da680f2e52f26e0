package model

import "time"

// Place is a named leg endpoint.
type Place struct {
	Name string     `json:"name"`
	At   Coordinate `json:"at"`
}

// Leg is one mode-homogeneous segment of an itinerary.
type Leg struct {
	Mode              TransportMode `json:"mode"`
	Distance          float64       `json:"distance"`
	Duration          float64       `json:"duration"`
	StartTime         time.Time     `json:"start_time"`
	EndTime           time.Time     `json:"end_time"`
	Geometry          string        `json:"geometry"`
	RouteShortName    string        `json:"route_short_name,omitempty"`
	RouteColor        string        `json:"route_color,omitempty"`
	From              *Place        `json:"from,omitempty"`
	To                *Place        `json:"to,omitempty"`
	IntermediateStops []string      `json:"intermediate_stops,omitempty"`
}

// Itinerary is one complete journey option.
type Itinerary struct {
	Duration  float64   `json:"duration"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Legs      []Leg     `json:"legs"`
}

// TotalDistance is the exact sum of the leg distances.
func (it Itinerary) TotalDistance() float64 {
	var total float64
	for _, leg := range it.Legs {
		total += leg.Distance
	}
	return total
}

// PrimaryMode is the first non-walking leg mode, or the first leg's mode.
func (it Itinerary) PrimaryMode() TransportMode {
	for _, leg := range it.Legs {
		if leg.Mode != ModeWalk {
			return leg.Mode
		}
	}
	if len(it.Legs) == 0 {
		return ""
	}
	return it.Legs[0].Mode
}

// PlanRequest is an outbound trip-planning request with speeds already in m/s.
type PlanRequest struct {
	From           Coordinate
	To             Coordinate
	Mode           TransportMode
	Departure      time.Time
	WalkSpeed      float64
	BikeSpeed      float64
	NumItineraries int
}
