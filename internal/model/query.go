package model

import (
	"fmt"
	"time"
)

// SpeedUnit is the display unit of the walking speed.
type SpeedUnit string

const (
	UnitKmh      SpeedUnit = "km/h"
	UnitMinPerKm SpeedUnit = "min/km"
	maxSpeedKmh            = 36.0
	minPaceMinKm           = 4.0
	maxPaceMinKm           = 20.0
	kmhPerMps              = 3.6
)

// ParseSpeedUnit treats an empty string as km/h.
func ParseSpeedUnit(s string) (SpeedUnit, error) {
	switch SpeedUnit(s) {
	case "", UnitKmh:
		return UnitKmh, nil
	case UnitMinPerKm:
		return UnitMinPerKm, nil
	default:
		return "", fmt.Errorf("unknown speed unit %q", s)
	}
}

// ToMetersPerSecond converts a speed expressed in unit to m/s.
func ToMetersPerSecond(value float64, unit SpeedUnit) float64 {
	if value <= 0 {
		return 0
	}
	if unit == UnitMinPerKm {
		return (1000 / value) / 60
	}
	return value / kmhPerMps
}

// ValidSpeed reports whether value is an acceptable user entry for unit.
func ValidSpeed(value float64, unit SpeedUnit) bool {
	if unit == UnitMinPerKm {
		return value > minPaceMinKm && value <= maxPaceMinKm
	}
	return value > 0 && value <= maxSpeedKmh
}

// ConvertSpeedUnit re-expresses a walking speed when the display unit flips.
// km/h and min/km are reciprocal up to a factor of 60.
func ConvertSpeedUnit(value float64, from, to SpeedUnit) float64 {
	if from == to || value <= 0 {
		return value
	}
	return 60 / value
}

// RouteQuery is the full set of inputs that determine a trip-planning request.
type RouteQuery struct {
	Start        *Coordinate   `json:"start,omitempty"`
	End          *Coordinate   `json:"end,omitempty"`
	Mode         TransportMode `json:"mode"`
	WalkSpeed    float64       `json:"walk_speed"`
	WalkUnit     SpeedUnit     `json:"walk_unit"`
	BikeSpeedKmh float64       `json:"bike_speed_kmh"`
	Departure    time.Time     `json:"departure"`
}

// Complete reports whether both endpoints are placed.
func (q RouteQuery) Complete() bool {
	return q.Start != nil && q.End != nil
}

func (q RouteQuery) WalkSpeedMPS() float64 {
	return ToMetersPerSecond(q.WalkSpeed, q.WalkUnit)
}

// BikeSpeedMPS ignores the walking display unit.
func (q RouteQuery) BikeSpeedMPS() float64 {
	return ToMetersPerSecond(q.BikeSpeedKmh, UnitKmh)
}
