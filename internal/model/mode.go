package model

import (
	"fmt"
	"strings"
)

// TransportMode is the mode tag used both for requests and for response legs.
type TransportMode string

const (
	ModeWalk    TransportMode = "WALK"
	ModeBicycle TransportMode = "BICYCLE"
	ModeTransit TransportMode = "TRANSIT"
	ModeTram    TransportMode = "TRAM"
	ModeBus     TransportMode = "BUS"
	ModeCar     TransportMode = "CAR"
)

var knownModes = map[TransportMode]bool{
	ModeWalk:    true,
	ModeBicycle: true,
	ModeTransit: true,
	ModeTram:    true,
	ModeBus:     true,
	ModeCar:     true,
}

// ParseTransportMode accepts any casing of a known mode.
func ParseTransportMode(s string) (TransportMode, error) {
	m := TransportMode(strings.ToUpper(strings.TrimSpace(s)))
	if !knownModes[m] {
		return "", fmt.Errorf("unknown transport mode %q", s)
	}
	return m, nil
}

func (m TransportMode) String() string {
	return string(m)
}
