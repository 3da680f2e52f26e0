package planner

import "github.com/bwise1/trip_planner/internal/model"

// Icon names the pictogram a client draws next to a mode.
type Icon string

const (
	IconNone       Icon = ""
	IconTrain      Icon = "train"
	IconBus        Icon = "bus"
	IconBike       Icon = "bike"
	IconFootprints Icon = "footprints"
	IconCar        Icon = "car"
)

const fallbackColor = "purple"

var modeColors = map[model.TransportMode]string{
	model.ModeTram:    "red",
	model.ModeBus:     "orange",
	model.ModeBicycle: "green",
	model.ModeWalk:    "blue",
	model.ModeCar:     "gray",
}

var modeIcons = map[model.TransportMode]Icon{
	model.ModeTram:    IconTrain,
	model.ModeBus:     IconBus,
	model.ModeBicycle: IconBike,
	model.ModeWalk:    IconFootprints,
	model.ModeCar:     IconCar,
}

// ColorFor prefers the carrier color when one is supplied.
func ColorFor(mode model.TransportMode, override string) string {
	if override != "" {
		return "#" + override
	}
	if c, ok := modeColors[mode]; ok {
		return c
	}
	return fallbackColor
}

func IconFor(mode model.TransportMode) Icon {
	return modeIcons[mode]
}

// LabelFor is the mode name, suffixed with the line number for trams and buses.
func LabelFor(leg model.Leg) string {
	if (leg.Mode == model.ModeTram || leg.Mode == model.ModeBus) && leg.RouteShortName != "" {
		return string(leg.Mode) + " " + leg.RouteShortName
	}
	return string(leg.Mode)
}
