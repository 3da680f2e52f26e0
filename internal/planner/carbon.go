package planner

import (
	"fmt"

	"github.com/bwise1/trip_planner/internal/model"
)

// Grams of CO2 per passenger kilometer.
var carbonFactors = map[model.TransportMode]float64{
	model.ModeWalk:    0,
	model.ModeBicycle: 0,
	model.ModeTram:    4.28,
	model.ModeBus:     113,
	model.ModeCar:     218,
}

const otherModeFactor = 30

func factorFor(mode model.TransportMode) float64 {
	if f, ok := carbonFactors[mode]; ok {
		return f
	}
	return otherModeFactor
}

// CarbonGrams sums each leg's distance weighted by its mode factor.
func CarbonGrams(it model.Itinerary) float64 {
	var grams float64
	for _, leg := range it.Legs {
		grams += leg.Distance / 1000 * factorFor(leg.Mode)
	}
	return grams
}

// CarCarbonGrams is the footprint of covering the same distance by car.
func CarCarbonGrams(it model.Itinerary) float64 {
	return it.TotalDistance() / 1000 * carbonFactors[model.ModeCar]
}

func FormatCarbon(grams float64) string {
	if grams < 1000 {
		return fmt.Sprintf("%.0f g CO2", grams)
	}
	return fmt.Sprintf("%.2f kg CO2", grams/1000)
}
