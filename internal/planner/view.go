package planner

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/bwise1/trip_planner/internal/model"
)

// ItineraryCard is the summary of one option in the list.
type ItineraryCard struct {
	Index         int                 `json:"index"`
	Title         string              `json:"title"`
	Active        bool                `json:"active"`
	PrimaryMode   model.TransportMode `json:"primary_mode"`
	PrimaryIcon   Icon                `json:"primary_icon,omitempty"`
	DurationText  string              `json:"duration_text"`
	DistanceText  string              `json:"distance_text"`
	DepartText    string              `json:"depart_text"`
	ArriveText    string              `json:"arrive_text"`
	CarbonText    string              `json:"carbon_text"`
	CarCarbonText string              `json:"car_carbon_text"`
}

// LegView is everything needed to draw and describe one leg.
type LegView struct {
	Mode              model.TransportMode `json:"mode"`
	Label             string              `json:"label"`
	Color             string              `json:"color"`
	Icon              Icon                `json:"icon,omitempty"`
	DurationText      string              `json:"duration_text"`
	DistanceText      string              `json:"distance_text"`
	DepartText        string              `json:"depart_text"`
	ArriveText        string              `json:"arrive_text"`
	From              string              `json:"from"`
	To                string              `json:"to"`
	IntermediateStops []string            `json:"intermediate_stops,omitempty"`
	Popup             []string            `json:"popup"`
	Path              []model.Coordinate  `json:"path,omitempty"`
	GeometryError     string              `json:"geometry_error,omitempty"`
}

// ItineraryDetail is the selected option with its drawable legs.
type ItineraryDetail struct {
	ItineraryCard
	Legs []LegView `json:"legs"`
}

// BuildCard summarises it as the index-th option.
func BuildCard(it model.Itinerary, index int, active bool, loc *time.Location) ItineraryCard {
	primary := it.PrimaryMode()
	return ItineraryCard{
		Index:         index,
		Title:         fmt.Sprintf("Route %d", index+1),
		Active:        active,
		PrimaryMode:   primary,
		PrimaryIcon:   IconFor(primary),
		DurationText:  FormatDuration(it.Duration),
		DistanceText:  FormatDistance(it.TotalDistance()),
		DepartText:    FormatClockTime(it.StartTime, loc),
		ArriveText:    FormatClockTime(it.EndTime, loc),
		CarbonText:    FormatCarbon(CarbonGrams(it)),
		CarCarbonText: FormatCarbon(CarCarbonGrams(it)),
	}
}

func BuildCards(c *ItineraryCollection, loc *time.Location) []ItineraryCard {
	items := c.Items()
	cards := make([]ItineraryCard, len(items))
	for i, it := range items {
		cards[i] = BuildCard(it, i, i == c.SelectedIndex(), loc)
	}
	return cards
}

// BuildDetail decodes every leg. A leg whose geometry cannot be decoded is
// kept without a path; the rest of the itinerary still renders.
func BuildDetail(logger *slog.Logger, it model.Itinerary, index int, active bool, loc *time.Location) ItineraryDetail {
	detail := ItineraryDetail{
		ItineraryCard: BuildCard(it, index, active, loc),
		Legs:          make([]LegView, len(it.Legs)),
	}
	for i, leg := range it.Legs {
		lv := buildLeg(leg, loc)
		path, err := DecodeGeometry(leg.Geometry)
		if err != nil {
			logging.LogError(logger, "leg geometry decode failed", err,
				slog.Int("itinerary", index),
				slog.Int("leg", i),
				slog.String("mode", string(leg.Mode)))
			lv.GeometryError = err.Error()
		} else {
			lv.Path = path
		}
		detail.Legs[i] = lv
	}
	return detail
}

func buildLeg(leg model.Leg, loc *time.Location) LegView {
	from, to := "Starting point", "Destination"
	if leg.From != nil {
		from = leg.From.Name
	}
	if leg.To != nil {
		to = leg.To.Name
	}
	return LegView{
		Mode:              leg.Mode,
		Label:             LabelFor(leg),
		Color:             ColorFor(leg.Mode, leg.RouteColor),
		Icon:              IconFor(leg.Mode),
		DurationText:      FormatDuration(leg.Duration),
		DistanceText:      FormatDistance(leg.Distance),
		DepartText:        FormatClockTime(leg.StartTime, loc),
		ArriveText:        FormatClockTime(leg.EndTime, loc),
		From:              from,
		To:                to,
		IntermediateStops: leg.IntermediateStops,
		Popup:             popupLines(leg),
	}
}

func popupLines(leg model.Leg) []string {
	title := string(leg.Mode)
	if leg.RouteShortName != "" {
		title += " - Line " + leg.RouteShortName
	}
	lines := []string{
		title,
		fmt.Sprintf("%.0fm - %dmin", leg.Distance, int(math.Floor(leg.Duration/60))),
	}
	if leg.From != nil && leg.To != nil {
		lines = append(lines, "From: "+leg.From.Name, "To: "+leg.To.Name)
	}
	return lines
}
