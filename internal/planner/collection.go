package planner

import "github.com/bwise1/trip_planner/internal/model"

// MaxItineraries is how many options a collection keeps.
const MaxItineraries = 3

const inactive = -1

// ItineraryCollection holds the options for the current query and which one is shown.
// It is owned by a single goroutine.
type ItineraryCollection struct {
	items    []model.Itinerary
	selected int
}

func NewItineraryCollection() *ItineraryCollection {
	return &ItineraryCollection{selected: inactive}
}

// Replace installs a new sequence, keeping at most MaxItineraries.
func (c *ItineraryCollection) Replace(its []model.Itinerary) {
	n := len(its)
	if n > MaxItineraries {
		n = MaxItineraries
	}
	items := make([]model.Itinerary, n)
	copy(items, its[:n])
	c.items = items
	if n > 0 {
		c.selected = 0
	} else {
		c.selected = inactive
	}
}

func (c *ItineraryCollection) SelectPrevious() {
	if c.selected > 0 {
		c.selected--
	}
}

func (c *ItineraryCollection) SelectNext() {
	if c.selected != inactive && c.selected < len(c.items)-1 {
		c.selected++
	}
}

// SelectIndex ignores indices outside the collection.
func (c *ItineraryCollection) SelectIndex(i int) {
	if i >= 0 && i < len(c.items) {
		c.selected = i
	}
}

func (c *ItineraryCollection) Current() (model.Itinerary, bool) {
	if c.selected == inactive {
		return model.Itinerary{}, false
	}
	return c.items[c.selected], true
}

func (c *ItineraryCollection) Clear() {
	c.items = nil
	c.selected = inactive
}

func (c *ItineraryCollection) Len() int {
	return len(c.items)
}

// SelectedIndex is -1 when the collection is empty.
func (c *ItineraryCollection) SelectedIndex() int {
	return c.selected
}

// Items returns a copy of the held itineraries.
func (c *ItineraryCollection) Items() []model.Itinerary {
	out := make([]model.Itinerary, len(c.items))
	copy(out, c.items)
	return out
}
