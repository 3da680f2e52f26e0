package planner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/bwise1/trip_planner/internal/model"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrInvalidSpeed  = errors.New("speed out of range")
)

// TripPlanner fetches itinerary options. An empty slice with a nil error
// means the service found no route.
type TripPlanner interface {
	Plan(ctx context.Context, req model.PlanRequest) ([]model.Itinerary, error)
}

// Geocoder resolves free text to a place inside viewbox.
type Geocoder interface {
	Search(ctx context.Context, text string, viewbox model.Viewport) (model.Place, error)
}

// State is the orchestrator state of a session.
type State string

const (
	StateIdle        State = "idle"
	StateRequesting  State = "requesting"
	StateWithResults State = "idle_with_results"
	StateEmpty       State = "idle_empty"
)

// Field selects which endpoint an address search moves.
type Field string

const (
	FieldStart Field = "start"
	FieldEnd   Field = "end"
)

// Placement tells which endpoint a map click set, if any.
type Placement string

const (
	PlacedStart  Placement = "start"
	PlacedEnd    Placement = "end"
	PlacedIgnore Placement = "ignored"
)

const geolocatedZoom = 15

type Defaults struct {
	Mode         model.TransportMode
	WalkSpeedKmh float64
	BikeSpeedKmh float64
	Departure    time.Time
	View         model.MapView
}

type Options struct {
	Logger          *slog.Logger
	Planner         TripPlanner
	Geocoder        Geocoder
	Location        *time.Location
	Defaults        Defaults
	NumItineraries  int
	AddressDebounce time.Duration
	NotificationTTL time.Duration
	RequestTimeout  time.Duration
	// OnChange is called from the session loop after every visible change.
	// It must not block.
	OnChange func(Snapshot)
}

// Snapshot is a copy of the session state safe to hand to other goroutines.
type Snapshot struct {
	SessionID     string               `json:"session_id"`
	State         State                `json:"state"`
	Query         model.RouteQuery     `json:"query"`
	View          model.MapView        `json:"view"`
	Viewport      *model.Viewport      `json:"viewport,omitempty"`
	SelectedIndex int                  `json:"selected_index"`
	Itineraries   []ItineraryCard      `json:"itineraries"`
	Notifications []model.Notification `json:"notifications"`
}

// Session is one planner screen. All of its state is owned by the goroutine
// running Run; exported methods hand work to that goroutine and wait for it.
type Session struct {
	ID string

	opts    Options
	logger  *slog.Logger
	actions chan func()
	done    chan struct{}
	closing sync.Once
	ctx     context.Context
	cancel  context.CancelFunc

	query         model.RouteQuery
	state         State
	collection    *ItineraryCollection
	notifications *NotificationQueue
	viewport      model.Viewport
	view          model.MapView
	seq           uint64
	cancelPlan    context.CancelFunc
	debouncers    map[Field]*Debouncer
}

func NewSession(id string, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.NumItineraries <= 0 {
		opts.NumItineraries = MaxItineraries
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	walkSpeed := opts.Defaults.WalkSpeedKmh
	if walkSpeed <= 0 {
		walkSpeed = 4.8
	}
	bikeSpeed := opts.Defaults.BikeSpeedKmh
	if bikeSpeed <= 0 {
		bikeSpeed = 15
	}
	mode := opts.Defaults.Mode
	if mode == "" {
		mode = model.ModeWalk
	}

	return &Session{
		ID:      id,
		opts:    opts,
		logger:  opts.Logger.With(slog.String("session_id", id)),
		actions: make(chan func(), 16),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		query: model.RouteQuery{
			Mode:         mode,
			WalkSpeed:    walkSpeed,
			WalkUnit:     model.UnitKmh,
			BikeSpeedKmh: bikeSpeed,
			Departure:    opts.Defaults.Departure,
		},
		state:         StateIdle,
		collection:    NewItineraryCollection(),
		notifications: NewNotificationQueue(),
		view:          opts.Defaults.View,
		debouncers: map[Field]*Debouncer{
			FieldStart: NewDebouncer(opts.AddressDebounce),
			FieldEnd:   NewDebouncer(opts.AddressDebounce),
		},
	}
}

// Run applies queued actions until Close is called.
func (s *Session) Run() {
	for {
		select {
		case fn := <-s.actions:
			fn()
		case <-s.done:
			return
		}
	}
}

func (s *Session) Close() {
	s.closing.Do(func() {
		close(s.done)
		s.cancel()
		for _, d := range s.debouncers {
			d.Cancel()
		}
	})
}

// Done is closed once the session stops.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// do runs fn on the loop and waits for it.
func (s *Session) do(fn func()) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	applied := make(chan struct{})
	select {
	case s.actions <- func() { fn(); close(applied) }:
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case <-applied:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// post queues fn without waiting; used by completions and timers.
func (s *Session) post(fn func()) {
	select {
	case s.actions <- fn:
	case <-s.done:
	}
}

// Click places the start on the first click and the end on the second.
func (s *Session) Click(c model.Coordinate) (Placement, error) {
	placement := PlacedIgnore
	err := s.do(func() {
		switch {
		case s.query.Start == nil:
			s.query.Start = &c
			placement = PlacedStart
		case s.query.End == nil:
			s.query.End = &c
			placement = PlacedEnd
		default:
			return
		}
		s.queryChanged()
	})
	return placement, err
}

func (s *Session) SetStart(c model.Coordinate) error {
	return s.do(func() {
		s.query.Start = &c
		s.queryChanged()
	})
}

func (s *Session) SetEnd(c model.Coordinate) error {
	return s.do(func() {
		s.query.End = &c
		s.queryChanged()
	})
}

func (s *Session) SetMode(m model.TransportMode) error {
	return s.do(func() {
		s.query.Mode = m
		s.queryChanged()
	})
}

// SetSpeed edits the bike speed in km/h when cycling, otherwise the walking
// speed in its current display unit.
func (s *Session) SetSpeed(value float64) error {
	return s.SetSpeedWithUnit(nil, value)
}

// SetSpeedWithUnit optionally switches the walking display unit and sets the
// speed in one step. value is checked against the resulting unit first; an
// out of range value leaves the query untouched.
func (s *Session) SetSpeedWithUnit(unit *model.SpeedUnit, value float64) error {
	var err error
	doErr := s.do(func() {
		walkUnit := s.query.WalkUnit
		if unit != nil {
			walkUnit = *unit
		}

		cycling := s.query.Mode == model.ModeBicycle
		checkUnit := walkUnit
		if cycling {
			checkUnit = model.UnitKmh
		}
		if !model.ValidSpeed(value, checkUnit) {
			err = ErrInvalidSpeed
			return
		}

		if walkUnit != s.query.WalkUnit {
			s.query.WalkSpeed = model.ConvertSpeedUnit(s.query.WalkSpeed, s.query.WalkUnit, walkUnit)
			s.query.WalkUnit = walkUnit
		}
		if cycling {
			s.query.BikeSpeedKmh = value
		} else {
			s.query.WalkSpeed = value
		}
		s.queryChanged()
	})
	if doErr != nil {
		return doErr
	}
	return err
}

// SetSpeedUnit switches the walking display unit and converts the value.
func (s *Session) SetSpeedUnit(unit model.SpeedUnit) error {
	return s.do(func() {
		if unit == s.query.WalkUnit {
			return
		}
		s.query.WalkSpeed = model.ConvertSpeedUnit(s.query.WalkSpeed, s.query.WalkUnit, unit)
		s.query.WalkUnit = unit
		s.queryChanged()
	})
}

func (s *Session) SetDeparture(t time.Time) error {
	return s.do(func() {
		s.query.Departure = t
		s.queryChanged()
	})
}

// SetViewport records the visible map area used to bound address searches.
func (s *Session) SetViewport(v model.Viewport) error {
	return s.do(func() {
		s.viewport = v
	})
}

// SearchAddress geocodes text once typing has paused for the debounce delay.
// A hit moves the field's endpoint; a miss is only logged.
func (s *Session) SearchAddress(field Field, text string) error {
	return s.do(func() {
		d, ok := s.debouncers[field]
		if !ok {
			return
		}
		d.Schedule(func(gen uint64) {
			s.post(func() { s.geocode(field, text, gen) })
		})
	})
}

// ReportPosition sets the start to the device position and recenters the map.
func (s *Session) ReportPosition(c model.Coordinate) error {
	return s.do(func() {
		s.query.Start = &c
		s.view = model.MapView{Center: c, Zoom: geolocatedZoom}
		s.queryChanged()
	})
}

func (s *Session) ReportPositionError(code int) error {
	return s.do(func() {
		s.notify(model.NotificationError, GeolocationMessage(code))
		s.changed()
	})
}

// Reset removes both endpoints and clears results, whatever is in flight.
func (s *Session) Reset() error {
	return s.do(func() {
		s.seq++
		if s.cancelPlan != nil {
			s.cancelPlan()
			s.cancelPlan = nil
		}
		for _, d := range s.debouncers {
			d.Cancel()
		}
		s.query.Start = nil
		s.query.End = nil
		s.collection.Clear()
		s.state = StateIdle
		s.changed()
	})
}

func (s *Session) SelectNext() error {
	return s.do(func() {
		s.collection.SelectNext()
		s.changed()
	})
}

func (s *Session) SelectPrevious() error {
	return s.do(func() {
		s.collection.SelectPrevious()
		s.changed()
	})
}

func (s *Session) SelectIndex(i int) error {
	return s.do(func() {
		s.collection.SelectIndex(i)
		s.changed()
	})
}

// DismissNotification reports whether the notification was still visible.
func (s *Session) DismissNotification(id string) (bool, error) {
	var found bool
	err := s.do(func() {
		found = s.notifications.Dismiss(id)
		if found {
			s.changed()
		}
	})
	return found, err
}

func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.do(func() {
		snap = s.snapshot()
	})
	return snap, err
}

// Current returns the selected itinerary with decoded legs.
func (s *Session) Current() (ItineraryDetail, bool, error) {
	var (
		detail ItineraryDetail
		ok     bool
	)
	err := s.do(func() {
		var it model.Itinerary
		it, ok = s.collection.Current()
		if ok {
			detail = BuildDetail(s.logger, it, s.collection.SelectedIndex(), true, s.opts.Location)
		}
	})
	return detail, ok, err
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:     s.ID,
		State:         s.state,
		Query:         s.query,
		View:          s.view,
		SelectedIndex: s.collection.SelectedIndex(),
		Itineraries:   BuildCards(s.collection, s.opts.Location),
		Notifications: s.notifications.List(),
	}
	if s.query.Start != nil {
		start := *s.query.Start
		snap.Query.Start = &start
	}
	if s.query.End != nil {
		end := *s.query.End
		snap.Query.End = &end
	}
	if !s.viewport.IsZero() {
		vp := s.viewport
		snap.Viewport = &vp
	}
	return snap
}

func (s *Session) changed() {
	if s.opts.OnChange != nil {
		s.opts.OnChange(s.snapshot())
	}
}

// queryChanged issues a request for a complete query. The previous request,
// if any, is cancelled and its response will be discarded.
func (s *Session) queryChanged() {
	if !s.query.Complete() {
		s.state = StateIdle
		s.changed()
		return
	}

	s.seq++
	seq := s.seq
	if s.cancelPlan != nil {
		s.cancelPlan()
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.RequestTimeout)
	s.cancelPlan = cancel
	s.state = StateRequesting

	req := model.PlanRequest{
		From:           *s.query.Start,
		To:             *s.query.End,
		Mode:           s.query.Mode,
		Departure:      s.query.Departure,
		WalkSpeed:      s.query.WalkSpeedMPS(),
		BikeSpeed:      s.query.BikeSpeedMPS(),
		NumItineraries: s.opts.NumItineraries,
	}
	s.changed()

	go func() {
		defer cancel()
		started := time.Now()
		its, err := s.opts.Planner.Plan(ctx, req)
		elapsed := time.Since(started)
		s.post(func() { s.applyPlan(seq, its, err, elapsed) })
	}()
}

func (s *Session) applyPlan(seq uint64, its []model.Itinerary, err error, elapsed time.Duration) {
	if seq != s.seq {
		s.logger.Debug("discarding stale plan response", slog.Uint64("seq", seq), slog.Uint64("current", s.seq))
		return
	}
	s.cancelPlan = nil

	switch {
	case err != nil:
		logging.LogError(s.logger, "failed to fetch itineraries", err, slog.Duration("duration", elapsed))
		s.collection.Clear()
		s.state = StateEmpty
		s.notify(model.NotificationError, MsgFetchFailure)
	case len(its) == 0:
		logging.LogOperation(s.logger, "no_routes_found", slog.Duration("duration", elapsed))
		s.collection.Clear()
		s.state = StateEmpty
		s.notify(model.NotificationInfo, MsgNoRoutes)
	default:
		s.collection.Replace(its)
		s.state = StateWithResults
		logging.LogOperation(s.logger, "itineraries_replaced",
			slog.Int("received", len(its)),
			slog.Int("kept", s.collection.Len()),
			slog.Duration("duration", elapsed))
	}
	s.changed()
}

func (s *Session) geocode(field Field, text string, gen uint64) {
	d := s.debouncers[field]
	if !d.Current(gen) || s.opts.Geocoder == nil {
		return
	}
	viewport := s.viewport

	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.opts.RequestTimeout)
		defer cancel()
		place, err := s.opts.Geocoder.Search(ctx, text, viewport)
		s.post(func() {
			if !d.Current(gen) {
				return
			}
			if err != nil {
				logging.LogError(s.logger, "address lookup failed", err,
					slog.String("field", string(field)),
					slog.String("text", text))
				return
			}
			at := place.At
			if field == FieldStart {
				s.query.Start = &at
			} else {
				s.query.End = &at
			}
			s.queryChanged()
		})
	}()
}

func (s *Session) notify(kind model.NotificationKind, message string) {
	n := s.notifications.Push(kind, message)
	if s.opts.NotificationTTL <= 0 {
		return
	}
	time.AfterFunc(s.opts.NotificationTTL, func() {
		s.post(func() {
			if s.notifications.Dismiss(n.ID) {
				s.changed()
			}
		})
	})
}
