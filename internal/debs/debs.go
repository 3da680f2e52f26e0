package deps

import (
	"log/slog"
	"time"

	"github.com/bwise1/trip_planner/config"
	"github.com/bwise1/trip_planner/internal/http/mobilites"
	"github.com/bwise1/trip_planner/internal/http/nominatim"
	"github.com/bwise1/trip_planner/internal/http/otp"
	"github.com/bwise1/trip_planner/internal/model"
	"github.com/bwise1/trip_planner/internal/planner"
	"github.com/bwise1/trip_planner/util/websockets"
	"github.com/pkg/errors"
)

type Dependencies struct {
	Logger    *slog.Logger
	Planner   *otp.Client
	Geocoder  *nominatim.Client
	Transit   *mobilites.Client
	Sessions  *planner.Manager
	WebSocket *websockets.WebSocketManager
}

func New(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	tripPlanner, err := otp.NewClient(cfg.PlannerBaseURL, cfg.HTTPTimeout, logger)
	if err != nil {
		return nil, errors.Wrap(err, "create trip planner client")
	}

	geocoder, err := nominatim.NewClient(nominatim.Options{
		BaseURL:       cfg.GeocoderBaseURL,
		UserAgent:     cfg.GeocoderUserAgent,
		RatePerSecond: cfg.GeocoderRatePerSecond,
		CacheSize:     cfg.GeocoderCacheSize,
		Timeout:       cfg.HTTPTimeout,
		Logger:        logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create geocoder client")
	}

	transit, err := mobilites.NewClient(cfg.TransitBaseURL, cfg.TransitNetwork, cfg.HTTPTimeout, logger)
	if err != nil {
		return nil, errors.Wrap(err, "create transit client")
	}

	websocket := websockets.NewWebSocketManager(logger)

	sessions := planner.NewManager(
		planner.Options{
			Logger:          logger,
			Planner:         tripPlanner,
			Geocoder:        geocoder,
			Location:        cfg.Location(),
			NumItineraries:  cfg.NumItineraries,
			AddressDebounce: cfg.AddressDebounce,
			NotificationTTL: cfg.NotificationTTL,
			RequestTimeout:  cfg.HTTPTimeout,
		},
		SessionDefaults(cfg, time.Now),
		func(snap planner.Snapshot) {
			websocket.Publish(snap.SessionID, websockets.MsgTypeSnapshot, snap)
		},
	)

	deps := Dependencies{
		Logger:    logger,
		Planner:   tripPlanner,
		Geocoder:  geocoder,
		Transit:   transit,
		Sessions:  sessions,
		WebSocket: websocket,
	}
	return &deps, nil
}

// SessionDefaults resolves the per-session starting query from config.
func SessionDefaults(cfg *config.Config, now func() time.Time) func() planner.Defaults {
	return func() planner.Defaults {
		mode, err := model.ParseTransportMode(cfg.DefaultMode)
		if err != nil {
			mode = model.ModeWalk
		}
		return planner.Defaults{
			Mode:         mode,
			WalkSpeedKmh: cfg.DefaultWalkSpeedKmh,
			BikeSpeedKmh: cfg.DefaultBikeSpeedKmh,
			Departure:    cfg.DefaultDeparture(now()),
			View: model.MapView{
				Center: model.Coordinate{Lat: cfg.MapCenterLat, Lon: cfg.MapCenterLon},
				Zoom:   cfg.MapZoom,
			},
		}
	}
}

// Close stops background work.
func (d *Dependencies) Close() {
	d.Sessions.CloseAll()
	d.WebSocket.Stop()
}
