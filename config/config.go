package config

import (
	"fmt"
	"log"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           int    `env:"PORT" envDefault:"8080" validate:"min=1,max=65535"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"*"`

	PlannerBaseURL        string  `env:"PLANNER_BASE_URL" envDefault:"https://data.mobilites-m.fr/api/routers/default" validate:"required,url"`
	GeocoderBaseURL       string  `env:"GEOCODER_BASE_URL" envDefault:"https://nominatim.openstreetmap.org" validate:"required,url"`
	GeocoderUserAgent     string  `env:"GEOCODER_USER_AGENT" envDefault:"trip-planner/1.0" validate:"required"`
	GeocoderRatePerSecond float64 `env:"GEOCODER_RATE_PER_SECOND" envDefault:"1" validate:"gt=0"`
	GeocoderCacheSize     int     `env:"GEOCODER_CACHE_SIZE" envDefault:"1000" validate:"min=1"`
	TransitBaseURL        string  `env:"TRANSIT_BASE_URL" envDefault:"https://data.mobilites-m.fr/api" validate:"required,url"`
	TransitNetwork        string  `env:"TRANSIT_NETWORK" envDefault:"SEM" validate:"required"`

	DefaultMode         string  `env:"DEFAULT_MODE" envDefault:"WALK" validate:"oneof=WALK BICYCLE TRANSIT TRAM BUS CAR"`
	DefaultWalkSpeedKmh float64 `env:"DEFAULT_WALK_SPEED_KMH" envDefault:"4.8" validate:"gt=0,lte=36"`
	DefaultBikeSpeedKmh float64 `env:"DEFAULT_BIKE_SPEED_KMH" envDefault:"15" validate:"gt=0,lte=36"`
	NumItineraries      int     `env:"NUM_ITINERARIES" envDefault:"3" validate:"min=1,max=5"`

	MapCenterLat float64 `env:"MAP_CENTER_LAT" envDefault:"45.1885" validate:"latitude"`
	MapCenterLon float64 `env:"MAP_CENTER_LON" envDefault:"5.7245" validate:"longitude"`
	MapZoom      int     `env:"MAP_ZOOM" envDefault:"13" validate:"min=0,max=22"`

	Timezone             string `env:"TIMEZONE" envDefault:"Europe/Paris" validate:"required"`
	DefaultDepartureTime string `env:"DEFAULT_DEPARTURE_TIME" envDefault:"08:00" validate:"required"`

	AddressDebounce time.Duration `env:"ADDRESS_DEBOUNCE" envDefault:"500ms"`
	NotificationTTL time.Duration `env:"NOTIFICATION_TTL" envDefault:"4s"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
}

func New() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		log.Printf("[Env]: unable to load .env file %v", loadErr)
	}

	cfg, parseErr := Parse()
	if parseErr != nil {
		log.Printf("[Env]: failed to parse environment variables: %v", parseErr)
	}

	return cfg
}

// Parse reads the process environment without touching .env files.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if _, err := time.Parse("15:04", c.DefaultDepartureTime); err != nil {
		return fmt.Errorf("invalid DEFAULT_DEPARTURE_TIME %q: %w", c.DefaultDepartureTime, err)
	}
	if c.AddressDebounce <= 0 || c.NotificationTTL <= 0 || c.HTTPTimeout <= 0 {
		return fmt.Errorf("durations must be positive")
	}
	return nil
}

// Location falls back to UTC when TIMEZONE cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultDeparture is today at the configured departure clock time.
func (c *Config) DefaultDeparture(now time.Time) time.Time {
	loc := c.Location()
	local := now.In(loc)
	clock, err := time.Parse("15:04", c.DefaultDepartureTime)
	if err != nil {
		clock = time.Date(0, 1, 1, 8, 0, 0, 0, time.UTC)
	}
	return time.Date(local.Year(), local.Month(), local.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
}

func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
