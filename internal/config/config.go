package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kelseyhightower/envconfig"

	"github.com/example/tablebook/internal/logging"
	"github.com/example/tablebook/internal/workflow"
)

const DefaultRequest = "book me a reservation at Terra E Mare tomorrow at 7pm for 2"

type Config struct {
	Timezone       string `envconfig:"TIMEZONE" default:"America/New_York"`
	DefaultRequest string `envconfig:"DEFAULT_REQUEST"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	DatabaseConns  int32  `envconfig:"DATABASE_MAX_CONNS" default:"4"`
	HTTPAddr       string `envconfig:"HTTP_ADDR" default:":8080"`
	GuestProfile   string `envconfig:"GUEST_PROFILE"`

	Site     SiteConfig
	Guest    GuestConfig
	Browser  BrowserConfig
	Executor ExecutorConfig
	Delays   DelayConfig
	Log      logging.Config
}

type SiteConfig struct {
	HomeURL    string `envconfig:"SITE_HOME_URL" default:"https://www.opentable.com"`
	SearchPath string `envconfig:"SITE_SEARCH_PATH" default:"/s"`
}

type GuestConfig struct {
	FirstName string `envconfig:"BOOKING_FIRST_NAME"`
	LastName  string `envconfig:"BOOKING_LAST_NAME"`
	Email     string `envconfig:"BOOKING_EMAIL"`
	Phone     string `envconfig:"BOOKING_PHONE"`
}

type BrowserConfig struct {
	Headless    bool          `envconfig:"BROWSER_HEADLESS" default:"true"`
	Timeout     time.Duration `envconfig:"BROWSER_TIMEOUT" default:"60s"`
	StateDir    string        `envconfig:"BROWSER_STATE_DIR"`
	StateSecret string        `envconfig:"BROWSER_STATE_SECRET"`
}

type ExecutorConfig struct {
	URL     string        `envconfig:"EXECUTOR_URL"`
	APIKey  string        `envconfig:"EXECUTOR_API_KEY"`
	Timeout time.Duration `envconfig:"EXECUTOR_TIMEOUT" default:"90s"`
}

type DelayConfig struct {
	PostNavigate       time.Duration `envconfig:"DELAY_POST_NAVIGATE" default:"3s"`
	PostSearch         time.Duration `envconfig:"DELAY_POST_SEARCH" default:"2s"`
	PostOpenRestaurant time.Duration `envconfig:"DELAY_POST_OPEN_RESTAURANT" default:"3s"`
	PostParams         time.Duration `envconfig:"DELAY_POST_PARAMS" default:"2s"`
	PostSlot           time.Duration `envconfig:"DELAY_POST_SLOT" default:"2s"`
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to process env config")
	}
	if strings.TrimSpace(cfg.DefaultRequest) == "" {
		cfg.DefaultRequest = DefaultRequest
	}

	if cfg.GuestProfile != "" {
		p, err := LoadGuestProfile(cfg.GuestProfile)
		if err != nil {
			return Config{}, err
		}
		cfg.Guest = p.fill(cfg.Guest)
	}

	if cfg.Browser.StateDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Browser.StateDir = filepath.Join(home, ".tablebook", "browser-state")
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.Wrapf(err, "invalid TIMEZONE %q", c.Timezone)
	}
	u, err := url.Parse(c.Site.HomeURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Newf("SITE_HOME_URL must be an absolute URL (got %q)", c.Site.HomeURL)
	}
	return nil
}

// Location returns the reference zone for parsing requests.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) Workflow() workflow.Config {
	return workflow.Config{
		Site: workflow.Site{
			HomeURL:    c.Site.HomeURL,
			SearchPath: c.Site.SearchPath,
		},
		Guest: workflow.Guest{
			FirstName: c.Guest.FirstName,
			LastName:  c.Guest.LastName,
			Email:     c.Guest.Email,
			Phone:     strings.TrimSpace(c.Guest.Phone),
		},
		Delays: workflow.Delays{
			PostNavigate:       c.Delays.PostNavigate,
			PostSearch:         c.Delays.PostSearch,
			PostOpenRestaurant: c.Delays.PostOpenRestaurant,
			PostParams:         c.Delays.PostParams,
			PostSlot:           c.Delays.PostSlot,
		},
	}
}
