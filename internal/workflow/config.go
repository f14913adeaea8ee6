package workflow

import (
	"net/url"
	"strings"
	"time"
)

const (
	DefaultHomeURL    = "https://www.opentable.com"
	DefaultSearchPath = "/s"
)

type Config struct {
	Site   Site
	Guest  Guest
	Delays Delays
}

// Site describes the reservation website the workflow drives.
type Site struct {
	HomeURL    string
	SearchPath string
}

// Guest is the identity entered on the booking form.
// An empty Phone disables the phone step.
type Guest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Delays are fixed pauses that let client-side rendering settle after a
// navigation-causing instruction. They are calendar waits, not conditions.
type Delays struct {
	PostNavigate       time.Duration
	PostSearch         time.Duration
	PostOpenRestaurant time.Duration
	PostParams         time.Duration
	PostSlot           time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		PostNavigate:       3 * time.Second,
		PostSearch:         2 * time.Second,
		PostOpenRestaurant: 3 * time.Second,
		PostParams:         2 * time.Second,
		PostSlot:           2 * time.Second,
	}
}

func DefaultConfig() Config {
	return Config{
		Site:   Site{HomeURL: DefaultHomeURL, SearchPath: DefaultSearchPath},
		Delays: DefaultDelays(),
	}
}

// IsLanding reports whether loc is the site's landing page.
func (s Site) IsLanding(loc string) bool {
	home, err := url.Parse(s.HomeURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, home.Host) && strings.Trim(u.Path, "/") == strings.Trim(home.Path, "/")
}

// IsSearchResults reports whether loc is the site's search-results view.
func (s Site) IsSearchResults(loc string) bool {
	if s.SearchPath == "" {
		return false
	}
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}
	p := strings.TrimRight(u.Path, "/")
	sp := strings.TrimRight(s.SearchPath, "/")
	return p == sp || strings.HasPrefix(p, sp+"/")
}
