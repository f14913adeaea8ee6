package intent

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/example/tablebook/internal/clock"
)

const (
	DefaultTimezone = "America/New_York"
	DefaultParty    = 2
	// MaxParty caps absurd sizes, including ones too large to parse.
	MaxParty = 100
)

// DefaultTime is used when the request names a day but no time of day.
var DefaultTime = TimeOfDay{Hour: 19}

// Parser turns free text into an Intent. Every input yields an Intent; missing
// pieces fall back to defaults instead of producing an error.
type Parser struct {
	clock clock.Clock
	loc   *time.Location
	when  *when.Parser
}

type Option func(*Parser)

// WithClock sets the reference "now" relative dates are resolved against.
func WithClock(c clock.Clock) Option {
	return func(p *Parser) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLocation sets the zone dates and times are normalized into.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		clock: clock.NewSystem(),
		loc:   defaultLocation(),
	}
	for _, opt := range opts {
		opt(p)
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	p.when = w
	return p
}

// Location returns the reference zone of the parser.
func (p *Parser) Location() *time.Location { return p.loc }

func (p *Parser) Parse(text string) Intent {
	text = strings.TrimSpace(text)
	now := p.clock.Now().In(p.loc)

	at := p.resolveDate(text, now)
	tod, ok := findClockTime(text)
	if !ok {
		tod = DefaultTime
	}

	return Intent{
		Restaurant: restaurantName(text),
		Party:      partySize(text),
		Date:       DateOf(at),
		Time:       tod,
		Location:   p.loc,
	}
}

var (
	weekdayPattern     = regexp.MustCompile(`(?i)\b` + weekdayWords + `\b`)
	bareMonthPattern   = regexp.MustCompile(`(?i)^\W*` + monthWords + `\W*$`)
	relativeDayPattern = regexp.MustCompile(`(?i)\b(?:today|tonight|tomorrow|tmrw|` + weekdayWords + `)\b`)
)

// resolveDate returns the first date the recognizer finds, or now. Days that
// resolve into the past move forward to their next occurrence.
func (p *Parser) resolveDate(text string, now time.Time) time.Time {
	if text == "" {
		return now
	}
	r, err := p.when.Parse(text, now)
	// A lone month name ("May I book...", "dinner at March") loses to an
	// explicit relative day elsewhere in the text.
	for i := 0; err == nil && r != nil && i < 3; i++ {
		if !bareMonthPattern.MatchString(r.Text) || !relativeDayPattern.MatchString(text) {
			break
		}
		text = text[:r.Index] + strings.Repeat(" ", len(r.Text)) + text[r.Index+len(r.Text):]
		r, err = p.when.Parse(text, now)
	}
	if err != nil || r == nil {
		return now
	}

	t := r.Time.In(p.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.loc)
	if !t.Before(today) {
		return t
	}
	if weekdayPattern.MatchString(r.Text) {
		for t.Before(today) {
			t = t.AddDate(0, 0, 7)
		}
		return t
	}
	for t.Before(today) {
		t = t.AddDate(1, 0, 0)
	}
	return t
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
}

const numberWordAlternation = `one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|` +
	`thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty`

var partyPattern = regexp.MustCompile(`(?i)\b(?:for|party\s+of)\s+(-?\d+|` + numberWordAlternation + `)\b(\s*(?:[:.]\d|[ap]\.?m\b))?`)

// partySize finds "for N" or "party of N", clamped to [1, MaxParty]. A
// number that is really a clock time ("for 7:30", "for 8 pm") is skipped.
func partySize(text string) int {
	for _, m := range partyPattern.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue
		}
		n, ok := numberWords[strings.ToLower(m[1])]
		if !ok {
			var err error
			n, err = strconv.Atoi(m[1])
			if errors.Is(err, strconv.ErrRange) {
				n = MaxParty
				if strings.HasPrefix(m[1], "-") {
					n = 1
				}
			} else if err != nil {
				continue
			}
		}
		return min(MaxParty, max(1, n))
	}
	return DefaultParty
}

const (
	weekdayWords = `(?:mon|tues|wednes|thurs|fri|satur|sun)day`
	monthWords   = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
)

var (
	atForPattern  = regexp.MustCompile(`(?i)\b(?:at|for)\s+`)
	bookAtPattern = regexp.MustCompile(`(?i)\b(?:book|reserve)\b(?:\s+me)?(?:\s+(?:a|an))?(?:\s+(?:table|reservation|spot))?\s+at\s+(.+)`)

	// nameStopPattern finds where a name ends: the first temporal or
	// party-size phrase. Connectives like "on" or "next" only count when a
	// day, month, date or week follows, so "Tavern on the Green" survives.
	nameStopPattern = regexp.MustCompile(`(?i)\s(?:` +
		`(?:today|tonight|tomorrow|tmrw)\b|` +
		`(?:on|this|next)\s+(?:(?:` + weekdayWords + `|` + monthWords + `|week(?:end)?)\b|(?:the\s+)?\d)|` +
		weekdayWords + `\b|` +
		monthWords + `\s+\d|` +
		`(?:at|around|by|in)\s+\d|(?:at|around)\s+(?:noon|midnight)\b|` +
		`\d{1,2}(?:[:.]\d{2})?\s*[ap]\.?\s?m\b|\d{1,2}:\d{2}\b|(?:noon|midnight)\b|` +
		`for\s+(?:-?\d|(?:` + numberWordAlternation + `)\b)|party\s+of\b|` +
		`with\s+(?:my|our|\d)\b|please\b` +
		`)`)

	fillerNames = map[string]bool{
		"me": true, "us": true, "myself": true, "a table": true, "dinner": true, "lunch": true, "brunch": true,
	}
)

// UnnamedRestaurant stands in for a request with no text at all.
const UnnamedRestaurant = "unnamed restaurant"

// restaurantName extracts the establishment from "at/for <name>" or
// "book/reserve ... at <name>". When neither matches, the whole input is used.
func restaurantName(text string) string {
	for _, loc := range atForPattern.FindAllStringIndex(text, -1) {
		name := cutName(text[loc[1]:])
		if name == "" || fillerNames[strings.ToLower(name)] {
			continue
		}
		if _, ok := numberWords[strings.ToLower(name)]; ok {
			continue
		}
		if r := []rune(name)[0]; unicode.IsDigit(r) || r == '-' {
			continue
		}
		return name
	}

	if m := bookAtPattern.FindStringSubmatch(text); m != nil {
		if name := cutName(m[1]); name != "" {
			return name
		}
	}

	if text == "" {
		return UnnamedRestaurant
	}
	return text
}

func cutName(candidate string) string {
	candidate = " " + candidate
	if loc := nameStopPattern.FindStringIndex(candidate); loc != nil {
		candidate = candidate[:loc[0]]
	}
	return strings.TrimFunc(candidate, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(`.,!?;:"'`, r)
	})
}
