package intent_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tablebook/internal/clock"
	"github.com/example/tablebook/internal/intent"
)

func newTestParser(t *testing.T) (*intent.Parser, time.Time) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// Wednesday, mid-day.
	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, loc)
	return intent.NewParser(intent.WithClock(clock.NewFixed(now)), intent.WithLocation(loc)), now
}

func TestParse_FullRequest(t *testing.T) {
	t.Parallel()
	p, now := newTestParser(t)

	got := p.Parse("book me a reservation at Terra E Mare tomorrow at 7pm for 2")

	want := intent.Intent{
		Restaurant: "Terra E Mare",
		Party:      2,
		Date:       intent.DateOf(now.AddDate(0, 0, 1)),
		Time:       intent.TimeOfDay{Hour: 19},
		Location:   now.Location(),
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b *time.Location) bool { return a.String() == b.String() })); diff != "" {
		t.Fatalf("intent mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NoDatePhraseUsesToday(t *testing.T) {
	t.Parallel()
	p, now := newTestParser(t)

	for _, text := range []string{
		"book a table at Nopa",
		"reserve a table at Zuni Cafe for 4",
		"something completely unrelated",
	} {
		got := p.Parse(text)
		assert.Equal(t, intent.DateOf(now), got.Date, text)
	}
}

func TestParse_BareDayDefaultsToEvening(t *testing.T) {
	t.Parallel()
	p, now := newTestParser(t)

	got := p.Parse("table at Nopa tomorrow for 3")
	assert.Equal(t, intent.TimeOfDay{Hour: 19}, got.Time)
	assert.Equal(t, intent.DateOf(now.AddDate(0, 0, 1)), got.Date)

	got = p.Parse("table at Nopa on Friday")
	assert.Equal(t, intent.TimeOfDay{Hour: 19}, got.Time)
	assert.Equal(t, time.Friday, got.At().Weekday())
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	assert.False(t, got.At().Before(startOfToday), "weekday must not resolve into the past")
}

func TestParse_ExplicitClockTime(t *testing.T) {
	t.Parallel()
	p, _ := newTestParser(t)

	cases := []struct {
		text string
		want intent.TimeOfDay
	}{
		{"dinner at Nopa tomorrow at 8pm", intent.TimeOfDay{Hour: 20}},
		{"dinner at Nopa tomorrow at 7:30 am", intent.TimeOfDay{Hour: 7, Minute: 30}},
		{"lunch at Nopa tomorrow at noon", intent.TimeOfDay{Hour: 12}},
		{"table at Nopa at 18:45 for 2", intent.TimeOfDay{Hour: 18, Minute: 45}},
		{"table at Nopa tomorrow 12am", intent.TimeOfDay{Hour: 0}},
		{"table at Nopa tomorrow 12 p.m.", intent.TimeOfDay{Hour: 12}},
		{"table at Nopa tomorrow at 10.30pm", intent.TimeOfDay{Hour: 22, Minute: 30}},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, p.Parse(tc.text).Time)
		})
	}
}

func TestParse_PartySize(t *testing.T) {
	t.Parallel()
	p, _ := newTestParser(t)

	cases := []struct {
		text string
		want int
	}{
		{"book a table at Nopa", 2},
		{"book a table at Nopa for 6", 6},
		{"book a table at Nopa party of 4", 4},
		{"book a table at Nopa party of 0", 1},
		{"book a table at Nopa for -3", 1},
		{"book a table for five at Nopa", 5},
		{"book a table at Nopa for 7:30", 2},
		{"book a table at Nopa for 8 pm", 2},
		{"book a table at Nopa for 7.30", 2},
		{"book a table at Nopa for 250", intent.MaxParty},
		{"book a table at Nopa for 99999999999999999999", intent.MaxParty},
		{"book a table at Nopa for -99999999999999999999", 1},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, p.Parse(tc.text).Party)
		})
	}
}

func TestParse_RestaurantName(t *testing.T) {
	t.Parallel()
	p, _ := newTestParser(t)

	cases := []struct {
		text string
		want string
	}{
		{"book a table for 2 at Nopa tomorrow", "Nopa"},
		{"reserve at State Bird Provisions on Friday at 6pm", "State Bird Provisions"},
		{"dinner at Zuni Cafe, party of 3", "Zuni Cafe"},
		{"  Lazy Bear next Tuesday  ", "Lazy Bear next Tuesday"},
		{"tomorrow please", "tomorrow please"},
		{"book a table at Tavern on the Green tomorrow for 4", "Tavern on the Green"},
		{"reserve a table at Next for 2", "Next"},
		{"dinner at Nopa with my parents on Friday", "Nopa"},
		{"table at Nopa around 8pm", "Nopa"},
		{"", intent.UnnamedRestaurant},
		{"   ", intent.UnnamedRestaurant},
		{"\t\n", intent.UnnamedRestaurant},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got := p.Parse(tc.text)
			assert.Equal(t, tc.want, got.Restaurant)
			assert.NotEmpty(t, got.Restaurant)
		})
	}
}

func TestParse_MonthWordYieldsToRelativeDay(t *testing.T) {
	t.Parallel()
	p, now := newTestParser(t)

	got := p.Parse("May I book a table at Nopa tomorrow")
	assert.Equal(t, intent.DateOf(now.AddDate(0, 0, 1)), got.Date)
	assert.Equal(t, "Nopa", got.Restaurant)

	got = p.Parse("May I book a table at Nopa tonight")
	assert.Equal(t, intent.DateOf(now), got.Date)
}

func TestHasClockTime(t *testing.T) {
	t.Parallel()

	assert.True(t, intent.HasClockTime("at 7pm"))
	assert.True(t, intent.HasClockTime("7:30 am"))
	assert.True(t, intent.HasClockTime("10.30pm"))
	assert.True(t, intent.HasClockTime("around midnight"))
	assert.False(t, intent.HasClockTime("tomorrow for 2"))
	assert.False(t, intent.HasClockTime("party of 7"))
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	d := intent.Date{Year: 2026, Month: time.October, Day: 19}
	assert.Equal(t, "Monday, October 19, 2026", d.Human())
	assert.Equal(t, "2026-10-19", d.String())

	assert.Equal(t, "7:00 PM", intent.TimeOfDay{Hour: 19}.Human())
	assert.Equal(t, "12:05 AM", intent.TimeOfDay{Minute: 5}.Human())
	assert.Equal(t, "09:30", intent.TimeOfDay{Hour: 9, Minute: 30}.String())
}

func TestIntent_MarshalJSON(t *testing.T) {
	t.Parallel()
	p, _ := newTestParser(t)

	b, err := json.Marshal(p.Parse("book me a reservation at Terra E Mare tomorrow at 7pm for 2"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"restaurant": "Terra E Mare",
		"party": 2,
		"date": "2026-10-15",
		"time": "19:00",
		"timezone": "America/New_York",
		"at": "2026-10-15T19:00:00-04:00"
	}`, string(b))
}
