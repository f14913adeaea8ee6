package intent

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	meridiemTimePattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?:[:.]([0-5]\d))?\s*([ap])\.?\s?m\b\.?`)
	railwayTimePattern  = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	namedTimePattern    = regexp.MustCompile(`(?i)\b(noon|midday|midnight)\b`)
)

// HasClockTime reports whether text names an explicit time of day such as
// "7pm", "7:30 am", "10.30pm", "19:30" or "noon".
func HasClockTime(text string) bool {
	_, ok := findClockTime(text)
	return ok
}

func findClockTime(text string) (TimeOfDay, bool) {
	for _, m := range meridiemTimePattern.FindAllStringSubmatch(text, -1) {
		hour, err := strconv.Atoi(m[1])
		if err != nil || hour < 1 || hour > 12 {
			continue
		}
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		pm := strings.EqualFold(m[3], "p")
		switch {
		case pm && hour != 12:
			hour += 12
		case !pm && hour == 12:
			hour = 0
		}
		return TimeOfDay{Hour: hour, Minute: minute}, true
	}

	if m := railwayTimePattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return TimeOfDay{Hour: hour, Minute: minute}, true
	}

	if m := namedTimePattern.FindStringSubmatch(text); m != nil {
		if strings.EqualFold(m[1], "midnight") {
			return TimeOfDay{}, true
		}
		return TimeOfDay{Hour: 12}, true
	}

	return TimeOfDay{}, false
}
