package util

import (
	"fmt"
	"time"
)

// DateFormat is the default layout for dates shown to surveyors.
const DateFormat = "2006-01-02"

// FormatDate formats t with layout, falling back to DateFormat. A zero
// time renders as an empty string.
func FormatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	if layout == "" {
		layout = DateFormat
	}
	return t.Format(layout)
}

// ParseDate parses a surveyor-entered date in layout or DateFormat.
func ParseDate(s, layout string) (time.Time, error) {
	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// RelativeTimeString describes how long ago t was, in Spanish.
func RelativeTimeString(t time.Time, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	switch {
	case diff < time.Minute:
		return "hace un momento"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minuto", "minutos")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hora", "horas")
	case diff < 48*time.Hour:
		return "ayer"
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24), "día", "días")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "mes", "meses")
	default:
		return plural(int(diff.Hours()/24/365), "año", "años")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "hace 1 " + one
	}
	return fmt.Sprintf("hace %d %s", n, many)
}
