package weather

import (
	"time"

	"github.com/moodroute/moodroute/internal/itinerary"
)

// ForecastHorizon is how far ahead the forecast is selected.
const ForecastHorizon = 24 * time.Hour

// ExtractForecast selects the forecast entry for now+ForecastHorizon and reads
// it. When the payload has no usable forecast list the defaults are returned:
// 0 for numbers and UnknownCondition.
//
// A day-granularity list wins: its second entry (tomorrow), else its first. Otherwise
// the first time-series list is searched for the entry closest to the target
// time; ties go to the earlier entry and entries without a timestamp are skipped.
// If no entry has a timestamp the first one is used.
func ExtractForecast(p Payload, now time.Time) *itinerary.ForecastWeather {
	entry, ok := selectForecast(p, now.Add(ForecastHorizon))
	if !ok {
		entry = Payload{}
	}
	f := extractForecast(entry)
	return &f
}

func selectForecast(p Payload, target time.Time) (Payload, bool) {
	for _, path := range dayLists {
		days, ok := p.List(path)
		if !ok {
			continue
		}
		if len(days) > 1 {
			if entry, ok := days[1].(map[string]any); ok {
				return entry, true
			}
		}
		if entry, ok := days[0].(map[string]any); ok {
			return entry, true
		}
	}

	for _, path := range seriesLists {
		series, ok := p.List(path)
		if !ok {
			continue
		}
		if entry, ok := closest(series, target); ok {
			return entry, true
		}
	}

	return nil, false
}

// closest returns the entry whose timestamp is nearest to target.
func closest(series []any, target time.Time) (Payload, bool) {
	var (
		best     Payload
		bestDiff time.Duration
		found    bool
		first    Payload
	)

	for _, item := range series {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := Payload(m)
		if first == nil {
			first = entry
		}

		ts, ok := timestamp(entry)
		if !ok {
			continue
		}
		diff := ts.Sub(target).Abs()
		if !found || diff < bestDiff {
			best, bestDiff, found = entry, diff, true
		}
	}

	if found {
		return best, true
	}
	return first, first != nil
}

func timestamp(entry Payload) (time.Time, bool) {
	for _, path := range timestampPaths {
		v, ok := entry.Lookup(path)
		if !ok {
			continue
		}
		if n, ok := toNumber(v); ok && n > 0 {
			return time.Unix(int64(n), 0), true
		}
		if s, ok := v.(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
