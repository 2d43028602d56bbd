package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// epochMillisThreshold splits epoch seconds from epoch milliseconds: anything
// above it is treated as milliseconds.
const epochMillisThreshold = 10_000_000_000

// CoerceNumber coerces a JSON value to a float64. Strings are stripped of
// '%', '+', whitespace and non-breaking spaces, and a comma decimal separator
// is accepted. The second return value reports whether a number was found.
func CoerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, true
		}
		return 0, false
	case string:
		s := strings.NewReplacer("%", "", "+", "", " ", "", " ", "", "\t", "").Replace(t)
		s = strings.ReplaceAll(s, ",", ".")
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		return 0, false
	}
	return 0, false
}

// CoercePercent coerces a value to a percentage in [0, 100]. Fractional values
// with absolute magnitude at most 1 are interpreted as ratios and multiplied
// by 100, so 0.42 and 42 both mean 42%. Integral values pass through: 1 means
// 1%, not 100%.
func CoercePercent(v any) float64 {
	n, ok := CoerceNumber(v)
	if !ok {
		return 0
	}
	if math.Abs(n) <= 1 && n != math.Trunc(n) {
		n *= 100
	}
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// CoerceDate coerces a value to a time. Accepted inputs: epoch seconds, epoch
// milliseconds (split at 10,000,000,000), RFC 3339 strings, date-only strings,
// and time.Time. Anything else, including non-positive epochs, yields nil,
// never a zero time.
func CoerceDate(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		return t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, s); err == nil {
				return &parsed
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return epochToTime(n)
		}
		return nil
	default:
		if n, ok := CoerceNumber(v); ok {
			return epochToTime(n)
		}
	}
	return nil
}

func epochToTime(n float64) *time.Time {
	if n <= 0 {
		return nil
	}
	var parsed time.Time
	if n > epochMillisThreshold {
		parsed = time.UnixMilli(int64(n)).UTC()
	} else {
		parsed = time.Unix(int64(n), 0).UTC()
	}
	return &parsed
}

// CoerceRetryAfter derives a wait duration from a retryAfter value that may be
// seconds, milliseconds, or an absolute epoch, disambiguated by magnitude:
// values above 1e11 are an epoch in milliseconds, above 1e9 an epoch in
// seconds, at least 1000 a duration in milliseconds, and anything smaller a
// duration in seconds. Unusable values yield 0.
func CoerceRetryAfter(v any, now time.Time) time.Duration {
	n, ok := CoerceNumber(v)
	if !ok || n <= 0 {
		return 0
	}

	var d time.Duration
	switch {
	case n > 100_000_000_000:
		d = time.UnixMilli(int64(n)).Sub(now)
	case n > 1_000_000_000:
		d = time.Unix(int64(n), 0).Sub(now)
	case n >= 1000:
		d = time.Duration(n) * time.Millisecond
	default:
		d = time.Duration(n * float64(time.Second))
	}
	if d < 0 {
		return 0
	}
	return d
}
