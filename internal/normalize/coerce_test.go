package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float", 42.5, 42.5, true},
		{"int", 7, 7, true},
		{"string", "12.5", 12.5, true},
		{"percent sign", "85%", 85, true},
		{"comma decimal", "12,5", 12.5, true},
		{"leading plus", "+3", 3, true},
		{"spaces", "1 200", 1200, true},
		{"empty string", "", 0, false},
		{"garbage", "abc", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceNumber(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCoercePercent(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"ratio", 0.42, 42},
		{"whole percent", 42.0, 42},
		{"integral one stays one", 1.0, 1},
		{"fractional string", "0.85", 85},
		{"percent string", "85%", 85},
		{"clamp high", 250.0, 100},
		{"clamp negative", -3.0, 0},
		{"unusable", "n/a", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CoercePercent(tt.in))
		})
	}
}

func TestCoerceDate(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		got := CoerceDate("2026-02-10T08:30:00Z")
		require.NotNil(t, got)
		require.Equal(t, time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC), got.UTC())
	})

	t.Run("date only", func(t *testing.T) {
		got := CoerceDate("2026-02-10")
		require.NotNil(t, got)
		require.Equal(t, 2026, got.Year())
	})

	t.Run("epoch seconds", func(t *testing.T) {
		got := CoerceDate(float64(1_700_000_000))
		require.NotNil(t, got)
		require.Equal(t, int64(1_700_000_000), got.Unix())
	})

	t.Run("epoch milliseconds", func(t *testing.T) {
		got := CoerceDate(float64(1_700_000_000_000))
		require.NotNil(t, got)
		require.Equal(t, int64(1_700_000_000), got.Unix())
	})

	t.Run("invalid yields nil", func(t *testing.T) {
		require.Nil(t, CoerceDate("pas une date"))
		require.Nil(t, CoerceDate(""))
		require.Nil(t, CoerceDate(nil))
		require.Nil(t, CoerceDate(float64(0)))
		require.Nil(t, CoerceDate(float64(-5)))
	})

	t.Run("zero time yields nil", func(t *testing.T) {
		require.Nil(t, CoerceDate(time.Time{}))
	})
}

func TestCoerceRetryAfter(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want time.Duration
	}{
		{"seconds", 30, 30 * time.Second},
		{"seconds string", "60", 60 * time.Second},
		{"milliseconds", 5000, 5 * time.Second},
		{"epoch seconds", float64(now.Add(45 * time.Second).Unix()), 45 * time.Second},
		{"epoch milliseconds", float64(now.Add(45 * time.Second).UnixMilli()), 45 * time.Second},
		{"past epoch clamps to zero", float64(now.Add(-time.Hour).Unix()), 0},
		{"zero", 0, 0},
		{"negative", -10, 0},
		{"garbage", "soon", 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CoerceRetryAfter(tt.in, now))
		})
	}
}
