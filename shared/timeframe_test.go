package shared

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestNewYorkTime(t *testing.T) {
	// Ensure new york locale times can be created.
	now, loc, err := NewYorkTime()
	assert.NoError(t, err)
	assert.Equal(t, now.Location().String(), "America/New_York")
	assert.Equal(t, now.Location().String(), loc.String())
}

func TestTimeframeString(t *testing.T) {
	tests := []struct {
		name      string
		timeframe Timeframe
		want      string
		duration  time.Duration
	}{
		{"One Minute", OneMinute, "1m", time.Minute},
		{"Five Minute", FiveMinute, "5m", time.Minute * 5},
		{"Fifteen Minute", FifteenMinute, "15m", time.Minute * 15},
		{"Thirty Minute", ThirtyMinute, "30m", time.Minute * 30},
		{"One Hour", OneHour, "1H", time.Hour},
		{"Four Hour", FourHour, "4H", time.Hour * 4},
		{"unknown", Timeframe(999), "unknown", 0},
	}

	for _, test := range tests {
		str := test.timeframe.String()
		if str != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, str)
		}
		if test.timeframe.Duration() != test.duration {
			t.Errorf("%s: expected duration %v, got %v", test.name, test.duration, test.timeframe.Duration())
		}
	}
}

func TestParseTimeframe(t *testing.T) {
	// Ensure timeframe strings round trip.
	for _, tf := range []Timeframe{OneMinute, FiveMinute, FifteenMinute, ThirtyMinute, OneHour, FourHour} {
		parsed, err := ParseTimeframe(tf.String())
		assert.NoError(t, err)
		assert.Equal(t, parsed, tf)
	}

	// Ensure lowercase hour timeframes are accepted.
	parsed, err := ParseTimeframe("1h")
	assert.NoError(t, err)
	assert.Equal(t, parsed, OneHour)

	// Ensure unknown timeframes error.
	_, err = ParseTimeframe("1w")
	assert.Error(t, err)
}

func TestDirectionString(t *testing.T) {
	tests := []struct {
		name      string
		direction Direction
		want      string
	}{
		{"long", Long, "long"},
		{"short", Short, "short"},
		{"unknown", Direction(999), "unknown"},
	}

	for _, test := range tests {
		str := test.direction.String()
		if str != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, str)
		}
	}

	assert.Equal(t, Long.Opposite(), Short)
	assert.Equal(t, Short.Opposite(), Long)
}
