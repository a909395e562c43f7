package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidInterval = errors.New("invalid interval: start must be before end")

// TimeOfDay is a wall-clock time expressed as minutes since midnight, [0, 1440).
type TimeOfDay int

const MinutesPerDay = 1440

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay(hour*60 + minute), nil
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Interval is a half-open [Start, End) span within a single day.
type Interval struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

func NewInterval(start, end TimeOfDay) (Interval, error) {
	if !start.Valid() || end < 0 || end > MinutesPerDay || start >= end {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

func (iv Interval) Validate() error {
	if !iv.Start.Valid() || iv.End < 0 || iv.End > MinutesPerDay || iv.Start >= iv.End {
		return ErrInvalidInterval
	}
	return nil
}

func (iv Interval) Minutes() int {
	return int(iv.End - iv.Start)
}

// Overlaps reports whether the two half-open intervals share any time.
// Touching endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

func (iv Interval) Contains(inner Interval) bool {
	return iv.Start <= inner.Start && inner.End <= iv.End
}

func (iv Interval) String() string {
	return iv.Start.String() + "-" + iv.End.String()
}
