// Package slotlog reads exported bot chat logs, turns roll-result messages
// into typed events, and estimates per-tier win probabilities from them.
package slotlog

import (
	"errors"
	"fmt"
	"time"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

// TimeLayout is the timestamp format of the log and of the results table.
const TimeLayout = "2006-01-02T15:04:05"

var (
	ErrMalformedRecord   = errors.New("malformed record")
	ErrEmptyDataset      = errors.New("empty dataset: no events in range")
	ErrDivisionUndefined = errors.New("division undefined")
)

// TierResult is what one tier showed in a roll message.
type TierResult struct {
	Item        string // won item, empty when nothing was won
	Intercepted bool   // the win was stolen; no item
}

func (r TierResult) Won() bool { return r.Item != "" }

// Event is one parsed roll message.
type Event struct {
	Index   int // position of the message in the log
	Time    time.Time
	Results [gacha.NumTiers]TierResult
}

// MalformedRecordError rejects a single roll message.
type MalformedRecordError struct {
	Index  int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("message %d: %s", e.Index, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// ParseTime reads the first 19 characters of a log timestamp; fractional
// seconds and zone suffixes are ignored and the result is UTC.
func ParseTime(s string) (time.Time, error) {
	if len(s) < len(TimeLayout) {
		return time.Time{}, fmt.Errorf("timestamp %q too short", s)
	}
	return time.Parse(TimeLayout, s[:len(TimeLayout)])
}

// ParseBound accepts "YYYY-MM-DD" or "YYYY-MM-DDTHH:MM:SS" for range flags.
// Empty input is an open bound.
func ParseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or %s", s, TimeLayout)
	}
	return t, nil
}
