package gacha

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidProb   = errors.New("invalid probability p; must be 0..1")
	ErrConfiguration = errors.New("configuration error")
	ErrParse         = errors.New("parse error")
	ErrDuplicateCase = errors.New("simulation case already registered")
)

// ConfigurationError marks a catalog/probability combination the engine cannot
// roll or measure, e.g. an empty tier that can still win.
type ConfigurationError struct {
	Tier   Tier
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: tier %s: %s", e.Tier, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ParseError reports an input row that could not be understood.
type ParseError struct {
	Source string // file name or "<reader>"
	Row    int    // 1-based, header is row 1
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s:%d: %s %q", e.Source, e.Row, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s: %s %q", e.Source, e.Reason, e.Value)
}

func (e *ParseError) Unwrap() error { return ErrParse }
