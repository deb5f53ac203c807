package compiler

import (
	"time"

	"github.com/roach88/jsonfilter/internal/ir"
	"github.com/roach88/jsonfilter/internal/metadata"
	"github.com/roach88/jsonfilter/internal/resolve"
	"github.com/roach88/jsonfilter/internal/temporal"
)

// Ceiling offsets. The upper bound of a window is its last millisecond.
const (
	endOfDay    = 24*time.Hour - time.Millisecond
	endOfMinute = time.Minute - time.Millisecond
)

// window is the inclusive range a temporal literal stands for.
type window struct {
	floor any
	ceil  any
}

// temporalWindow parses v for a Date, Time or DateTime property and widens it
// to the property's granularity: a whole day for Date, a whole minute
// otherwise.
func temporalWindow(op string, desc resolve.Descriptor, v ir.IRValue) (window, error) {
	s, ok := v.(ir.IRString)
	if !ok {
		return window{}, mismatchLiteral(op, desc, v)
	}

	switch desc.Type() {
	case metadata.TypeTime:
		d, ok := temporal.ParseTimeOfDay(string(s))
		if !ok {
			return window{}, mismatchLiteral(op, desc, v)
		}
		floor := d.Truncate(time.Minute)
		return window{floor: floor, ceil: floor + endOfMinute}, nil
	case metadata.TypeDate:
		floor, ok := temporal.ParseDate(string(s))
		if !ok {
			return window{}, mismatchLiteral(op, desc, v)
		}
		return window{floor: floor, ceil: floor.Add(endOfDay)}, nil
	default:
		t, ok := temporal.ParseDateTime(string(s))
		if !ok {
			return window{}, mismatchLiteral(op, desc, v)
		}
		floor := t.Truncate(time.Minute)
		return window{floor: floor, ceil: floor.Add(endOfMinute)}, nil
	}
}
