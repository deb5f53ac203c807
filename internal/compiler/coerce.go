package compiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/roach88/jsonfilter/internal/filtererr"
	"github.com/roach88/jsonfilter/internal/ir"
	"github.com/roach88/jsonfilter/internal/metadata"
	"github.com/roach88/jsonfilter/internal/resolve"
)

// numericText returns the decimal text of a number literal or a numeric
// string literal.
func numericText(v ir.IRValue) (string, bool) {
	switch val := v.(type) {
	case ir.IRNumber:
		return string(val), true
	case ir.IRString:
		s := strings.TrimSpace(string(val))
		return s, s != ""
	}
	return "", false
}

// integer parses s as an integer of the given bit size. Integral values in
// exponent or fractional notation ("1e3", "42.0") are accepted.
func integer(s string, bits int) (int64, bool) {
	if n, err := strconv.ParseInt(s, 10, bits); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	limit := math.Ldexp(1, bits-1)
	if f < -limit || f >= limit {
		return 0, false
	}
	return int64(f), true
}

// coerceNumeric converts a literal to the exact storage width of a Numeric
// property.
func coerceNumeric(op string, desc resolve.Descriptor, v ir.IRValue) (any, error) {
	s, ok := numericText(v)
	if !ok {
		return nil, mismatchLiteral(op, desc, v)
	}

	switch desc.Property.Numeric {
	case metadata.NumericInt32:
		n, ok := integer(s, 32)
		if !ok {
			return nil, filtererr.Mismatch(op, desc.RawPath, "%s is not a 32-bit integer", s)
		}
		return int32(n), nil
	case metadata.NumericInt64:
		n, ok := integer(s, 64)
		if !ok {
			return nil, filtererr.Mismatch(op, desc.RawPath, "%s is not a 64-bit integer", s)
		}
		return n, nil
	case metadata.NumericFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, filtererr.Mismatch(op, desc.RawPath, "%s is not a float", s)
		}
		return float32(f), nil
	case metadata.NumericDecimal:
		d, _, err := apd.NewFromString(s)
		if err != nil {
			return nil, filtererr.Mismatch(op, desc.RawPath, "%s is not a decimal", s)
		}
		return d, nil
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, filtererr.Mismatch(op, desc.RawPath, "%s is not a number", s)
		}
		return f, nil
	}
}

// coerceBool accepts true/false, their string forms and the numbers 0 and 1.
func coerceBool(op string, desc resolve.Descriptor, v ir.IRValue) (bool, error) {
	switch val := v.(type) {
	case ir.IRBool:
		return bool(val), nil
	case ir.IRString:
		b, err := strconv.ParseBool(strings.TrimSpace(string(val)))
		if err == nil {
			return b, nil
		}
	case ir.IRNumber:
		switch string(val) {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
	}
	return false, mismatchLiteral(op, desc, v)
}

// coerceCode converts a literal to a reference list item code or flag.
func coerceCode(op string, desc resolve.Descriptor, v ir.IRValue) (int64, error) {
	s, ok := numericText(v)
	if !ok {
		return 0, mismatchLiteral(op, desc, v)
	}
	n, ok := integer(s, 64)
	if !ok {
		return 0, filtererr.Mismatch(op, desc.RawPath, "%s is not a reference list code", s)
	}
	return n, nil
}

// coerceText converts a literal to a string. Numbers keep their source text.
func coerceText(op string, desc resolve.Descriptor, v ir.IRValue) (string, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRNumber:
		return string(val), nil
	}
	return "", mismatchLiteral(op, desc, v)
}

// coerceID parses a literal into the id kind of the referenced entity.
func coerceID(op string, desc resolve.Descriptor, v ir.IRValue) (any, error) {
	switch desc.Property.IDKind {
	case metadata.IDInt64:
		s, ok := numericText(v)
		if !ok {
			return nil, mismatchLiteral(op, desc, v)
		}
		n, ok := integer(s, 64)
		if !ok {
			return nil, filtererr.Mismatch(op, desc.RawPath, "%s is not a 64-bit id", s)
		}
		return n, nil
	case metadata.IDString:
		return coerceText(op, desc, v)
	default:
		s, ok := v.(ir.IRString)
		if !ok {
			return nil, mismatchLiteral(op, desc, v)
		}
		id, err := uuid.Parse(strings.TrimSpace(string(s)))
		if err != nil {
			return nil, &filtererr.Error{
				Code:    filtererr.CodeTypeMismatch,
				Message: "id is not a guid",
				Path:    desc.RawPath,
				Op:      op,
				Err:     err,
			}
		}
		return id, nil
	}
}

func mismatchLiteral(op string, desc resolve.Descriptor, v ir.IRValue) error {
	return filtererr.Mismatch(op, desc.RawPath, "%s literal %s cannot be compared with %s property", ir.TypeName(v), ir.Format(v), desc.Type())
}
