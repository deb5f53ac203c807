package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IRValue is a sealed interface representing literal values in a filter.
// Only IRNull, IRString, IRNumber, IRBool and IRArray implement this.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents a JSON null literal.
type IRNull struct{}

func (IRNull) irValue() {}

// IRString represents a string literal.
type IRString string

func (IRString) irValue() {}

// IRNumber represents a numeric literal as its decimal source text.
type IRNumber string

func (IRNumber) irValue() {}

// Int64 parses the number as a base-10 int64.
func (n IRNumber) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Float64 parses the number as a float64.
func (n IRNumber) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// IRBool represents a boolean literal.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an array literal.
type IRArray []IRValue

func (IRArray) irValue() {}

// NewIRNumber creates an IRNumber from an int64.
func NewIRNumber(n int64) IRNumber {
	return IRNumber(strconv.FormatInt(n, 10))
}

// Decode parses a single JSON value into an IRValue.
// Trailing data after the value is an error.
func Decode(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return FromAny(raw)
}

// FromAny converts a decoded Go value to an IRValue.
//
// Accepts the output of encoding/json with UseNumber, plus the plain numeric
// types produced by YAML decoders. Maps are rejected.
func FromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(norm.NFC.String(val)), nil
	case json.Number:
		return IRNumber(val.String()), nil
	case int:
		return IRNumber(strconv.Itoa(val)), nil
	case int32:
		return IRNumber(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return IRNumber(strconv.FormatInt(val, 10)), nil
	case uint64:
		return IRNumber(strconv.FormatUint(val, 10)), nil
	case float32:
		return IRNumber(strconv.FormatFloat(float64(val), 'f', -1, 32)), nil
	case float64:
		return IRNumber(strconv.FormatFloat(val, 'f', -1, 64)), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		return nil, fmt.Errorf("object is not a literal value")
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}

// Format renders a value the way it would appear in JSON.
func Format(v IRValue) string {
	switch val := v.(type) {
	case IRNull:
		return "null"
	case IRString:
		return strconv.Quote(string(val))
	case IRNumber:
		return string(val)
	case IRBool:
		return strconv.FormatBool(bool(val))
	case IRArray:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Format(elem)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// TypeName returns a short name of the literal's JSON type for diagnostics.
func TypeName(v IRValue) string {
	switch v.(type) {
	case IRNull:
		return "null"
	case IRString:
		return "string"
	case IRNumber:
		return "number"
	case IRBool:
		return "boolean"
	case IRArray:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
