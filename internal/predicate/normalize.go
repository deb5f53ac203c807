package predicate

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	goreflect "github.com/goccy/go-reflect"
	"github.com/google/uuid"

	"github.com/roach88/jsonfilter/internal/temporal"
)

var timeType = goreflect.TypeOf(time.Time{})

// Record values arrive in whatever shape the caller stored them: decoded
// JSON (float64, json.Number, string), typed structs, or named integer
// types. The as* helpers bring them to the representation of the compiled
// literal. ok is false when a value cannot be read as that type, and the
// comparison then evaluates like a comparison with null.

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	case json.Number:
		return s.String(), true
	}
	r := goreflect.ValueNoEscapeOf(v)
	if r.Kind() == reflect.String {
		return r.String(), true
	}
	return "", false
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.Abs(n) >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return asInt64(f)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}

	r := goreflect.ValueNoEscapeOf(v)
	switch r.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return r.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := r.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		return asInt64(r.Float())
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case *apd.Decimal:
		f, err := n.Float64()
		return f, err == nil
	case apd.Decimal:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	r := goreflect.ValueNoEscapeOf(v)
	if k := r.Kind(); k == reflect.Float32 || k == reflect.Float64 {
		return r.Float(), true
	}
	return 0, false
}

func asDecimal(v any) (*apd.Decimal, bool) {
	switch n := v.(type) {
	case *apd.Decimal:
		return n, n != nil
	case apd.Decimal:
		return &n, true
	case json.Number:
		d, _, err := apd.NewFromString(n.String())
		return d, err == nil
	case string:
		d, _, err := apd.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case float64:
		d := new(apd.Decimal)
		if _, err := d.SetFloat64(n); err != nil {
			return nil, false
		}
		return d, true
	case float32:
		// Use the shortest decimal text of the float32 value.
		d, _, err := apd.NewFromString(strconv.FormatFloat(float64(n), 'g', -1, 32))
		return d, err == nil
	}
	if i, ok := asInt64(v); ok {
		return apd.New(i, 0), true
	}
	return nil, false
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	}
	if i, ok := asInt64(v); ok && (i == 0 || i == 1) {
		return i == 1, true
	}
	return false, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		return temporal.ParseDateTime(t)
	}
	return time.Time{}, false
}

// asDate reads a Date value as its wall clock, so the calendar day is the
// one the record was written in.
func asDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return temporal.WallClock(t), true
	case string:
		return temporal.ParseWallClock(t)
	}
	return time.Time{}, false
}

func asTimeOfDay(v any) (time.Duration, bool) {
	switch t := v.(type) {
	case time.Duration:
		return t, true
	case time.Time:
		return temporal.SinceMidnight(t), true
	case string:
		return temporal.ParseTimeOfDay(t)
	}
	return 0, false
}

func asUUID(v any) (uuid.UUID, bool) {
	switch id := v.(type) {
	case uuid.UUID:
		return id, true
	case [16]byte:
		return uuid.UUID(id), true
	case []byte:
		parsed, err := uuid.FromBytes(id)
		return parsed, err == nil
	case string:
		parsed, err := uuid.Parse(strings.TrimSpace(id))
		return parsed, err == nil
	}
	return uuid.UUID{}, false
}
