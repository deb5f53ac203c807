package compiler

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jsonfilter/internal/predicate"
	"github.com/roach88/jsonfilter/internal/queryir"
	"github.com/roach88/jsonfilter/internal/querytext"
)

// sampleFilters covers every general type and every logical shape.
var sampleFilters = []string{
	`{"var":"FirstName"}`,
	`{"!":{"var":"FirstName"}}`,
	`{"==":[{"var":"FirstName"},"Bob"]}`,
	`{"in":["ob",{"var":"FirstName"}]}`,
	`{"startsWith":[{"var":"LastName"},"Sm"]}`,
	`{"endsWith":[{"var":"LastName"},"th"]}`,
	`{"in":[{"var":"FirstName"},["Bob","Ann"]]}`,
	`{">":[{"var":"Age"},30]}`,
	`{"<=":[18,{"var":"Age"},65]}`,
	`{"==":[{"var":"Salary"},"1000.50"]}`,
	`{"==":[{"var":"IsLocked"},true]}`,
	`{"in":[{"var":"Status"},[1,3]]}`,
	`{"in":[{"var":"Permissions"},6]}`,
	`{"==":[{"var":"AreaLevel1"},"852c4011-4e94-463a-9e0d-b0054ab88f7d"]}`,
	`{"==":[{"var":"Organisation"},7]}`,
	`{"==":[{"var":"BirthDate"},"1990-05-17"]}`,
	`{"!=":[{"var":"BirthDate"},"1990-05-17"]}`,
	`{"==":[{"var":"CreationTime"},"2022-08-01T16:46:00Z"]}`,
	`{"<":[{"var":"PreferredContactTime"},"09:00"]}`,
	`{"==":[{"var":"AreaLevel1.Name"},"North"]}`,
	`{"and":[{"==":[{"var":"FirstName"},"Bob"]},{"or":[{">":[{"var":"Age"},40]},{"!":{"var":"LastName"}}]}]}`,
	`{"or":[]}`,
	`{"and":[]}`,
}

// sampleRecords includes records that make every sample a null check.
var sampleRecords = []predicate.MapRecord{
	{},
	{
		"FirstName": "Bob", "LastName": "Smith", "Age": float64(42), "Salary": "1000.5",
		"IsLocked": true, "Status": float64(3), "Permissions": float64(4),
		"AreaLevel1":   map[string]any{"Id": "852c4011-4e94-463a-9e0d-b0054ab88f7d", "Name": "North"},
		"Organisation": map[string]any{"Id": float64(7)},
		"BirthDate":    "1990-05-17T08:00:00Z", "CreationTime": "2022-08-01T16:46:42Z",
		"PreferredContactTime": "08:15",
	},
	{
		"FirstName": "Ann", "LastName": nil, "Age": float64(17), "Salary": float64(20),
		"IsLocked": false, "Status": float64(2), "Permissions": float64(1),
		"AreaLevel1":   nil,
		"Organisation": map[string]any{"Id": float64(8)},
		"BirthDate":    "1990-05-18", "CreationTime": "2022-08-01T16:47:00Z",
		"PreferredContactTime": "09:00",
	},
}

func TestProperty_NegationLaw(t *testing.T) {
	c := newCompiler(t)

	for _, filter := range sampleFilters {
		t.Run(filter, func(t *testing.T) {
			positive := compilePredicate(t, c, filter)
			negative := compilePredicate(t, c, `{"!":`+filter+`}`)
			for i, rec := range sampleRecords {
				assert.Equal(t, !positive(rec), negative(rec), "record %d", i)
			}
		})
	}
}

func TestProperty_EqualityRoundTrip(t *testing.T) {
	c := newCompiler(t)

	tests := []struct {
		path    string
		literal string
		equal   any
		differs any
	}{
		{path: "FirstName", literal: `"Bob"`, equal: "Bob", differs: "Rob"},
		{path: "Age", literal: `42`, equal: float64(42), differs: float64(43)},
		{path: "ExternalNumber", literal: `9007199254740993`, equal: int64(9007199254740993), differs: int64(9007199254740992)},
		{path: "Score", literal: `0.25`, equal: float32(0.25), differs: float32(0.5)},
		{path: "Rating", literal: `4.5`, equal: 4.5, differs: 4.6},
		{path: "Salary", literal: `"10.10"`, equal: "10.1", differs: "10.11"},
		{path: "IsLocked", literal: `false`, equal: false, differs: true},
		{path: "Status", literal: `2`, equal: 2, differs: 3},
		{path: "AreaLevel1", literal: `"852c4011-4e94-463a-9e0d-b0054ab88f7d"`,
			equal:   map[string]any{"Id": "852c4011-4e94-463a-9e0d-b0054ab88f7d"},
			differs: map[string]any{"Id": "952c4011-4e94-463a-9e0d-b0054ab88f7d"}},
		{path: "Organisation", literal: `7`, equal: map[string]any{"Id": 7}, differs: map[string]any{"Id": 8}},
		{path: "Passport", literal: `"X-1"`, equal: map[string]any{"Id": "X-1"}, differs: map[string]any{"Id": "X-2"}},
		{path: "BirthDate", literal: `"1990-05-17"`, equal: "1990-05-17T23:59:59Z", differs: "1990-05-18T00:00:00Z"},
		{path: "CreationTime", literal: `"2022-08-01T16:46:00Z"`, equal: "2022-08-01T16:46:59Z", differs: "2022-08-01T16:47:00Z"},
		{path: "PreferredContactTime", literal: `"09:30"`, equal: "09:30:30", differs: "09:31"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			filter := fmt.Sprintf(`{"==":[{"var":%q},%s]}`, tt.path, tt.literal)
			f := compilePredicate(t, c, filter)
			assert.True(t, f(predicate.MapRecord{tt.path: tt.equal}))
			assert.False(t, f(predicate.MapRecord{tt.path: tt.differs}))
		})
	}
}

func TestProperty_EqualityRoundTripZonedRecords(t *testing.T) {
	c := newCompiler(t)
	plus2 := time.FixedZone("UTC+2", 2*3600)
	plus5 := time.FixedZone("UTC+5", 5*3600)
	minus5 := time.FixedZone("UTC-5", -5*3600)

	tests := []struct {
		name    string
		path    string
		literal string
		equal   any
		differs any
	}{
		{name: "date at zoned midnight", path: "BirthDate", literal: "1990-05-17",
			equal: time.Date(1990, 5, 17, 0, 0, 0, 0, plus5), differs: time.Date(1990, 5, 18, 0, 0, 0, 0, plus5)},
		{name: "date late in a western zone", path: "BirthDate", literal: "1990-05-17T23:30:00-05:00",
			equal: time.Date(1990, 5, 17, 23, 30, 0, 0, minus5), differs: time.Date(1990, 5, 18, 0, 30, 0, 0, minus5)},
		{name: "date from zoned string", path: "BirthDate", literal: "1990-05-17",
			equal: "1990-05-17T22:00:00-05:00", differs: "1990-05-18T01:00:00+09:00"},
		{name: "time of zoned instant", path: "PreferredContactTime", literal: "2022-08-01T16:46:00+02:00",
			equal: time.Date(2022, 8, 1, 16, 46, 0, 0, plus2), differs: time.Date(2022, 8, 1, 16, 46, 0, 0, time.UTC)},
		{name: "time of same instant in UTC", path: "PreferredContactTime", literal: "2022-08-01T16:46:00+02:00",
			equal: time.Date(2022, 8, 1, 14, 46, 30, 0, time.UTC), differs: time.Date(2022, 8, 1, 14, 47, 0, 0, time.UTC)},
		{name: "date-time instant", path: "CreationTime", literal: "2022-08-01T18:46:00+02:00",
			equal: time.Date(2022, 8, 1, 16, 46, 0, 0, time.UTC), differs: time.Date(2022, 8, 1, 16, 46, 0, 0, plus2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := fmt.Sprintf(`{"==":[{"var":%q},%q]}`, tt.path, tt.literal)
			f := compilePredicate(t, c, filter)
			assert.True(t, f(predicate.MapRecord{tt.path: tt.equal}))
			assert.False(t, f(predicate.MapRecord{tt.path: tt.differs}))
		})
	}
}

func TestProperty_DateIgnoresTimeOfDay(t *testing.T) {
	c := newCompiler(t)

	midnight := build(t, c, `{"==":[{"var":"BirthDate"},"1990-05-17"]}`)
	for _, literal := range []string{
		"1990-05-17T00:00:01Z",
		"1990-05-17T13:45:00Z",
		"1990-05-17 23:59:59.999",
		"1990-05-17T00:00:00-05:00",
		"1990-05-17T23:30:00-05:00",
		"1990-05-17T02:00:00+09:00",
	} {
		withTime := build(t, c, fmt.Sprintf(`{"==":[{"var":"BirthDate"},%q]}`, literal))
		assert.Equal(t, midnight.Tree, withTime.Tree, literal)
	}
}

func TestProperty_MinuteGranularity(t *testing.T) {
	c := newCompiler(t)

	for _, path := range []string{"CreationTime", "PreferredContactTime"} {
		for _, op := range []string{"==", "!=", "<", "<=", ">", ">="} {
			base := "2022-08-01T16:46:00Z"
			drift := "2022-08-01T16:46:59.999Z"
			if path == "PreferredContactTime" {
				base, drift = "16:46", "16:46:59.999"
			}
			a := build(t, c, fmt.Sprintf(`{%q:[{"var":%q},%q]}`, op, path, base))
			b := build(t, c, fmt.Sprintf(`{%q:[{"var":%q},%q]}`, op, path, drift))
			assert.Equal(t, a.Tree, b.Tree, "%s %s", path, op)
		}
	}
}

func TestProperty_MembershipExpansion(t *testing.T) {
	c := newCompiler(t)

	for n := 1; n <= 5; n++ {
		codes := make([]string, n)
		for i := range codes {
			codes[i] = fmt.Sprint(n - i)
		}
		built := build(t, c, fmt.Sprintf(`{"in":[{"var":"Status"},[%s]]}`, strings.Join(codes, ",")))

		or, ok := built.Tree.(queryir.Or)
		require.True(t, ok)
		require.Len(t, or.Nodes, n)
		for i, node := range or.Nodes {
			cmp, ok := node.(queryir.Comparison)
			require.True(t, ok)
			assert.Equal(t, queryir.OpEq, cmp.Op)
			assert.Equal(t, int64(n-i), cmp.Value)
		}
	}
}

func TestProperty_PlaceholderArity(t *testing.T) {
	c := newCompiler(t)

	for _, filter := range sampleFilters {
		t.Run(filter, func(t *testing.T) {
			built := build(t, c, filter)
			q := compileQuery(t, c, filter)

			require.Len(t, q.Params, queryir.CountValues(built.Tree))
			last := -1
			for i, p := range q.Params {
				assert.Equal(t, fmt.Sprintf("%s%d", querytext.ParamPrefix, i+1), p.Name)
				idx := strings.Index(q.Text, ":"+p.Name+" ")
				if idx < 0 {
					idx = strings.Index(q.Text, ":"+p.Name+")")
				}
				require.GreaterOrEqual(t, idx, 0, "placeholder %s missing from %s", p.Name, q.Text)
				assert.Greater(t, idx, last, "placeholders out of order in %s", q.Text)
				last = idx
			}
		})
	}
}

func TestProperty_FailClosedOnUnmappedPath(t *testing.T) {
	c := newCompiler(t)

	for _, filter := range []string{
		`{"or":[{"==":[{"var":"FirstName"},"Bob"]},{"==":[{"var":"Ghost"},1]}]}`,
		`{"!":{"var":"Ghost"}}`,
		`{"and":[{"!":{"!":{"in":["x",{"var":"Ghost.Name"}]}}}]}`,
	} {
		for _, mode := range []Mode{ModePredicate, ModeQueryText} {
			out, err := c.Compile(Request{RootType: "Person", Filter: []byte(filter)}, mode)
			require.Error(t, err)
			assert.Nil(t, out)
		}
	}
}
