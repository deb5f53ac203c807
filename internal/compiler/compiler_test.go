package compiler

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jsonfilter/internal/filtererr"
	"github.com/roach88/jsonfilter/internal/metadata"
	"github.com/roach88/jsonfilter/internal/predicate"
	"github.com/roach88/jsonfilter/internal/queryir"
	"github.com/roach88/jsonfilter/internal/querytext"
	"github.com/roach88/jsonfilter/internal/resolve"
	"github.com/roach88/jsonfilter/internal/testutil"
)

func newCompiler(t *testing.T) *Compiler {
	t.Helper()
	catalog := testutil.Catalog(t)
	return New(catalog, catalog, Options{})
}

func build(t *testing.T, c *Compiler, filter string) Built {
	t.Helper()
	built, err := c.Build(Request{RootType: "Person", Filter: []byte(filter)})
	require.NoError(t, err)
	return built
}

func compileQuery(t *testing.T, c *Compiler, filter string) querytext.Query {
	t.Helper()
	out, err := c.Compile(Request{RootType: "Person", Filter: []byte(filter)}, ModeQueryText)
	require.NoError(t, err)
	return out.Query
}

func compilePredicate(t *testing.T, c *Compiler, filter string) predicate.Func {
	t.Helper()
	out, err := c.Compile(Request{RootType: "Person", Filter: []byte(filter)}, ModePredicate)
	require.NoError(t, err)
	require.NotNil(t, out.Predicate)
	return out.Predicate
}

func TestCompile_Scenarios(t *testing.T) {
	c := newCompiler(t)

	tests := []struct {
		name       string
		filter     string
		wantText   string
		wantParams []any
		wantInline string
	}{
		{
			name:       "equality in and",
			filter:     `{"and":[{"==":[{"var":"FirstName"},"Bob"]}]}`,
			wantText:   "(ent.FirstName = :par1)",
			wantParams: []any{"Bob"},
		},
		{
			name:       "substring in",
			filter:     `{"and":[{"in":["trick",{"var":"FirstName"}]}]}`,
			wantText:   "(ent.FirstName like '%' + :par1 + '%')",
			wantParams: []any{"trick"},
		},
		{
			name:       "negated var",
			filter:     `{"and":[{"!":{"var":"FirstName"}}]}`,
			wantText:   "(ent.FirstName is null)",
			wantParams: []any{},
		},
		{
			name:     "datetime range",
			filter:   `{"<=":["2022-08-01T16:46:00Z",{"var":"CreationTime"},"2022-08-04T16:47:00Z"]}`,
			wantText: "(ent.CreationTime >= :par1) and (ent.CreationTime <= :par2)",
			wantInline: "(ent.CreationTime >= '2022-08-01 16:46:00.000') and " +
				"(ent.CreationTime <= '2022-08-04 16:47:59.999')",
		},
		{
			name:       "boolean",
			filter:     `{"==":[{"var":"IsLocked"},true]}`,
			wantText:   "(ent.IsLocked = :par1)",
			wantParams: []any{true},
			wantInline: "(ent.IsLocked = 1)",
		},
		{
			name:       "guid entity reference",
			filter:     `{"==":[{"var":"AreaLevel1"},"852c4011-4e94-463a-9e0d-b0054ab88f7d"]}`,
			wantText:   "(ent.AreaLevel1.Id = :par1)",
			wantParams: []any{uuid.MustParse("852c4011-4e94-463a-9e0d-b0054ab88f7d")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := compileQuery(t, c, tt.filter)
			assert.Equal(t, tt.wantText, q.Text)
			if tt.wantParams != nil {
				assert.Equal(t, tt.wantParams, q.Values())
			}
			if tt.wantInline != "" {
				assert.Equal(t, tt.wantInline, q.Inline())
			}
		})
	}
}

func TestCompile_ScenarioPredicates(t *testing.T) {
	c := newCompiler(t)

	bob := compilePredicate(t, c, `{"and":[{"==":[{"var":"FirstName"},"Bob"]}]}`)
	assert.True(t, bob(predicate.MapRecord{"FirstName": "Bob"}))
	assert.False(t, bob(predicate.MapRecord{"FirstName": "Bobby"}))
	assert.False(t, bob(predicate.MapRecord{}))

	between := compilePredicate(t, c, `{"<=":["2022-08-01T16:46:00Z",{"var":"CreationTime"},"2022-08-04T16:47:00Z"]}`)
	assert.True(t, between(predicate.MapRecord{"CreationTime": "2022-08-04T16:47:59.5Z"}))
	assert.True(t, between(predicate.MapRecord{"CreationTime": "2022-08-01T16:46:00Z"}))
	assert.False(t, between(predicate.MapRecord{"CreationTime": "2022-08-04T16:48:00Z"}))
	assert.False(t, between(predicate.MapRecord{"CreationTime": "2022-08-01T16:45:59Z"}))

	area := compilePredicate(t, c, `{"==":[{"var":"AreaLevel1"},"852c4011-4e94-463a-9e0d-b0054ab88f7d"]}`)
	assert.True(t, area(predicate.MapRecord{"AreaLevel1": map[string]any{"Id": "852C4011-4E94-463A-9E0D-B0054AB88F7D"}}))
	assert.False(t, area(predicate.MapRecord{"AreaLevel1": nil}))
}

func TestBuild_Dispatch(t *testing.T) {
	c := newCompiler(t)

	tests := []struct {
		name   string
		filter string
		want   string
	}{
		// Text
		{name: "text eq", filter: `{"==":[{"var":"FirstName"},"Bob"]}`, want: `eq(FirstName, "Bob")`},
		{name: "text strict eq", filter: `{"===":[{"var":"FirstName"},"Bob"]}`, want: `eq(FirstName, "Bob")`},
		{name: "text ne", filter: `{"!=":[{"var":"FirstName"},"Bob"]}`, want: `ne(FirstName, "Bob")`},
		{name: "literal on the left", filter: `{"==":["Bob",{"var":"FirstName"}]}`, want: `eq(FirstName, "Bob")`},
		{name: "number as text", filter: `{"==":[{"var":"FirstName"},42]}`, want: `eq(FirstName, "42")`},
		{name: "contains", filter: `{"in":["trick",{"var":"FirstName"}]}`, want: `contains(FirstName, "trick")`},
		{name: "text membership", filter: `{"in":[{"var":"FirstName"},["Bob","Ann"]]}`, want: `or(eq(FirstName, "Bob"), eq(FirstName, "Ann"))`},
		{name: "starts with", filter: `{"startsWith":[{"var":"FirstName"},"Bo"]}`, want: `startsWith(FirstName, "Bo")`},
		{name: "ends with", filter: `{"endsWith":[{"var":"LastName"},"son"]}`, want: `endsWith(LastName, "son")`},
		{name: "bare var", filter: `{"var":"FirstName"}`, want: `isNotNull(FirstName)`},
		{name: "not var", filter: `{"!":{"var":"FirstName"}}`, want: `isNull(FirstName)`},
		{name: "not var array form", filter: `{"!":[{"var":"FirstName"}]}`, want: `isNull(FirstName)`},
		{name: "double not var", filter: `{"!!":{"var":"FirstName"}}`, want: `isNotNull(FirstName)`},
		{name: "nested not var", filter: `{"!":{"!":{"var":"FirstName"}}}`, want: `isNotNull(FirstName)`},
		{name: "eq null", filter: `{"==":[{"var":"FirstName"},null]}`, want: `isNull(FirstName)`},
		{name: "ne null", filter: `{"!=":[{"var":"AreaLevel1"},null]}`, want: `isNotNull(AreaLevel1)`},
		{name: "not contains", filter: `{"!":{"in":["x",{"var":"FirstName"}]}}`, want: `notContains(FirstName, "x")`},
		{name: "not eq", filter: `{"!":{"==":[{"var":"FirstName"},"Bob"]}}`, want: `not(eq(FirstName, "Bob"))`},

		// Numeric
		{name: "int32 from string", filter: `{"==":[{"var":"Age"},"42"]}`, want: `eq(Age, 42)`},
		{name: "int32 from integral float", filter: `{">=":[{"var":"Age"},42.0]}`, want: `gte(Age, 42)`},
		{name: "mirrored relational", filter: `{"<":[18,{"var":"Age"}]}`, want: `gt(Age, 18)`},
		{name: "int64 keeps precision", filter: `{"==":[{"var":"ExternalNumber"},9007199254740993]}`, want: `eq(ExternalNumber, 9007199254740993)`},
		{name: "float", filter: `{"==":[{"var":"Score"},0.1]}`, want: `eq(Score, 0.1)`},
		{name: "double", filter: `{"<":[{"var":"Rating"},4.5]}`, want: `lt(Rating, 4.5)`},
		{name: "decimal", filter: `{"==":[{"var":"Salary"},"10.50"]}`, want: `eq(Salary, 10.50)`},
		{name: "numeric membership", filter: `{"in":[{"var":"Age"},[1,2,3]]}`, want: `or(eq(Age, 1), eq(Age, 2), eq(Age, 3))`},
		{name: "empty membership", filter: `{"in":[{"var":"Age"},[]]}`, want: `false`},
		{name: "membership with null", filter: `{"in":[{"var":"Age"},[1,null]]}`, want: `or(eq(Age, 1), isNull(Age))`},

		// Boolean
		{name: "bool", filter: `{"==":[{"var":"IsLocked"},true]}`, want: `eq(IsLocked, true)`},
		{name: "bool from string", filter: `{"!=":[{"var":"IsLocked"},"false"]}`, want: `ne(IsLocked, false)`},
		{name: "bool from number", filter: `{"==":[{"var":"IsLocked"},1]}`, want: `eq(IsLocked, true)`},

		// Category
		{name: "category eq", filter: `{"==":[{"var":"Status"},2]}`, want: `eq(Status, 2)`},
		{name: "category relational", filter: `{">":[{"var":"Status"},1]}`, want: `gt(Status, 1)`},
		{name: "category membership", filter: `{"in":[{"var":"Status"},[3,1]]}`, want: `or(eq(Status, 3), eq(Status, 1))`},
		{name: "category without list lookup", filter: `{"==":[{"var":"Region"},4]}`, want: `eq(Region, 4)`},

		// BitFlagSet
		{name: "flag array", filter: `{"in":[{"var":"Permissions"},[1,4]]}`, want: `or(bitAnyOf(Permissions, 1), bitAnyOf(Permissions, 4))`},
		{name: "flag decomposition", filter: `{"in":[{"var":"Permissions"},5]}`, want: `or(bitAnyOf(Permissions, 1), bitAnyOf(Permissions, 4))`},
		{name: "flag not in list", filter: `{"in":[{"var":"Permissions"},16]}`, want: `bitAnyOf(Permissions, 16)`},

		// EntityReference
		{name: "guid id", filter: `{"==":[{"var":"AreaLevel1"},"852c4011-4e94-463a-9e0d-b0054ab88f7d"]}`, want: `eq(AreaLevel1.Id, 852c4011-4e94-463a-9e0d-b0054ab88f7d)`},
		{name: "int64 id", filter: `{"==":[{"var":"Organisation"},7]}`, want: `eq(Organisation.Id, 7)`},
		{name: "int64 id membership", filter: `{"in":[{"var":"Organisation"},[1,"2"]]}`, want: `or(eq(Organisation.Id, 1), eq(Organisation.Id, 2))`},
		{name: "string id", filter: `{"!=":[{"var":"Passport"},"X-1"]}`, want: `ne(Passport.Id, "X-1")`},
		{name: "hop to text", filter: `{"==":[{"var":"AreaLevel1.Name"},"North"]}`, want: `eq(AreaLevel1.Name, "North")`},
		{name: "hop to reference", filter: `{"==":[{"var":"Organisation.PrimaryArea"},"852c4011-4e94-463a-9e0d-b0054ab88f7d"]}`, want: `eq(Organisation.PrimaryArea.Id, 852c4011-4e94-463a-9e0d-b0054ab88f7d)`},

		// Date
		{name: "date eq", filter: `{"==":[{"var":"BirthDate"},"1990-05-17T13:45:00Z"]}`, want: `and(gte(BirthDate, 1990-05-17 00:00:00.000), lte(BirthDate, 1990-05-17 23:59:59.999))`},
		{name: "date ne", filter: `{"!=":[{"var":"BirthDate"},"1990-05-17"]}`, want: `or(lt(BirthDate, 1990-05-17 00:00:00.000), gt(BirthDate, 1990-05-17 23:59:59.999))`},
		{name: "date lt", filter: `{"<":[{"var":"BirthDate"},"1990-05-17T13:45:00Z"]}`, want: `lt(BirthDate, 1990-05-17 00:00:00.000)`},
		{name: "date lte", filter: `{"<=":[{"var":"BirthDate"},"1990-05-17T13:45:00Z"]}`, want: `lte(BirthDate, 1990-05-17 23:59:59.999)`},
		{name: "date gt", filter: `{">":[{"var":"BirthDate"},"1990-05-17"]}`, want: `gt(BirthDate, 1990-05-17 23:59:59.999)`},
		{name: "date gte", filter: `{">=":[{"var":"BirthDate"},"1990-05-17"]}`, want: `gte(BirthDate, 1990-05-17 00:00:00.000)`},

		// DateTime and Time
		{name: "datetime eq", filter: `{"==":[{"var":"CreationTime"},"2022-08-01T16:46:30.5Z"]}`, want: `and(gte(CreationTime, 2022-08-01 16:46:00.000), lte(CreationTime, 2022-08-01 16:46:59.999))`},
		{name: "datetime offset", filter: `{">=":[{"var":"CreationTime"},"2022-08-01T18:46:30+02:00"]}`, want: `gte(CreationTime, 2022-08-01 16:46:00.000)`},
		{name: "time gt", filter: `{">":[{"var":"PreferredContactTime"},"09:30:45"]}`, want: `gt(PreferredContactTime, 09:30:59.999)`},
		{name: "time eq", filter: `{"==":[{"var":"PreferredContactTime"},"09:30"]}`, want: `and(gte(PreferredContactTime, 09:30:00.000), lte(PreferredContactTime, 09:30:59.999))`},

		// Ranges and logical groups
		{name: "numeric range", filter: `{"<":[1,{"var":"Age"},10]}`, want: `and(gte(Age, 1), lte(Age, 10))`},
		{name: "date range", filter: `{"<=":["2022-01-01",{"var":"BirthDate"},"2022-12-31"]}`, want: `and(gte(BirthDate, 2022-01-01 00:00:00.000), lte(BirthDate, 2022-12-31 23:59:59.999))`},
		{name: "empty and", filter: `{"and":[]}`, want: `true`},
		{name: "empty or", filter: `{"or":[]}`, want: `false`},
		{name: "or keeps order", filter: `{"or":[{"==":[{"var":"LastName"},"B"]},{"==":[{"var":"FirstName"},"A"]}]}`, want: `or(eq(LastName, "B"), eq(FirstName, "A"))`},
		{name: "no filter", filter: ``, want: `true`},
		{name: "null filter", filter: `null`, want: `true`},
		{name: "empty object", filter: `{}`, want: `true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			built := build(t, c, tt.filter)
			assert.Equal(t, tt.want, queryir.Format(built.Tree))
			assert.Empty(t, built.Warnings)
		})
	}
}

func TestBuild_MalformedRangeFallsBack(t *testing.T) {
	c := newCompiler(t)

	built := build(t, c, `{"<=":[{"var":"Age"},30,40]}`)
	assert.Equal(t, `lte(Age, 30)`, queryir.Format(built.Tree))
	require.Len(t, built.Warnings, 1)
	assert.Contains(t, built.Warnings[0], "40")
}

func TestBuild_Aliases(t *testing.T) {
	c := newCompiler(t)

	built, err := c.Build(Request{
		RootType: "Person",
		Filter:   []byte(`{"==":[{"var":"Area"},"North"]}`),
		Aliases:  resolve.AliasMap{"Area": "AreaLevel1.Name"},
	})
	require.NoError(t, err)
	assert.Equal(t, `eq(AreaLevel1.Name, "North")`, queryir.Format(built.Tree))

	catalog := testutil.Catalog(t)
	withDefaults := New(catalog, catalog, Options{Aliases: resolve.AliasMap{"Area": "AreaLevel1.Code"}})
	built, err = withDefaults.Build(Request{RootType: "Person", Filter: []byte(`{"==":[{"var":"Area"},"N"]}`)})
	require.NoError(t, err)
	assert.Equal(t, `eq(AreaLevel1.Code, "N")`, queryir.Format(built.Tree))
}

func TestBuild_Errors(t *testing.T) {
	c := newCompiler(t)

	tests := []struct {
		name   string
		filter string
		check  func(error) bool
	}{
		{name: "invalid json", filter: `{"==":`, check: filtererr.IsParseError},
		{name: "unknown operator", filter: `{"between":[1,2]}`, check: filtererr.IsParseError},
		{name: "unknown property", filter: `{"==":[{"var":"Nickname"},"x"]}`, check: filtererr.IsUnmappedPath},
		{name: "unknown property deep in or", filter: `{"or":[{"==":[{"var":"FirstName"},"x"]},{"and":[{"var":"AreaLevel1.Nickname"}]}]}`, check: filtererr.IsUnmappedPath},
		{name: "hop through text", filter: `{"==":[{"var":"FirstName.Length"},3]}`, check: filtererr.IsUnmappedPath},
		{name: "starts with on numeric", filter: `{"startsWith":[{"var":"Age"},"4"]}`, check: filtererr.IsTypeMismatch},
		{name: "substring on category", filter: `{"in":["x",{"var":"Status"}]}`, check: filtererr.IsTypeMismatch},
		{name: "relational on text", filter: `{"<":[{"var":"FirstName"},"B"]}`, check: filtererr.IsTypeMismatch},
		{name: "relational on bool", filter: `{"<":[{"var":"IsLocked"},true]}`, check: filtererr.IsTypeMismatch},
		{name: "bit flag equality", filter: `{"==":[{"var":"Permissions"},1]}`, check: filtererr.IsTypeMismatch},
		{name: "not a number", filter: `{"==":[{"var":"Age"},"abc"]}`, check: filtererr.IsTypeMismatch},
		{name: "int32 overflow", filter: `{"==":[{"var":"Age"},3000000000]}`, check: filtererr.IsTypeMismatch},
		{name: "fractional int", filter: `{"==":[{"var":"Age"},4.5]}`, check: filtererr.IsTypeMismatch},
		{name: "var against var", filter: `{"==":[{"var":"FirstName"},{"var":"LastName"}]}`, check: filtererr.IsTypeMismatch},
		{name: "no var", filter: `{"==":[1,2]}`, check: filtererr.IsTypeMismatch},
		{name: "bad guid", filter: `{"==":[{"var":"AreaLevel1"},"not-a-guid"]}`, check: filtererr.IsTypeMismatch},
		{name: "bad date", filter: `{"==":[{"var":"BirthDate"},"yesterday"]}`, check: filtererr.IsTypeMismatch},
		{name: "date membership", filter: `{"in":[{"var":"BirthDate"},["2022-01-01"]]}`, check: filtererr.IsTypeMismatch},
		{name: "membership without array", filter: `{"in":[{"var":"FirstName"},"abc"]}`, check: filtererr.IsTypeMismatch},
		{name: "relational null", filter: `{"<":[{"var":"Age"},null]}`, check: filtererr.IsTypeMismatch},
		{name: "starts with literal first", filter: `{"startsWith":["B",{"var":"FirstName"}]}`, check: filtererr.IsTypeMismatch},
		{name: "range bound is var", filter: `{"<=":[{"var":"Age"},{"var":"Age"},3]}`, check: filtererr.IsTypeMismatch},
		{name: "nested membership array", filter: `{"in":[{"var":"Age"},[[1]]]}`, check: filtererr.IsTypeMismatch},
		{name: "unknown flag list", filter: `{"in":[{"var":"Tags"},3]}`, check: filtererr.IsConfiguration},
		{name: "category without list", filter: `{"==":[{"var":"Unlisted"},1]}`, check: filtererr.IsConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			built, err := c.Build(Request{RootType: "Person", Filter: []byte(tt.filter)})
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.Nil(t, built.Tree)

			out, err := c.Compile(Request{RootType: "Person", Filter: []byte(tt.filter)}, ModeQueryText)
			assert.Error(t, err)
			assert.Nil(t, out)
		})
	}
}

func TestEmit_UnknownMode(t *testing.T) {
	c := newCompiler(t)
	_, err := c.Emit(queryir.True, Mode(7))
	assert.Error(t, err)
}

func TestCompile_EntityAlias(t *testing.T) {
	catalog := testutil.Catalog(t)
	c := New(catalog, catalog, Options{EntityAlias: "p"})

	out, err := c.Compile(Request{RootType: "Person", Filter: []byte(`{"==":[{"var":"FirstName"},"Bob"]}`)}, ModeQueryText)
	require.NoError(t, err)
	assert.Equal(t, "(p.FirstName = :par1)", out.Query.Text)
}

func TestCompile_ConcurrentCallsShareCache(t *testing.T) {
	src := testutil.NewCountingSource(testutil.Catalog(t))
	cache := metadata.NewCache(src, src)
	c := New(cache, cache, Options{})

	const workers = 8
	var wg sync.WaitGroup
	texts := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := c.Compile(Request{
				RootType: "Person",
				Filter:   []byte(`{"and":[{"==":[{"var":"AreaLevel1.Name"},"North"]},{"in":[{"var":"Permissions"},3]}]}`),
			}, ModeQueryText)
			if assert.NoError(t, err) {
				texts[i] = out.Query.Text
			}
		}(i)
	}
	wg.Wait()

	for _, text := range texts {
		assert.Equal(t, "(ent.AreaLevel1.Name = :par1) and (((ent.Permissions & :par2) <> 0) or ((ent.Permissions & :par3) <> 0))", text)
	}
	assert.Equal(t, 1, src.Calls("property:Person.AreaLevel1"))
	assert.Equal(t, 1, src.Calls("property:Area.Name"))
	assert.Equal(t, 1, src.Calls("list:Crm.Permissions"))
}
