package schema_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/effective-security/llmfn/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchArgs struct {
	Query   string   `json:"query" jsonschema:"description=Search query"`
	Limit   int      `json:"limit,omitempty" jsonschema:"description=Maximum results"`
	Filters []string `json:"filters,omitempty"`
}

type emptyArgs struct{}

type nestedArgs struct {
	Location location `json:"location"`
	Units    string   `json:"units,omitempty"`
}

type location struct {
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
}

func TestNew(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(searchArgs{}))
	require.NoError(t, err)
	require.NotNil(t, s.Parameters)

	assert.Equal(t, "object", s.Parameters.Type)
	assert.Equal(t, []string{"query"}, s.Parameters.Required)

	q, ok := s.Parameters.Properties.Get("query")
	require.True(t, ok)
	assert.Equal(t, "string", q.Type)
	assert.Equal(t, "Search query", q.Description)

	l, ok := s.Parameters.Properties.Get("limit")
	require.True(t, ok)
	assert.Equal(t, "integer", l.Type)

	f, ok := s.Parameters.Properties.Get("filters")
	require.True(t, ok)
	assert.Equal(t, "array", f.Type)

	// cached
	s2, err := schema.New(reflect.TypeOf(searchArgs{}))
	require.NoError(t, err)
	assert.Same(t, s, s2)
}

func TestNew_Pointer(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(&searchArgs{}))
	require.NoError(t, err)
	assert.Equal(t, "object", s.Parameters.Type)
}

func TestNew_Empty(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(emptyArgs{}))
	require.NoError(t, err)
	require.NotNil(t, s.Parameters)

	assert.Equal(t, "object", s.Parameters.Type)
	require.NotNil(t, s.Parameters.Properties)
	assert.Equal(t, 0, s.Parameters.Properties.Len())
	assert.Empty(t, s.Parameters.Required)

	js, err := json.Marshal(s.Parameters)
	require.NoError(t, err)
	assert.Contains(t, string(js), `"properties"`)
}

func TestNew_Nested(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(nestedArgs{}))
	require.NoError(t, err)

	loc, ok := s.Parameters.Properties.Get("location")
	require.True(t, ok)
	require.NotNil(t, loc.Properties)
	_, ok = loc.Properties.Get("city")
	assert.True(t, ok)
	assert.Equal(t, []string{"city"}, loc.Required)
}

func TestNew_Invalid(t *testing.T) {
	tcases := []struct {
		name string
		typ  reflect.Type
	}{
		{"nil", nil},
		{"string", reflect.TypeOf("")},
		{"int", reflect.TypeOf(0)},
		{"slice", reflect.TypeOf([]string{})},
		{"func field", reflect.TypeOf(struct {
			F func() `json:"f"`
		}{})},
		{"chan field", reflect.TypeOf(struct {
			C chan int `json:"c"`
		}{})},
		{"interface field", reflect.TypeOf(struct {
			V any `json:"v"`
		}{})},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.New(tc.typ)
			require.Error(t, err)
			assert.ErrorIs(t, err, schema.ErrSchema)
		})
	}
}

func TestNew_SkippedFields(t *testing.T) {
	type args struct {
		Name string   `json:"name"`
		F    func()   `json:"-"`
		ch   chan int //nolint
	}
	_ = args{}.ch
	s, err := schema.New(reflect.TypeOf(args{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, s.Parameters.Required)
}

func TestFromAny(t *testing.T) {
	s, err := schema.FromAny(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
		},
		"required": []string{"query"},
	})
	require.NoError(t, err)
	assert.Equal(t, "object", s.Type)
	q, ok := s.Properties.Get("query")
	require.True(t, ok)
	assert.Equal(t, "string", q.Type)

	assert.NotPanics(t, func() {
		schema.MustFromAny(map[string]any{"type": "object"})
	})
	assert.Panics(t, func() {
		schema.MustFromAny(make(chan int))
	})
}
