package engine

import (
	"reflect"
	"testing"
)

func TestCoerceParamsPassthrough(t *testing.T) {
	m := map[string]any{"wait": 2000}
	got := CoerceParams(m)
	if !reflect.DeepEqual(got, m) {
		t.Errorf("map passthrough: got %#v", got)
	}

	if got := CoerceParams(nil); got != nil {
		t.Errorf("nil passthrough: got %#v", got)
	}

	if got := CoerceParams(42); got != 42 {
		t.Errorf("int passthrough: got %#v", got)
	}
}

func TestCoerceParamsEmptyString(t *testing.T) {
	got := CoerceParams("")
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("empty string: got %T, want map", got)
	}
	if len(m) != 0 {
		t.Errorf("empty string: got %#v, want empty map", m)
	}
}

func TestCoerceParamsJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{
			name:  "simple object",
			input: `{"render_js": true, "wait": 2000}`,
			want:  map[string]any{"render_js": true, "wait": float64(2000)},
		},
		{
			name:  "nested object",
			input: `{"cookies": {"session": "abc"}}`,
			want:  map[string]any{"cookies": map[string]any{"session": "abc"}},
		},
		{
			name:  "array value",
			input: `{"extract": ["h1", "p"]}`,
			want:  map[string]any{"extract": []any{"h1", "p"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceParams(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CoerceParams(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoerceParamsJSONNonObject(t *testing.T) {
	// Valid JSON that is not an object is not accepted by the JSON
	// strategy; these fall through and come back unchanged.
	for _, input := range []string{`[1, 2, 3]`, `"quoted"`, `17`, `null`} {
		got := CoerceParams(input)
		if got != input {
			t.Errorf("CoerceParams(%q) = %#v, want input unchanged", input, got)
		}
	}
}

func TestCoerceParamsLiteral(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{
			name:  "single quotes and True",
			input: `{'render_js': True, 'wait': 2000}`,
			want:  map[string]any{"render_js": true, "wait": 2000},
		},
		{
			name:  "None becomes nil",
			input: `{'block_ads': None}`,
			want:  map[string]any{"block_ads": nil},
		},
		{
			name:  "nested map and list",
			input: `{'a': {'b': [1, 'two', False]}}`,
			want:  map[string]any{"a": map[string]any{"b": []any{1, "two", false}}},
		},
		{
			name:  "float value",
			input: `{'ratio': 1.5}`,
			want:  map[string]any{"ratio": 1.5},
		},
		{
			name:  "trailing comma",
			input: `{'wait': 100,}`,
			want:  map[string]any{"wait": 100},
		},
		{
			name:  "escaped quote",
			input: `{'msg': 'it\'s fine'}`,
			want:  map[string]any{"msg": "it's fine"},
		},
		{
			name:  "empty map literal",
			input: `{}`,
			want:  map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceParams(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CoerceParams(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoerceParamsLiteralRejects(t *testing.T) {
	// Brace-delimited but malformed input falls through the literal
	// parser. Without an '=' the query parser passes too, so the raw
	// string comes back.
	for _, input := range []string{
		`{'unterminated': 'x`,
		`{bareword: 1}`,
		`{'a' 1}`,
	} {
		got := CoerceParams(input)
		if got != input {
			t.Errorf("CoerceParams(%q) = %#v, want input unchanged", input, got)
		}
	}
}

func TestCoerceParamsQueryPairs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{
			name:  "bool and int coercion",
			input: "screenshot=true&wait=3000",
			want:  map[string]any{"screenshot": true, "wait": 3000},
		},
		{
			name:  "case insensitive bools",
			input: "a=True&b=FALSE",
			want:  map[string]any{"a": true, "b": false},
		},
		{
			name:  "plain strings survive",
			input: "country_code=us&device=desktop",
			want:  map[string]any{"country_code": "us", "device": "desktop"},
		},
		{
			name:  "value keeps later equals signs",
			input: "js_snippet=a=b",
			want:  map[string]any{"js_snippet": "a=b"},
		},
		{
			name:  "pair without equals is skipped",
			input: "screenshot&wait=5",
			want:  map[string]any{"wait": 5},
		},
		{
			name:  "empty key allowed",
			input: "=orphan",
			want:  map[string]any{"": "orphan"},
		},
		{
			name:  "last duplicate wins",
			input: "wait=1&wait=2",
			want:  map[string]any{"wait": 2},
		},
		{
			name:  "oversized digit run stays a string",
			input: "id=99999999999999999999999999",
			want:  map[string]any{"id": "99999999999999999999999999"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceParams(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CoerceParams(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoerceParamsUnparseable(t *testing.T) {
	input := "not parseable at all"
	got := CoerceParams(input)
	if got != input {
		t.Errorf("CoerceParams(%q) = %#v, want input unchanged", input, got)
	}
}

func TestFlattenParams(t *testing.T) {
	in := map[string]any{
		"wait":    2000,
		"verbose": true,
		"cookies": map[string]any{"session": "abc"},
		"extract": []any{"h1", "p"},
		"country": "us",
	}
	got := FlattenParams(in)

	if got["wait"] != 2000 || got["verbose"] != true || got["country"] != "us" {
		t.Errorf("scalars must pass through: %#v", got)
	}
	if got["cookies"] != `{"session":"abc"}` {
		t.Errorf("nested map: got %#v", got["cookies"])
	}
	if got["extract"] != `["h1","p"]` {
		t.Errorf("list: got %#v", got["extract"])
	}
	// Original map untouched.
	if _, ok := in["cookies"].(map[string]any); !ok {
		t.Error("FlattenParams must not mutate its input")
	}
}
