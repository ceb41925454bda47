package ai

import (
	"errors"
	"math"
	"testing"
)

const testSchema = `{
  "type": "object",
  "properties": {
    "items": {"type": "array", "items": {"type": "object"}}
  }
}`

func TestParseObject(t *testing.T) {
	schema := MustSchema(testSchema)

	cases := []struct {
		name    string
		raw     string
		wantErr bool
		schema  bool
	}{
		{name: "plain", raw: `{"items": [{"id": "1"}]}`},
		{name: "fenced", raw: "```json\n{\"items\": []}\n```"},
		{name: "prose around", raw: "Here you go:\n{\"items\": []}\nThanks"},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "not json", raw: "no idea", wantErr: true},
		{name: "array root", raw: `[1, 2]`, wantErr: true},
		{name: "wrong shape", raw: `{"items": "nope"}`, wantErr: true, schema: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := ParseObject(tc.raw, schema)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", data)
				}
				var schemaErr *SchemaError
				if tc.schema && !errors.As(err, &schemaErr) {
					t.Fatalf("expected schema error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := data["items"]; !ok {
				t.Fatalf("expected items key, got %v", data)
			}
		})
	}
}

func TestCoerceFloat(t *testing.T) {
	cases := map[string]struct {
		in   any
		want float64
		nan  bool
	}{
		"number":         {in: 81.5, want: 81.5},
		"int":            {in: 7, want: 7},
		"numeric string": {in: " 42 ", want: 42},
		"percent":        {in: "55%", want: 55},
		"word":           {in: "high", nan: true},
		"missing":        {in: nil, nan: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := CoerceFloat(tc.in)
			if tc.nan {
				if !math.IsNaN(got) {
					t.Fatalf("expected NaN, got %v", got)
				}
				return
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCoerceString(t *testing.T) {
	if got := CoerceString("  hi "); got != "hi" {
		t.Fatalf("unexpected string: %q", got)
	}
	if got := CoerceString(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := CoerceString([]any{"a"}); got != `["a"]` {
		t.Fatalf("unexpected json rendering: %q", got)
	}
}
