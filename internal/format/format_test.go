package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID    string            `json:"id"`
	Count int               `json:"count"`
	Dict  map[string]string `json:"dict"`
}

func TestYAMLFormatterUsesJSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	payload := sample{ID: "pr-000000000001", Count: 2, Dict: map[string]string{"Nozzle": "nozzle_temperature"}}
	if err := (YAMLFormatter{}).Write(&buf, payload); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"id: pr-000000000001", "count: 2", "dict:", "  Nozzle: nozzle_temperature"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestJSONFormatterIndents(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if buf.String() != "{\n  \"a\": 1\n}\n" {
		t.Fatalf("unexpected json output %q", buf.String())
	}
}

func TestForName(t *testing.T) {
	tests := []struct {
		name    string
		want    Formatter
		wantErr bool
	}{
		{name: "", want: nil},
		{name: "text", want: nil},
		{name: "JSON", want: JSONFormatter{}},
		{name: "yaml", want: YAMLFormatter{}},
		{name: "yml", want: YAMLFormatter{}},
		{name: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ForName(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("for name: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %T, got %T", tt.want, got)
			}
		})
	}
}
