package output

import (
	"bytes"
	"strings"
	"testing"
)

type entry struct {
	Key     string `json:"key" yaml:"key"`
	Backend string `json:"backend" yaml:"backend"`
	Secret  string `json:"-" yaml:"-"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("json: wrong formatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("yaml: wrong formatter")
	}
	if _, ok := NewFormatter("other").(*TableFormatter); !ok {
		t.Error("default: wrong formatter")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, entry{Key: "auth_token", Backend: "session", Secret: "x"}); err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"key\": \"auth_token\",\n  \"backend\": \"session\"\n}\n"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := []entry{{Key: "auth_token", Backend: "session"}, {Key: "tenant_info", Backend: "persistent"}}
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	want := "- key: auth_token\n  backend: session\n- key: tenant_info\n  backend: persistent\n"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
	if strings.Contains(buf.String(), "secret") {
		t.Error("ignored field was written")
	}
}
