package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type testTable []struct {
	Key    string `json:"key"`
	Frames int    `json:"frames"`
}

func (t testTable) Header() []string { return []string{"KEY", "FRAMES"} }

func (t testTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, r := range t {
		rows[i] = []string{r.Key, strings.Repeat("x", r.Frames)}
	}
	return rows
}

func sampleTable() testTable {
	return testTable{{"1700000000.5", 1}, {"1700000001", 3}}
}

func TestTextFormatter_Table(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, sampleTable()); err != nil {
		t.Fatalf("FormatTo() failed: %v", err)
	}

	want := "KEY           FRAMES\n" +
		"1700000000.5  x\n" +
		"1700000001    xxx\n"
	if buf.String() != want {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), want)
	}
}

func TestTextFormatter_Plain(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, "removed 3 orphans"); err != nil {
		t.Fatalf("FormatTo() failed: %v", err)
	}
	if buf.String() != "removed 3 orphans\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&JSONFormatter{Indent: true}).FormatTo(buf, sampleTable()); err != nil {
		t.Fatalf("FormatTo() failed: %v", err)
	}

	var got testTable
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if len(got) != 2 || got[1].Key != "1700000001" {
		t.Errorf("round trip = %+v", got)
	}
	if !strings.Contains(buf.String(), "\n  {") {
		t.Errorf("output not indented: %q", buf.String())
	}
}

func TestCSVFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&CSVFormatter{}).FormatTo(buf, sampleTable()); err != nil {
		t.Fatalf("FormatTo() failed: %v", err)
	}
	want := "KEY,FRAMES\n1700000000.5,x\n1700000001,xxx\n"
	if buf.String() != want {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), want)
	}

	if err := (&CSVFormatter{}).FormatTo(buf, "not a table"); err == nil {
		t.Error("FormatTo() accepted non-tabular data")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  OutputFormat
		want    string
		wantErr bool
	}{
		{FormatText, "*cli.TextFormatter", false},
		{"", "*cli.TextFormatter", false},
		{FormatJSON, "*cli.JSONFormatter", false},
		{FormatCSV, "*cli.CSVFormatter", false},
		{"junit", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f, err := NewFormatter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFormatter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if err == nil {
				if got := typeName(f); got != tt.want {
					t.Errorf("NewFormatter(%q) = %s, want %s", tt.format, got, tt.want)
				}
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *TextFormatter:
		return "*cli.TextFormatter"
	case *JSONFormatter:
		return "*cli.JSONFormatter"
	case *CSVFormatter:
		return "*cli.CSVFormatter"
	}
	return "unknown"
}
