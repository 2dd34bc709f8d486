package normalizer

import (
	"testing"
	"time"
)

func TestParseTimeUnixSecondsAndMilliseconds(t *testing.T) {
	seconds := parseTime(float64(1700000000))
	millis := parseTime(float64(1700000000000))

	if seconds == nil || millis == nil {
		t.Fatalf("expected both timestamps to parse, got %v and %v", seconds, millis)
	}
	if !seconds.Equal(*millis) {
		t.Errorf("seconds and milliseconds should map to the same instant: %v != %v", seconds, millis)
	}
	if seconds.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", seconds.Location())
	}
	if seconds.Unix() != 1700000000 {
		t.Errorf("unexpected instant: %v", seconds)
	}
}

func TestParseTimeISOFormats(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01T18:30:00Z", time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)},
		{"2024-03-01T18:30:00.500Z", time.Date(2024, 3, 1, 18, 30, 0, 500000000, time.UTC)},
		{"2024-03-01T19:30:00+01:00", time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)},
		{"2024-03-01T18:30:00", time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got := parseTime(tc.in)
		if got == nil {
			t.Errorf("parseTime(%q) = nil", tc.in)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("parseTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseTimeUnparseableYieldsNil(t *testing.T) {
	for _, in := range []any{"tomorrow", "", nil, true, []any{"2024-03-01"}} {
		if got := parseTime(in); got != nil {
			t.Errorf("parseTime(%v) = %v, want nil", in, got)
		}
	}
}

func TestParseFloat(t *testing.T) {
	if got := parseFloat(float64(1.85)); got == nil || *got != 1.85 {
		t.Errorf("numeric input: got %v", got)
	}
	if got := parseFloat("2.10"); got == nil || *got != 2.10 {
		t.Errorf("numeric string input: got %v", got)
	}
	// strings não numéricas viram desconhecido, nunca erro
	for _, in := range []any{"evens", "", nil, map[string]any{}} {
		if got := parseFloat(in); got != nil {
			t.Errorf("parseFloat(%v) = %v, want nil", in, got)
		}
	}
}

func TestExtractTextNestedShapes(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"bare string", "Over 2.5", "Over 2.5"},
		{"number", float64(42), "42"},
		{"object with text key", map[string]any{"text": "Draw"}, "Draw"},
		{"object alias priority", map[string]any{"displayName": "fallback", "label": "Home"}, "Home"},
		{"nested object", map[string]any{"name": map[string]any{"value": "Away"}}, "Away"},
		{"list picks first non-empty", []any{"", map[string]any{"text": "X"}}, "X"},
	}

	for _, tc := range cases {
		got := extractText(tc.in)
		if got == nil || *got != tc.want {
			t.Errorf("%s: extractText(%v) = %v, want %q", tc.name, tc.in, got, tc.want)
		}
	}

	for _, in := range []any{nil, "", map[string]any{"other": "x"}, []any{nil, ""}} {
		if got := extractText(in); got != nil {
			t.Errorf("extractText(%v) = %q, want nil", in, *got)
		}
	}
}

func TestEnsureList(t *testing.T) {
	if got := ensureList(nil); len(got) != 0 {
		t.Errorf("nil should become empty list, got %v", got)
	}
	if got := ensureList([]any{"a", "b"}); len(got) != 2 {
		t.Errorf("lists pass through, got %v", got)
	}
	if got := ensureList("solo"); len(got) != 1 || got[0] != "solo" {
		t.Errorf("scalars wrap into single-element list, got %v", got)
	}
}

func TestWalkNodesDeterministicOrder(t *testing.T) {
	root := map[string]any{
		"b": map[string]any{"marker": 1.0, "which": "b"},
		"a": map[string]any{"marker": 1.0, "which": "a"},
	}

	var first map[string]any
	walkNodes(root, func(node map[string]any) bool {
		if _, ok := node["marker"]; ok {
			first = node
			return true
		}
		return false
	})

	if first == nil || first["which"] != "a" {
		t.Errorf("BFS should visit keys lexicographically, got %v", first)
	}
}
