package onemeter

import "testing"

func wrappedDevice(obis map[string]any) map[string]any {
	return map[string]any{
		"devices": []any{
			map[string]any{"lastReading": map[string]any{"OBIS": obis}},
		},
	}
}

func TestExtractDeviceValueWrapped(t *testing.T) {
	data := wrappedDevice(map[string]any{"1_8_0": 12345.6})
	if got := ExtractDeviceValue(data, "1_8_0"); got != 12345.6 {
		t.Fatalf("got %v, want 12345.6", got)
	}
}

func TestExtractDeviceValueUnwrapped(t *testing.T) {
	data := map[string]any{
		"lastReading": map[string]any{"OBIS": map[string]any{"16_7_0": 1.5}},
	}
	if got := ExtractDeviceValue(data, "16_7_0"); got != 1.5 {
		t.Fatalf("got %v, want 1.5", got)
	}
}

func TestExtractDeviceValueEmptyDevicesFallsBack(t *testing.T) {
	data := map[string]any{
		"devices":     []any{},
		"lastReading": map[string]any{"OBIS": map[string]any{"1_8_0": 7.0}},
	}
	if got := ExtractDeviceValue(data, "1_8_0"); got != 7.0 {
		t.Fatalf("got %v, want 7.0", got)
	}
}

func TestExtractDeviceValueMissing(t *testing.T) {
	cases := []map[string]any{
		nil,
		{},
		{"devices": "not a list"},
		{"lastReading": "not a map"},
		wrappedDevice(map[string]any{"1_8_0": 1.0}),
	}
	for _, data := range cases {
		if got := ExtractDeviceValue(data, "2_8_0"); got != nil {
			t.Fatalf("expected nil for %v, got %v", data, got)
		}
	}
}

func TestExtractReadingValueOBISMap(t *testing.T) {
	data := map[string]any{
		"readings": []any{
			map[string]any{"OBIS": map[string]any{"1_8_0": 100.5}},
		},
	}
	if got := ExtractReadingValue(data, "1_8_0"); got != 100.5 {
		t.Fatalf("got %v, want 100.5", got)
	}
}

func TestExtractReadingValueDirectKey(t *testing.T) {
	data := map[string]any{
		"readings": []any{
			map[string]any{"1_8_0": 200.25},
		},
	}
	if got := ExtractReadingValue(data, "1_8_0"); got != 200.25 {
		t.Fatalf("got %v, want 200.25", got)
	}
}

func TestExtractReadingValueMissing(t *testing.T) {
	cases := []map[string]any{
		nil,
		{},
		{"readings": []any{}},
		{"readings": "not a list"},
		{"readings": []any{"not a map"}},
	}
	for _, data := range cases {
		if got := ExtractReadingValue(data, "1_8_0"); got != nil {
			t.Fatalf("expected nil for %v, got %v", data, got)
		}
	}
}

func TestMonthUsageWrapped(t *testing.T) {
	data := map[string]any{
		"devices": []any{
			map[string]any{"usage": map[string]any{"thisMonth": 123.4, "previousMonth": 98.7}},
		},
	}
	if got, ok := ThisMonthUsage(data); !ok || got != 123.4 {
		t.Fatalf("ThisMonthUsage = %v, %v", got, ok)
	}
	if got, ok := PreviousMonthUsage(data); !ok || got != 98.7 {
		t.Fatalf("PreviousMonthUsage = %v, %v", got, ok)
	}
}

func TestMonthUsageUnwrapped(t *testing.T) {
	data := map[string]any{
		"usage": map[string]any{"thisMonth": 55.0},
	}
	if got, ok := ThisMonthUsage(data); !ok || got != 55.0 {
		t.Fatalf("ThisMonthUsage = %v, %v", got, ok)
	}
	if _, ok := PreviousMonthUsage(data); ok {
		t.Fatal("expected previousMonth to be absent")
	}
}

func TestMonthUsageCoercesNumericTypes(t *testing.T) {
	cases := []struct {
		value any
		want  float64
	}{
		{42.5, 42.5},
		{42, 42},
		{int64(7), 7},
		{"123.4", 123.4},
	}
	for _, tc := range cases {
		data := map[string]any{"usage": map[string]any{"thisMonth": tc.value}}
		got, ok := ThisMonthUsage(data)
		if !ok || got != tc.want {
			t.Fatalf("ThisMonthUsage(%v) = %v, %v; want %v", tc.value, got, ok, tc.want)
		}
	}
}

func TestMonthUsageRejectsNonNumeric(t *testing.T) {
	for _, value := range []any{nil, "abc", true, []any{1.0}} {
		data := map[string]any{"usage": map[string]any{"thisMonth": value}}
		if _, ok := ThisMonthUsage(data); ok {
			t.Fatalf("expected rejection for %v", value)
		}
	}
	if _, ok := ThisMonthUsage(map[string]any{}); ok {
		t.Fatal("expected rejection when usage is absent")
	}
}
