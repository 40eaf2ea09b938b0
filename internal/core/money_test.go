package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  any
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"₹1,250", 125000, true},
		{"1,234.56", 123456, true},
		{"Rs. 99", 9900, true},
		{100.0, 10000, true},
		{12.345, 1235, true},
		{42, 4200, true},
		{json.Number("7.5"), 750, true},
		{"-1", 0, false},
		{-3.0, 0, false},
		{"0", 0, false},
		{0.004, 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%v expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%v expected error, got %d", tc.in, got.Cents)
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	m := Money{Cents: 125005}
	if m.String() != "1250.05" {
		t.Fatalf("String = %s", m.String())
	}
	if m.Major() != 1250.05 {
		t.Fatalf("Major = %v", m.Major())
	}
	if got := m.Add(Money{Cents: 95}); got.Cents != 125100 {
		t.Fatalf("Add = %d", got.Cents)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Money{Cents: 123450}})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"total":1234.50}` {
		t.Fatalf("marshal = %s", b)
	}

	var got struct {
		Total Money `json:"total"`
	}
	for in, want := range map[string]int64{
		`{"total":1234.5}`:   123450,
		`{"total":"₹1,250"}`: 125000,
		`{"total":0}`:        0,
	} {
		if err := json.Unmarshal([]byte(in), &got); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if got.Total.Cents != want {
			t.Fatalf("unmarshal %s = %d want %d", in, got.Total.Cents, want)
		}
	}
	if err := json.Unmarshal([]byte(`{"total":"abc"}`), &got); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}
