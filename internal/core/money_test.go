package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
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
		{".5", 50, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseAmount(t *testing.T) {
	m, err := ParseAmount("12,34")
	if err != nil || m.Cents != 1234 {
		t.Fatalf("unexpected: %v %v", m, err)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestMoneyJSON(t *testing.T) {
	cases := []struct {
		cents int64
		json  string
	}{
		{5000, "50"},
		{1250, "12.5"},
		{1, "0.01"},
		{123456789, "1234567.89"},
	}
	for _, tc := range cases {
		b, err := json.Marshal(Money{Cents: tc.cents})
		if err != nil || string(b) != tc.json {
			t.Fatalf("marshal %d: got %s (err=%v), want %s", tc.cents, b, err, tc.json)
		}
		var m Money
		if err := json.Unmarshal(b, &m); err != nil || m.Cents != tc.cents {
			t.Fatalf("unmarshal %s: got %d (err=%v)", b, m.Cents, err)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte("null"), &m); err == nil {
		t.Fatalf("null amount should fail")
	}
	if err := json.Unmarshal([]byte("19.999"), &m); err != nil || m.Cents != 2000 {
		t.Fatalf("expected rounding to 2000, got %d (err=%v)", m.Cents, err)
	}
}
