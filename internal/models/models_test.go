package models

import (
	"testing"
	"time"

	"github.com/mlvaux/tickpipe/internal/fixed"
)

func TestCompareSignal(t *testing.T) {
	tests := []struct {
		name string
		fast fixed.Point
		slow fixed.Point
		want Signal
	}{
		{name: "fast above slow buys", fast: 6619136, slow: 6555648, want: Buy},
		{name: "fast below slow sells", fast: 6553600, slow: 6555568, want: Sell},
		{name: "equal holds", fast: 6553600, slow: 6553600, want: Hold},
		{name: "one count apart still sells", fast: 6553600, slow: 6553601, want: Sell},
		{name: "negative prices compare the same way", fast: -65536, slow: -65537, want: Buy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareSignal(tt.fast, tt.slow)
			if got != tt.want {
				t.Errorf("CompareSignal(%d, %d) = %v, want %v", tt.fast, tt.slow, got, tt.want)
			}
		})
	}
}

func TestSignalString(t *testing.T) {
	tests := []struct {
		s    Signal
		want string
	}{
		{s: Buy, want: "BUY"},
		{s: Sell, want: "SELL"},
		{s: Hold, want: "HOLD"},
		{s: Signal(5), want: "Signal(5)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Signal(%d).String() = %q, want %q", int8(tt.s), got, tt.want)
		}
	}
}

func TestSignalWire(t *testing.T) {
	// The sell pattern must be 2'b11: the bus carries 3, not -1.
	if got := Sell.Wire(); got != 0b11 {
		t.Fatalf("Sell.Wire() = %#b, want 0b11", got)
	}

	for _, s := range []Signal{Buy, Sell, Hold} {
		got, err := SignalFromWire(s.Wire())
		if err != nil {
			t.Fatalf("SignalFromWire(%v.Wire()) error: %v", s, err)
		}
		if got != s {
			t.Errorf("SignalFromWire(%v.Wire()) = %v, want %v", s, got, s)
		}
	}

	if _, err := SignalFromWire(0b10); err == nil {
		t.Error("SignalFromWire(0b10) should reject the undefined pattern")
	}
}

func TestRunValidate(t *testing.T) {
	valid := Run{
		ID:        "7b0f9a4e-2f4e-4a48-9c30-1c9b8ffdc001",
		Source:    "ticks.csv",
		FastShift: 1,
		SlowShift: 6,
		Latency:   3,
		Ticks:     400,
		Compared:  400,
		Matches:   400,
		MatchRate: 1.0,
		CreatedAt: time.Now(),
	}

	tests := []struct {
		name    string
		mutate  func(r *Run)
		wantErr bool
	}{
		{name: "valid run", mutate: func(r *Run) {}, wantErr: false},
		{name: "empty ID", mutate: func(r *Run) { r.ID = "" }, wantErr: true},
		{name: "fast shift not below slow", mutate: func(r *Run) { r.FastShift = 6 }, wantErr: true},
		{name: "zero latency", mutate: func(r *Run) { r.Latency = 0 }, wantErr: true},
		{name: "negative ticks", mutate: func(r *Run) { r.Ticks = -1 }, wantErr: true},
		{name: "matches above compared", mutate: func(r *Run) { r.Matches = 401 }, wantErr: true},
		{name: "rate above one", mutate: func(r *Run) { r.MatchRate = 1.5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Run.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
