package models

import (
	"fmt"

	"github.com/mlvaux/tickpipe/internal/fixed"
)

// Signal is the ternary trading decision: +1 buy, -1 sell, 0 hold.
type Signal int8

const (
	Sell Signal = -1
	Hold Signal = 0
	Buy  Signal = 1
)

// Bus patterns of the RTL's 2-bit signal port. Sell is the two's-complement
// pattern 2'b11 and reads back as 3 on an unsigned bus.
const (
	WireHold uint8 = 0b00
	WireBuy  uint8 = 0b01
	WireSell uint8 = 0b11
)

// CompareSignal derives the signal from the fast/slow ordering. Strict
// comparison only: equal averages hold.
func CompareSignal(fast, slow fixed.Point) Signal {
	switch {
	case fast > slow:
		return Buy
	case fast < slow:
		return Sell
	default:
		return Hold
	}
}

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	case Hold:
		return "HOLD"
	default:
		return fmt.Sprintf("Signal(%d)", int8(s))
	}
}

// Valid reports whether s is one of the three defined values.
func (s Signal) Valid() bool {
	return s == Buy || s == Sell || s == Hold
}

// Wire returns the 2-bit bus encoding of s.
func (s Signal) Wire() uint8 {
	switch s {
	case Buy:
		return WireBuy
	case Sell:
		return WireSell
	default:
		return WireHold
	}
}

// SignalFromWire decodes a 2-bit bus value. The pattern 2'b10 is undefined
// in the RTL and rejected here.
func SignalFromWire(v uint8) (Signal, error) {
	switch v {
	case WireBuy:
		return Buy, nil
	case WireSell:
		return Sell, nil
	case WireHold:
		return Hold, nil
	default:
		return Hold, fmt.Errorf("undefined signal bus pattern %#b", v)
	}
}
