// Package models defines the domain records flowing through the crossover
// datapath: ticks in, signals and run summaries out.
package models

import (
	"github.com/mlvaux/tickpipe/internal/fixed"
)

// Tick is one cycle's input sample. Invalid ticks still occupy a cycle so
// stream positions stay aligned with the source rows; the datapath holds its
// state on them.
type Tick struct {
	Index int         `json:"index"`
	Price fixed.Point `json:"price"`
	Valid bool        `json:"valid"`
}

// Output is one observable cycle of either the pipeline or the reference
// model: the signal plus the pair of averages it was computed from.
type Output struct {
	Cycle  int         `json:"cycle"`
	Valid  bool        `json:"valid"`
	Signal Signal      `json:"signal"`
	Fast   fixed.Point `json:"fast"`
	Slow   fixed.Point `json:"slow"`
}
