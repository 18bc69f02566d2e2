// Package parity aligns the pipeline's delayed signal stream with the
// reference stream and scores their agreement. A correct datapath scores
// 100%; anything less points at an arithmetic or alignment defect, never at
// an accepted tolerance.
package parity

import (
	"fmt"

	"github.com/mlvaux/tickpipe/internal/models"
)

// Mismatch records one aligned pair whose signals disagree.
type Mismatch struct {
	Cycle    int           `json:"cycle"`     // pipeline cycle index
	RefCycle int           `json:"ref_cycle"` // aligned reference index (Cycle - latency)
	Got      models.Signal `json:"got"`
	Want     models.Signal `json:"want"`
}

// Report is the outcome of one comparison pass.
type Report struct {
	Compared   int        `json:"compared"`
	Matches    int        `json:"matches"`
	MatchRate  float64    `json:"match_rate"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// Compare aligns pipeline index i with reference index i-latency and scores
// every pair where both sides are valid. Excluded from the denominator:
// pipeline entries before the latency window, pairs where either side is
// invalid, and pipeline entries whose aligned index falls past the end of
// the reference stream.
func Compare(ref, pipe []models.Output, latency int) Report {
	var rep Report

	for i, p := range pipe {
		j := i - latency
		if j < 0 || j >= len(ref) {
			continue
		}
		r := ref[j]
		if !p.Valid || !r.Valid {
			continue
		}

		rep.Compared++
		if p.Signal == r.Signal {
			rep.Matches++
		} else {
			rep.Mismatches = append(rep.Mismatches, Mismatch{
				Cycle:    p.Cycle,
				RefCycle: r.Cycle,
				Got:      p.Signal,
				Want:     r.Signal,
			})
		}
	}

	if rep.Compared > 0 {
		rep.MatchRate = float64(rep.Matches) / float64(rep.Compared)
	}
	return rep
}

// Perfect reports whether anything was compared and every pair agreed.
func (r Report) Perfect() bool {
	return r.Compared > 0 && r.Matches == r.Compared
}

func (r Report) String() string {
	return fmt.Sprintf("compared=%d matches=%d rate=%.2f%%", r.Compared, r.Matches, r.MatchRate*100)
}
