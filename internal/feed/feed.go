// Package feed supplies Q16.16 price ticks to the signal pipeline, either
// replayed from CSV captures or pulled from live market data sources.
package feed

import (
	"context"
	"time"

	"github.com/mlvaux/tickpipe/internal/fixed"
)

const (
	// SourceWS streams live trades over the exchange websocket.
	SourceWS = "ws"
	// SourcePoll samples the exchange REST ticker endpoint.
	SourcePoll = "poll"
)

// Update is one live price observation. Updates with Valid=false mark
// cycles where the source produced no usable sample; passing them through
// keeps the pipeline's valid strobe honest instead of silently reusing a
// stale price.
type Update struct {
	Symbol string      `json:"symbol"`
	Price  fixed.Point `json:"price"`
	Valid  bool        `json:"valid"`
	At     time.Time   `json:"at"`
}

// Config describes where live prices come from.
type Config struct {
	Source       string
	WSURL        string
	RestURL      string
	Symbols      []string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Feed represents a pluggable live tick source.
type Feed struct {
	source       string
	wsURL        string
	symbols      []string
	poll         *PollClient
	pollInterval time.Duration
}

const defaultPollInterval = 2 * time.Second

// New constructs a feed backed by the requested source.
func New(cfg Config) *Feed {
	f := &Feed{
		source:       cfg.Source,
		wsURL:        cfg.WSURL,
		symbols:      append([]string(nil), cfg.Symbols...),
		poll:         NewPollClient(cfg.RestURL, cfg.Timeout),
		pollInterval: cfg.PollInterval,
	}
	if f.source == "" {
		f.source = SourceWS
	}
	if f.pollInterval <= 0 {
		f.pollInterval = defaultPollInterval
	}
	return f
}

// Run pushes updates onto the provided channel until the context is
// canceled or the source fails permanently.
func (f *Feed) Run(ctx context.Context, out chan<- Update) error {
	switch f.source {
	case SourcePoll:
		return f.runPoll(ctx, out)
	default:
		return f.runWS(ctx, out)
	}
}
