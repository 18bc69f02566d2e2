package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/mlvaux/tickpipe/internal/feed"
	"github.com/mlvaux/tickpipe/internal/logging"
)

var (
	outPath = flag.String("out", "ticks.csv", "Output CSV path")
	n       = flag.Int("n", 400, "Number of ticks")
	base    = flag.Float64("base", 100, "Base price level")
	amp     = flag.Float64("amp", 3.0, "Sine amplitude")
	period  = flag.Float64("period", 18, "Sine period in ticks")
	noise   = flag.Float64("noise", 0.6, "Gaussian noise sigma")
	seed    = flag.Int64("seed", 0, "RNG seed")
)

func main() {
	flag.Parse()
	logging.Init("info", "text")

	samples, err := feed.Generate(feed.SynthConfig{
		N:      *n,
		Base:   *base,
		Amp:    *amp,
		Period: *period,
		Noise:  *noise,
		Seed:   *seed,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate ticks")
	}
	if err := feed.WriteCSV(*outPath, samples); err != nil {
		log.Fatal().Err(err).Msg("Failed to write tick file")
	}

	lo, hi := samples[0].Price, samples[0].Price
	for _, s := range samples[1:] {
		if s.Price < lo {
			lo = s.Price
		}
		if s.Price > hi {
			hi = s.Price
		}
	}
	log.Info().Int("ticks", len(samples)).Str("path", *outPath).
		Float64("min", lo).Float64("max", hi).Msg("Tick capture written")
}
