package feed

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"

	"github.com/mlvaux/tickpipe/internal/fixed"
	"github.com/mlvaux/tickpipe/internal/models"
)

// SynthConfig parameterizes the synthetic tick generator: a sine wave with
// Gaussian noise, shaped to cross the two averages back and forth at a
// regular cadence.
type SynthConfig struct {
	N      int
	Base   float64
	Amp    float64
	Period float64
	Noise  float64
	Seed   int64
}

// DefaultSynthConfig returns the parameters behind the stock capture.
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		N:      400,
		Base:   100,
		Amp:    3.0,
		Period: 18,
		Noise:  0.6,
		Seed:   0,
	}
}

// Sample pairs a generated float price with its Q16.16 representation.
type Sample struct {
	Price float64
	Q16   fixed.Point
}

// Generate produces a deterministic synthetic price series.
func Generate(cfg SynthConfig) ([]Sample, error) {
	if cfg.N < 1 {
		return nil, fmt.Errorf("sample count must be at least 1")
	}
	if cfg.Period == 0 {
		return nil, fmt.Errorf("period must be non-zero")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	samples := make([]Sample, 0, cfg.N)
	for t := 0; t < cfg.N; t++ {
		price := cfg.Base + cfg.Amp*math.Sin(2*math.Pi*float64(t)/cfg.Period) + rng.NormFloat64()*cfg.Noise
		q, err := fixed.FromFloat(price)
		if err != nil {
			return nil, fmt.Errorf("sample %d out of range: %w", t, err)
		}
		samples = append(samples, Sample{Price: price, Q16: q})
	}
	return samples, nil
}

// Ticks converts generated samples into pipeline input order.
func Ticks(samples []Sample) []models.Tick {
	ticks := make([]models.Tick, len(samples))
	for i, s := range samples {
		ticks[i] = models.Tick{Index: i, Price: s.Q16, Valid: true}
	}
	return ticks
}

// WriteCSV writes samples in the capture format consumed by LoadCSV.
func WriteCSV(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create tick file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"price", rawColumn}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range samples {
		record := []string{
			strconv.FormatFloat(s.Price, 'f', -1, 64),
			strconv.FormatInt(int64(s.Q16), 10),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write sample: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush tick file: %w", err)
	}
	return nil
}
