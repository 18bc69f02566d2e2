package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mlvaux/tickpipe/internal/config"
	"github.com/mlvaux/tickpipe/internal/feed"
	"github.com/mlvaux/tickpipe/internal/logging"
	"github.com/mlvaux/tickpipe/internal/models"
	"github.com/mlvaux/tickpipe/internal/parity"
	"github.com/mlvaux/tickpipe/internal/pipeline"
	"github.com/mlvaux/tickpipe/internal/reference"
	"github.com/mlvaux/tickpipe/internal/storage"
	"github.com/mlvaux/tickpipe/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Init(cfg.Logging.Level, cfg.Logging.Format)
	log.Info().Str("config", *configPath).Msg("Configuration loaded")

	ticks, err := feed.LoadCSV(cfg.Input.Path, cfg.Input.PriceColumn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load tick capture")
	}
	log.Info().Int("ticks", len(ticks)).Str("path", cfg.Input.Path).Msg("Tick capture loaded")

	pipe := pipeline.New(pipeline.Config{
		FastShift: cfg.Engine.FastShift,
		SlowShift: cfg.Engine.SlowShift,
	})
	ref := reference.New(cfg.Engine.FastShift, cfg.Engine.SlowShift)

	pipeOut := pipe.Run(ticks)
	refOut := ref.Run(ticks)

	report := parity.Compare(refOut, pipeOut, pipeline.Latency)
	printReport(report, refOut, pipeOut)

	run := &models.Run{
		ID:        uuid.NewString(),
		Source:    cfg.Input.Path,
		FastShift: cfg.Engine.FastShift,
		SlowShift: cfg.Engine.SlowShift,
		Latency:   pipeline.Latency,
		Ticks:     len(ticks),
		Compared:  report.Compared,
		Matches:   report.Matches,
		MatchRate: report.MatchRate,
		CreatedAt: time.Now(),
	}

	if cfg.Storage.Enabled {
		store, err := storage.New(cfg.Storage.MaxRuns, cfg.Storage.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize storage")
		}
		if err := store.SaveRun(run); err != nil {
			log.Error().Err(err).Msg("Failed to save run")
		} else if err := store.SaveOutputs(run.ID, pipeOut); err != nil {
			log.Error().Err(err).Msg("Failed to save outputs")
		} else {
			log.Info().Str("run_id", run.ID).Msg("Run persisted")
		}
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
		}
	}

	if cfg.Telegram.Enabled {
		tg, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelay)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Telegram client")
		} else if err := tg.SendReport(run); err != nil {
			log.Error().Err(err).Msg("Failed to send Telegram report")
		}
	}

	if !report.Perfect() {
		os.Exit(1)
	}
}

// printReport renders the comparison the way the RTL bring-up scripts did:
// totals, the first mismatches, and a short sample of compared cycles.
func printReport(report parity.Report, refOut, pipeOut []models.Output) {
	line := strings.Repeat("=", 50)
	fmt.Println(line)
	fmt.Println("Pipeline vs Reference Signal Comparison")
	fmt.Println(line)
	fmt.Printf("Cycles compared: %d\n", report.Compared)
	fmt.Printf("Match rate: %.2f%%\n", report.MatchRate*100)
	fmt.Println()

	if len(report.Mismatches) > 0 {
		fmt.Printf("Mismatches: %d\n\n", len(report.Mismatches))
		fmt.Println("First 10 mismatches:")
		for i, mm := range report.Mismatches {
			if i == 10 {
				break
			}
			fmt.Printf("  cycle %4d (ref %4d): pipeline=%-4s reference=%-4s\n",
				mm.Cycle, mm.RefCycle, mm.Got, mm.Want)
		}
	} else {
		fmt.Println("All signals match!")
	}

	fmt.Println()
	fmt.Println("Sample of first 12 compared cycles:")
	shown := 0
	for i := pipeline.Latency; i < len(pipeOut) && shown < 12; i++ {
		j := i - pipeline.Latency
		if j >= len(refOut) || !pipeOut[i].Valid || !refOut[j].Valid {
			continue
		}
		fmt.Printf("  cycle %4d: pipeline=%-4s reference=%-4s\n", i, pipeOut[i].Signal, refOut[j].Signal)
		shown++
	}
}
