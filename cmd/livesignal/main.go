package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/mlvaux/tickpipe/internal/config"
	"github.com/mlvaux/tickpipe/internal/feed"
	"github.com/mlvaux/tickpipe/internal/fixed"
	"github.com/mlvaux/tickpipe/internal/logging"
	"github.com/mlvaux/tickpipe/internal/metrics"
	"github.com/mlvaux/tickpipe/internal/models"
	"github.com/mlvaux/tickpipe/internal/pipeline"
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

	if len(cfg.Live.Symbols) == 0 {
		log.Fatal().Msg("live.symbols must list at least one symbol")
	}

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelay)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Telegram client")
		}
		log.Info().Msg("Telegram client initialized successfully")
	} else {
		log.Debug().Msg("Telegram notifications disabled")
	}

	if cfg.Metrics.Enabled {
		_ = metrics.Serve(cfg.Metrics.ListenAddr)
		log.Info().Str("addr", cfg.Metrics.ListenAddr).Msg("Metrics endpoint serving")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if cfg.Telegram.Enabled && telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	f := feed.New(feed.Config{
		Source:       cfg.Live.Source,
		WSURL:        cfg.Live.WSURL,
		RestURL:      cfg.Live.RestURL,
		Symbols:      cfg.Live.Symbols,
		PollInterval: cfg.Live.PollInterval,
		Timeout:      cfg.Live.Timeout,
	})

	updates := make(chan feed.Update, 256)
	feedErrCh := make(chan error, 1)
	go func() {
		feedErrCh <- f.Run(ctx, updates)
	}()

	log.Info().
		Str("source", cfg.Live.Source).
		Strs("symbols", cfg.Live.Symbols).
		Uint("fast_shift", cfg.Engine.FastShift).
		Uint("slow_shift", cfg.Engine.SlowShift).
		Msg("Live signal daemon started")

	tr := newTracker(pipeline.Config{
		FastShift: cfg.Engine.FastShift,
		SlowShift: cfg.Engine.SlowShift,
	}, telegramClient)

	for {
		select {
		case <-ctx.Done():
			tr.drain()
			log.Info().Msg("Service stopped")
			return

		case err := <-feedErrCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				if telegramClient != nil {
					if sendErr := telegramClient.SendError(err); sendErr != nil {
						log.Warn().Err(sendErr).Msg("Failed to send error notification to Telegram")
					}
				}
				tr.drain()
				log.Fatal().Err(err).Msg("Feed terminated")
			}
			tr.drain()
			log.Info().Msg("Service stopped")
			return

		case upd := <-updates:
			tr.observe(upd)
		}
	}
}

// tracker drives one pipeline instance per symbol and reports transitions of
// the emitted signal. Every update becomes exactly one cycle, so feed gaps
// travel through the datapath as bubbles instead of being dropped, and the
// in-flight price queue keeps each emitted signal paired with the price of
// the tick that produced it rather than the newest one.
type tracker struct {
	cfg      pipeline.Config
	tg       *telegram.Client
	pipes    map[string]*pipeline.Pipeline
	index    map[string]int
	inflight map[string][]fixed.Point
	last     map[string]models.Signal
}

func newTracker(cfg pipeline.Config, tg *telegram.Client) *tracker {
	return &tracker{
		cfg:      cfg,
		tg:       tg,
		pipes:    make(map[string]*pipeline.Pipeline),
		index:    make(map[string]int),
		inflight: make(map[string][]fixed.Point),
		last:     make(map[string]models.Signal),
	}
}

func (t *tracker) observe(upd feed.Update) {
	p, ok := t.pipes[upd.Symbol]
	if !ok {
		p = pipeline.New(t.cfg)
		t.pipes[upd.Symbol] = p
		log.Info().Str("symbol", upd.Symbol).Msg("Tracking new symbol")
	}

	tick := models.Tick{Index: t.index[upd.Symbol], Price: upd.Price, Valid: upd.Valid}
	t.index[upd.Symbol]++

	if upd.Valid {
		metrics.LastPrice.WithLabelValues(upd.Symbol).Set(upd.Price.Float())
	}

	aligned := t.alignPrice(upd.Symbol, upd.Price)
	t.emit(upd.Symbol, p.Step(tick), aligned)
}

// alignPrice records the price entering the datapath and returns the price
// of the tick whose output surfaces on the same cycle, pipeline.Latency
// presentations earlier. Invalid and drain cycles shift a placeholder
// through so the queue depth always matches the register depth.
func (t *tracker) alignPrice(symbol string, in fixed.Point) fixed.Point {
	q := append(t.inflight[symbol], in)
	var aligned fixed.Point
	if len(q) > pipeline.Latency {
		aligned, q = q[0], q[1:]
	}
	t.inflight[symbol] = q
	return aligned
}

// drain flushes the last Latency cycles of every tracked pipeline so no
// in-flight signal is lost on shutdown.
func (t *tracker) drain() {
	for symbol, p := range t.pipes {
		for _, out := range p.Drain() {
			t.emit(symbol, out, t.alignPrice(symbol, 0))
		}
	}
}

func (t *tracker) emit(symbol string, out models.Output, price fixed.Point) {
	if !out.Valid {
		return
	}
	metrics.SignalsTotal.WithLabelValues(symbol, out.Signal.String()).Inc()

	prev, seen := t.last[symbol]
	if seen && prev == out.Signal {
		return
	}
	t.last[symbol] = out.Signal

	log.Info().
		Str("symbol", symbol).
		Str("signal", out.Signal.String()).
		Str("price", price.String()).
		Str("fast", out.Fast.String()).
		Str("slow", out.Slow.String()).
		Int("cycle", out.Cycle).
		Msg("Signal transition")

	if t.tg != nil {
		if err := t.tg.SendSignal(symbol, out.Signal, price, out.Fast, out.Slow); err != nil {
			log.Warn().Err(err).Msg("Failed to send signal notification to Telegram")
		}
	}
}
