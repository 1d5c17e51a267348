package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rdren0/literate-waddle/internal/command"
	"github.com/rdren0/literate-waddle/internal/history"
	"github.com/rdren0/literate-waddle/internal/httpserver"
	"github.com/rdren0/literate-waddle/internal/solo"
	"github.com/rdren0/literate-waddle/internal/store"
	"github.com/rdren0/literate-waddle/internal/trivia"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	bank := trivia.Load()
	log.Info().Int("questions", bank.Size()).Msg("question bank loaded")

	// History is best-effort: a broken database disables it, play continues.
	var hist *history.Store
	if dsn := getEnv("TRIVIA_DB", "./data/trivia.db"); dsn != "off" {
		h, err := history.Open(dsn)
		if err != nil {
			log.Warn().Err(err).Str("dsn", dsn).Msg("history disabled")
		} else {
			hist = h
			defer hist.Close()
		}
	}

	rooms := store.NewRooms()
	hub := httpserver.NewHub()

	soloMgr := solo.NewManager(
		bank,
		getEnvInt("MAX_SOLO_SESSIONS", solo.DefaultMaxSessions),
		getEnvDuration("SOLO_IDLE_TIMEOUT", solo.DefaultIdleTimeout),
		getEnvDuration("SOLO_SWEEP_EVERY", solo.DefaultSweepEvery),
		nil,
	)

	dispatcher := command.NewDispatcher(
		bank, rooms, soloMgr, hist, hub.Publish,
		getEnvDuration("QUESTION_TIMEOUT", command.DefaultQuestionTimeout),
	)
	soloMgr.SetOnPromote(dispatcher.NotifyPromotion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go soloMgr.Run(ctx)
	go sweepRooms(ctx, rooms,
		getEnvDuration("ROOM_IDLE_TIMEOUT", 2*time.Hour),
		getEnvDuration("ROOM_SWEEP_EVERY", 5*time.Minute))

	srv := httpserver.New(bank, rooms, dispatcher, hub, hist,
		getEnvFloat("RATE_LIMIT_RPS", 10))
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting trivia engine")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func sweepRooms(ctx context.Context, rooms *store.Rooms, idle, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rooms.SweepIdle(idle, time.Now()); n > 0 {
				log.Info().Int("rooms", n).Msg("idle rooms swept")
			}
		}
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
