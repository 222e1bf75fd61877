package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/stratolink/flightcore/internal/board"
	"github.com/stratolink/flightcore/internal/flight"
	"github.com/stratolink/flightcore/internal/flightlog"
	"github.com/stratolink/flightcore/internal/platform"
	"github.com/stratolink/flightcore/internal/sim"
)

const storageDir = "data"

// Run drives a complete simulated flight: it builds the world, wires
// the flight machine to it, and loops wake cycles until the configured
// tick budget is spent or the context is cancelled.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	sessionID, err := store.CreateSession(ctx, board.Name, config)
	if err != nil {
		return fmt.Errorf("creating flight session: %w", err)
	}
	recorder := store.NewRecorder(sessionID, flightlog.WithRecorderLogger(logger))

	world := sim.NewWorld(sim.WorldConfig{
		InitialMv:   config.Sim.InitialMv,
		DayLength:   config.Sim.DayLength,
		NightLength: config.Sim.NightLength,
		PeakSolarMv: config.Sim.PeakSolarMv,
		StartLat:    config.Sim.StartLat,
		StartLon:    config.Sim.StartLon,
		FloatAltM:   config.Sim.FloatAltitudeM,
		LossRate:    config.Sim.LossRate,
		Seed:        config.Sim.Seed,
	})

	if config.Sim.FreefallAfter > 0 {
		world.Wake.ScheduleFreefall(world.Clock.Now().Add(config.Sim.FreefallAfter))
	}

	if config.GroundFeed.Enabled {
		feed, err := sim.NewGroundFeed(config.GroundFeed.Broker, config.GroundFeed.ClientID, config.GroundFeed.Topic)
		if err != nil {
			return fmt.Errorf("connecting ground feed: %w", err)
		}
		defer feed.Close()
		world.Radio.Forward(feed)

		logger.Info("ground feed connected",
			slog.String("broker", config.GroundFeed.Broker),
			slog.String("topic", config.GroundFeed.Topic))
	}

	var stateStore flight.StateStore = &flight.MemoryStore{}
	if config.Storage.StateFile != "" {
		stateStore = sim.NewFileStore(config.Storage.StateFile)
	}

	machine, err := flight.NewMachine(
		flight.Config{
			BasePeriod:     config.Flight.BasePeriod,
			FixTimeoutHot:  config.Flight.FixTimeoutHot,
			FixTimeoutCold: config.Flight.FixTimeoutCold,
			HotFixMaxAge:   config.Flight.HotFixMaxAge,
		},
		world.Cap, world.Gnss, world.Radio, stateStore,
		flight.WithLogger(logger),
		flight.WithRecorder(recorder),
		flight.WithSampler(world.Sampler),
		flight.WithClock(world.Clock.Now),
	)
	if err != nil {
		return fmt.Errorf("creating flight machine: %w", err)
	}
	machine.Freefall().Arm(world.Wake)

	if config.Bench.GpioChip != "" {
		irq, err := platform.NewIrqLine(config.Bench.GpioChip, config.Bench.GpioLine)
		if err != nil {
			return fmt.Errorf("opening bench interrupt line: %w", err)
		}
		defer irq.Close()
		machine.Freefall().Arm(irq)

		logger.Info("bench interrupt line armed",
			slog.String("chip", config.Bench.GpioChip),
			slog.Int("line", config.Bench.GpioLine))
	}

	logger.Info("flight started",
		slog.Int64("sessionId", sessionID),
		slog.Int("ticks", config.Sim.Ticks),
		slog.Time("launch", world.Clock.Now()))

	wake := platform.WakeTimer
	for i := 0; i < config.Sim.Ticks; i++ {
		res := machine.Tick(ctx, wake)
		world.ApplyCycle(res)

		logger.Debug("cycle complete",
			slog.Uint64("tick", res.Tick),
			slog.String("tier", res.Reading.Tier.String()),
			slog.String("mode", machine.State().Mode.String()),
			slog.Int("storedMv", res.Reading.StoredMv),
			slog.Bool("fix", res.FixObtained),
			slog.Bool("delivered", res.Delivered),
			slog.Duration("sleep", res.SleepFor))

		if wake, err = world.Wake.Wait(ctx, res.SleepFor); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			return fmt.Errorf("waiting for wake: %w", err)
		}
	}

	sent, delivered := world.Radio.Counts()
	state := machine.State()

	logger.Info("flight finished",
		slog.Time("landed", world.Clock.Now()),
		slog.Uint64("ticks", state.Tick),
		slog.String("tier", state.Tier.String()),
		slog.String("mode", state.Mode.String()),
		slog.Int("storedMv", world.Cap.VoltageMv()),
		slog.Group("beacons",
			slog.Int("sent", sent),
			slog.Int("delivered", delivered)))

	return nil
}

func createStorage(config *StorageConfig) (*flightlog.Store, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	dbPath := filepath.Join(wd, storageDir)
	if config.DataDirectory != "" {
		dbPath = filepath.Join(wd, config.DataDirectory)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("flight_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return flightlog.New(dbPath), nil
}
