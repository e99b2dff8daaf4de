package bridge

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jgulick48/tilt2mqtt/internal/beacon"
	"github.com/jgulick48/tilt2mqtt/internal/metrics"
	"github.com/jgulick48/tilt2mqtt/internal/models"
	"github.com/jgulick48/tilt2mqtt/internal/tilt"
)

type State int32

const (
	StateIdle State = iota
	StateScanning
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	default:
		return "idle"
	}
}

type Publisher interface {
	Publish(color tilt.Color, reading tilt.Reading) error
}

type Client interface {
	Run(ctx context.Context) error
	State() State
}

type client struct {
	scanner   beacon.Scanner
	publisher Publisher
	window    time.Duration
	interval  time.Duration
	state     atomic.Int32
}

func NewClient(config models.Config, scanner beacon.Scanner, publisher Publisher) Client {
	return &client{
		scanner:   scanner,
		publisher: publisher,
		window:    config.ScanWindow.Duration,
		interval:  config.ScanInterval.Duration,
	}
}

func (c *client) State() State {
	return State(c.state.Load())
}

// Run alternates scan windows and idle periods until ctx is cancelled.
func (c *client) Run(ctx context.Context) error {
	for {
		if err := c.scanWindow(ctx); err != nil {
			return err
		}
		slog.Debug("Waiting for next scan period", "interval", c.interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.interval):
		}
	}
}

// scanWindow listens for one window. Sightings are processed off the window's
// goroutine so a slow broker never stretches the window, but strictly in
// arrival order so the retained message is always the newest reading.
// Anything still queued once scanning stops is discarded.
func (c *client) scanWindow(ctx context.Context) error {
	if err := c.scanner.SetScanning(true); err != nil {
		slog.Error("Unable to start scanning", "error", err)
		return nil
	}
	c.state.Store(int32(StateScanning))
	slog.Info("Started scanning", "window", c.window)

	var wg sync.WaitGroup
	var result error
	previous := make(chan struct{})
	close(previous)
	events := c.scanner.Advertisements()
	timer := time.NewTimer(c.window)
	defer timer.Stop()
listen:
	for {
		select {
		case adv := <-events:
			done := make(chan struct{})
			wg.Add(1)
			go func(adv beacon.Advertisement, previous <-chan struct{}, done chan<- struct{}) {
				defer wg.Done()
				defer close(done)
				<-previous
				c.process(adv)
			}(adv, previous, done)
			previous = done
		case <-timer.C:
			break listen
		case <-ctx.Done():
			result = ctx.Err()
			break listen
		}
	}

	if err := c.scanner.SetScanning(false); err != nil {
		slog.Error("Unable to stop scanning", "error", err)
	}
	c.state.Store(int32(StateIdle))
	slog.Info("Stopped scanning")
	discarded := drain(events)
	if discarded > 0 {
		slog.Debug("Discarded sightings received after the scan window", "count", discarded)
	}
	wg.Wait()
	return result
}

func drain(events <-chan beacon.Advertisement) int {
	count := 0
	for {
		select {
		case <-events:
			count++
		default:
			return count
		}
	}
}

func (c *client) process(adv beacon.Advertisement) {
	logger := slog.With("address", adv.Address, "uuid", adv.UUID)
	logger.Info("Received advertisement", "rssi", adv.RSSI, "major", adv.Major, "minor", adv.Minor)

	color, err := tilt.Lookup(adv.UUID)
	if err != nil {
		logger.Error("Unable to decode tilt color", "error", err)
	}
	reading, err := tilt.Decode(adv.Major, adv.Minor)
	if err != nil {
		logger.Error("Device does not look like a Tilt Hydrometer", "error", err)
		return
	}
	metrics.RecordReading(color, adv.RSSI, reading)
	if err = c.publisher.Publish(color, reading); err != nil {
		logger.Error("Unable to publish reading", "color", color, "error", err)
		metrics.RecordPublishFailure(color)
		return
	}
	logger.Debug("Published reading", "color", color, "specific_gravity", reading.SpecificGravity, "temperature_fahrenheit", reading.TempFahrenheit)
}
