package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitchellh/panicwrap"
	"tinygo.org/x/bluetooth"

	"github.com/jgulick48/tilt2mqtt/internal/beacon"
	"github.com/jgulick48/tilt2mqtt/internal/bridge"
	"github.com/jgulick48/tilt2mqtt/internal/logging"
	"github.com/jgulick48/tilt2mqtt/internal/metrics"
	"github.com/jgulick48/tilt2mqtt/internal/models"
	"github.com/jgulick48/tilt2mqtt/internal/mqtt"
)

func main() {
	config, err := models.LoadConfig(os.Getenv)
	if err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}

	exitStatus, err := panicwrap.BasicWrap(panicHandler(config.LogFile))
	if err != nil {
		panic(err)
	}
	if exitStatus >= 0 {
		os.Exit(exitStatus)
	}

	if err = run(config); err != nil {
		log.Printf("tilt2mqtt stopped: %s", err)
		os.Exit(1)
	}
}

var enableAdapter = func(adapter *bluetooth.Adapter) error {
	return adapter.Enable()
}

// run owns every resource opened after logging is set up so their deferred
// cleanup happens before main exits.
func run(config models.Config) error {
	logFile, err := logging.Setup(os.Stderr, config.LogFile)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer logFile.Close()

	if err = metrics.Configure(config.StatsServer); err != nil {
		slog.Error("Statsd disabled", "error", err)
	}
	metrics.Serve(config.MetricsListen)

	adapter := bluetooth.DefaultAdapter
	if err = enableAdapter(adapter); err != nil {
		slog.Error("Failed to enable bluetooth adapter", "error", err)
		return fmt.Errorf("enabling bluetooth adapter: %w", err)
	}

	mqttClient := mqtt.NewClient(config.MQTT)
	if err = mqttClient.Connect(); err != nil {
		slog.Error("Error connecting to mqtt broker", "error", err)
	}
	defer mqttClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := bridge.NewClient(config, beacon.NewScanner(adapter), mqttClient)
	slog.Info("Starting tilt bridge",
		"broker", fmt.Sprintf("%s:%d", config.MQTT.Host, config.MQTT.Port),
		"scanWindow", config.ScanWindow,
		"scanInterval", config.ScanInterval)
	if err = client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bridge stopped: %w", err)
	}
	slog.Info("Shutting down")
	return nil
}

// panicHandler runs in the parent process and records a crash of the bridge in
// the log file before panicwrap exits.
func panicHandler(logFile string) panicwrap.HandlerFunc {
	return func(output string) {
		fmt.Fprintf(os.Stderr, "tilt2mqtt crashed:\n%s\n", output)
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return
		}
		defer file.Close()
		fmt.Fprintf(file, "%s - tilt2mqtt crashed:\n%s\n", time.Now().Format(time.RFC3339), output)
	}
}
