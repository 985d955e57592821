package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"i4.energy/across/gsmat/gsm"
	"i4.energy/across/gsmat/modem"
)

func main() {
	configFile := flag.String("config", "", "Path to an INI configuration file")
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	flag.Int("baud-rate", 115200, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("sim-pin", "", "SIM card PIN code (if required)")
	flag.String("apn", "", "Access point name used for GPRS")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configFile), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	mode := modem.DefaultSerialMode
	mode.BaudRate = config.BaudRate
	modemConfig, err := modem.NewConfigBuilder().
		WithATTimeout(5 * time.Second).
		WithInitTimeout(30 * time.Second).
		WithSimPIN(config.SimPIN).
		WithAPN(config.APN).
		WithLogger(logger.With("component", "modem")).
		WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			Mode:     &mode,
		}).
		Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		logger.Error("Failed to create modem", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting GSM gateway", "port", config.SerialPort, "baud", config.BaudRate)

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- m.Loop(ctx)
	}()
	go logEvents(logger.With("component", "events"), m.Events())

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger: logger.With("component", "server"),
			Modem:  m,
		},
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal or modem failure
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-loopDone:
		logger.Error("Modem loop stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	logger.Info("Closing modem connection")
	if err := m.Close(); err != nil && !errors.Is(err, modem.ErrAlreadyClosed) {
		logger.Error("Failed to close modem", "error", err)
	}
}

// logEvents logs modem notifications.
func logEvents(logger *slog.Logger, events <-chan gsm.Notification) {
	for n := range events {
		attrs := []any{"event", n.Event}
		switch n.Event {
		case gsm.EventIdle:
			attrs = append(attrs, "command", n.Command, "result", gsm.ResultOf(n.Err))
		case gsm.EventSMSReceived:
			attrs = append(attrs, "memory", n.Memory, "index", n.Index)
		case gsm.EventConnDataReceived, gsm.EventConnClosed:
			attrs = append(attrs, "slot", n.Slot)
		case gsm.EventCallCLCC:
			attrs = append(attrs, "number", n.Call.Number, "state", n.Call.State)
		case gsm.EventNetworkChanged:
			attrs = append(attrs, "network", n.Network)
		case gsm.EventGPRSAttachError:
			attrs = append(attrs, "error", n.Err)
		}
		if n.Event == gsm.EventUVPowerDown || n.Event == gsm.EventUVWarning {
			logger.Warn("Modem event", attrs...)
			continue
		}
		logger.Info("Modem event", attrs...)
	}
}
