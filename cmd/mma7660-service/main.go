package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mma7660-service/internal/app"
)

var version = "dev"

func main() {
	defaults := app.DefaultConfig()

	configPath := flag.String("config", "", "YAML config file (flags given on the command line take precedence)")
	transport := flag.String("transport", defaults.Transport, "I2C transport: smbus or periph")
	i2cBus := flag.String("i2c-bus", defaults.I2CBus, "I2C bus device path (periph: bus name or number)")
	address := flag.Uint("address", uint(defaults.Address), "I2C address of the accelerometer")
	unbind := flag.Bool("unbind", defaults.Unbind, "Unbind the kernel mma7660 driver before opening the bus")
	maxBusyRetries := flag.Int("max-busy-retries", defaults.MaxBusyRetries, "Re-reads of a register while the device is updating it (0: unbounded)")
	pollInterval := flag.Duration("poll-interval", defaults.PollInterval, "Acquisition period while active")
	autosuspend := flag.Duration("autosuspend", defaults.Autosuspend, "Keep the device active this long after the last consumer leaves")
	irqChip := flag.String("irq-chip", defaults.IRQChip, "GPIO chip of the interrupt line")
	irqLine := flag.Int("irq-line", defaults.IRQLine, "GPIO offset of the interrupt line (-1: disabled)")
	redisAddr := flag.String("redis", defaults.RedisAddr, "Redis address")
	httpAddr := flag.String("http", defaults.HTTPAddr, "HTTP listen address for attributes, stat and event stream (empty: disabled)")
	mqttBroker := flag.String("mqtt-broker", defaults.MQTTBroker, "MQTT broker URL, e.g. tcp://localhost:1883 (empty: disabled)")
	mqttTopic := flag.String("mqtt-topic", defaults.MQTTTopic, "MQTT topic for sample batches")
	mqttClientID := flag.String("mqtt-client-id", defaults.MQTTClientID, "MQTT client ID")
	logLevel := flag.String("log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	shakeEnabled := flag.Bool("shake-enable", true, "Report shake detection (applied on startup)")
	tapEnabled := flag.Bool("tap-enable", true, "Report tap detection, 120 samples/s only (applied on startup)")
	sampleRate := flag.Int("sample-rate", 120, "Sample rate in samples/s: 120, 64, 32, 16, 8, 4, 2, 1 (applied on startup)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("mma7660-service %s\n", version)
		os.Exit(0)
	}

	cfg := defaults
	if *configPath != "" {
		if err := app.LoadConfigFile(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "transport":
			cfg.Transport = *transport
		case "i2c-bus":
			cfg.I2CBus = *i2cBus
		case "address":
			cfg.Address = uint8(*address)
		case "unbind":
			cfg.Unbind = *unbind
		case "max-busy-retries":
			cfg.MaxBusyRetries = *maxBusyRetries
		case "poll-interval":
			cfg.PollInterval = *pollInterval
		case "autosuspend":
			cfg.Autosuspend = *autosuspend
		case "irq-chip":
			cfg.IRQChip = *irqChip
		case "irq-line":
			cfg.IRQLine = *irqLine
		case "redis":
			cfg.RedisAddr = *redisAddr
		case "http":
			cfg.HTTPAddr = *httpAddr
		case "mqtt-broker":
			cfg.MQTTBroker = *mqttBroker
		case "mqtt-topic":
			cfg.MQTTTopic = *mqttTopic
		case "mqtt-client-id":
			cfg.MQTTClientID = *mqttClientID
		case "log-level":
			cfg.LogLevel = *logLevel
		case "shake-enable":
			cfg.ShakeEnabled = shakeEnabled
		case "tap-enable":
			cfg.TapEnabled = tapEnabled
		case "sample-rate":
			cfg.SampleRate = sampleRate
		}
	})

	if *address > 0x7F {
		fmt.Fprintf(os.Stderr, "invalid i2c address 0x%x\n", *address)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("mma7660-service "+version+" starting",
		"config", *configPath,
		"transport", cfg.Transport,
		"i2c_bus", cfg.I2CBus,
		"redis", cfg.RedisAddr,
		"http", cfg.HTTPAddr,
		"mqtt_broker", cfg.MQTTBroker,
		"poll_interval", cfg.PollInterval,
		"autosuspend", cfg.Autosuspend,
		"irq_line", cfg.IRQLine,
		"log_level", cfg.LogLevel)

	cfg.Logger = logger
	application := app.New(&cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- application.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received signal", "signal", sig)
		cancel()
		select {
		case <-errChan:
		case <-time.After(5 * time.Second):
			logger.Warn("shutdown timed out")
		}

	case err := <-errChan:
		if err != nil {
			logger.Error("application error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("mma7660-service stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
