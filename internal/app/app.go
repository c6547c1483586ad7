package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"mma7660-service/internal/command"
	"mma7660-service/internal/control"
	"mma7660-service/internal/events"
	"mma7660-service/internal/fsm"
	"mma7660-service/internal/hardware"
	"mma7660-service/internal/hardware/driver"
	"mma7660-service/internal/hardware/mma7660"
	"mma7660-service/internal/mqtt"
	"mma7660-service/internal/pm"
	"mma7660-service/internal/redis"
	"mma7660-service/internal/web"
)

// App represents the mma7660-service application
type App struct {
	cfg          *Config
	log          *slog.Logger
	device       *mma7660.Device
	controller   *control.Controller
	redis        *redis.Client
	publisher    *redis.Publisher
	hub          *events.Hub
	poller       *hardware.Poller
	inhibitor    *pm.Inhibitor
	stateMachine *fsm.StateMachine
	subscriber   *redis.Subscriber
	listener     *command.Listener
}

// New creates a new App
func New(cfg *Config) *App {
	return &App{
		cfg: cfg,
		log: cfg.Logger,
	}
}

// Run runs the application. Initialization failures are returned before any
// polling starts.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting mma7660-service",
		"transport", a.cfg.Transport,
		"i2c_bus", a.cfg.I2CBus,
		"addr", fmt.Sprintf("0x%02x", a.cfg.Address),
		"redis_addr", a.cfg.RedisAddr)

	if a.cfg.Unbind {
		if err := driver.UnbindMMA7660(a.cfg.I2CBus, a.cfg.Address); err != nil {
			return fmt.Errorf("unbind kernel driver: %w", err)
		}
	}

	bus, err := a.openBus()
	if err != nil {
		return err
	}

	a.device = mma7660.NewDevice(bus, a.cfg.MaxBusyRetries)
	defer a.device.Close()

	if err := a.device.Init(); err != nil {
		return fmt.Errorf("initialize accelerometer: %w", err)
	}
	a.log.Info("accelerometer initialized")

	a.controller = control.NewController(a.device, a.log)

	a.redis, err = redis.NewClient(a.cfg.RedisAddr, a.log)
	if err != nil {
		return fmt.Errorf("create redis client: %w", err)
	}
	if err := a.redis.Connect(ctx); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer a.redis.Close()

	a.publisher = redis.NewPublisher(a.redis, a.log)
	a.controller.SetNotifier(a.publisher)
	a.publisher.SettingsChanged(a.controller.Snapshot())

	a.applyInitialSettings()

	a.hub = events.NewHub()
	sinks := events.Fanout{a.publisher, a.hub}

	if a.cfg.MQTTBroker != "" {
		mqttSink, err := mqtt.Dial(a.cfg.MQTTBroker, a.cfg.MQTTClientID, a.cfg.MQTTTopic, a.log)
		if err != nil {
			return fmt.Errorf("connect to mqtt: %w", err)
		}
		defer mqttSink.Close()
		sinks = append(sinks, mqttSink)
	}

	a.poller = hardware.NewPoller(a.device, a.controller, sinks, a.cfg.PollInterval, a.log)

	var inhibitor fsm.SleepInhibitor = pm.Noop{}
	a.inhibitor, err = pm.NewInhibitor(a.log)
	if err != nil {
		a.log.Warn("system bus unavailable, not tracking system sleep", "error", err)
	} else {
		defer a.inhibitor.Close()
		if err := a.inhibitor.Acquire("Put accelerometer in standby"); err != nil {
			a.log.Warn("failed to acquire sleep inhibitor", "error", err)
		}
		inhibitor = a.inhibitor
	}

	a.stateMachine = fsm.New(
		a.device,
		a.poller,
		a.publisher,
		inhibitor,
		a.cfg.Autosuspend,
		a.log,
	)

	a.controller.SetStandbyHandler(a.stateMachine)

	diag := hardware.NewDiagnostic(a.device, a.controller)

	a.subscriber = redis.NewSubscriber(a.redis, a.controller, a.stateMachine, a.log)
	if err := a.subscriber.Start(); err != nil {
		return fmt.Errorf("start redis subscriber: %w", err)
	}
	defer a.subscriber.Stop()

	a.listener, err = command.NewListener(a.redis.Addr(), a.stateMachine, a.controller, diag, a.publisher, a.log)
	if err != nil {
		return fmt.Errorf("create command listener: %w", err)
	}
	defer a.listener.Close()

	if a.cfg.IRQLine >= 0 {
		irq, err := hardware.NewInterruptLine(a.cfg.IRQChip, a.cfg.IRQLine, a.poller, a.log)
		if err != nil {
			a.log.Warn("interrupt line unavailable, relying on polling", "error", err)
		} else {
			defer irq.Close()
		}
	}

	go a.stateMachine.Run(ctx)
	go a.poller.Run(ctx)
	go a.listener.ListenForCommands(ctx)

	if a.inhibitor != nil {
		go func() {
			err := a.inhibitor.WatchSleep(ctx,
				func() { a.stateMachine.SendEvent(fsm.SystemSleepEvent{}) },
				func() { a.stateMachine.SendEvent(fsm.SystemWakeEvent{}) },
			)
			if err != nil {
				a.log.Error("sleep watcher stopped", "error", err)
			}
		}()
	}

	if a.cfg.HTTPAddr != "" {
		srv := web.NewServer(a.cfg.HTTPAddr, a.controller, diag, a.stateMachine, a.hub, a.log)
		go func() {
			if err := srv.Run(ctx); err != nil {
				a.log.Error("http server stopped", "error", err)
			}
		}()
	}

	a.stateMachine.SendEvent(fsm.InitCompleteEvent{})

	<-ctx.Done()
	a.log.Info("shutting down")

	// leave the part in standby
	a.poller.Disable()
	emitted, skipped := a.poller.Stats()
	a.log.Info("acquisition totals", "emitted", emitted, "skipped", skipped)
	if err := a.device.Suspend(); err != nil {
		a.log.Warn("failed to suspend accelerometer", "error", err)
	}
	return nil
}

func (a *App) openBus() (mma7660.Bus, error) {
	switch a.cfg.Transport {
	case TransportPeriph:
		bus, err := mma7660.OpenPeriph(a.cfg.I2CBus, uint16(a.cfg.Address))
		if err != nil {
			return nil, fmt.Errorf("open i2c bus: %w", err)
		}
		return bus, nil
	default:
		bus, err := mma7660.OpenSMBus(a.cfg.I2CBus, a.cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("open i2c bus: %w", err)
		}
		return bus, nil
	}
}

// applyInitialSettings applies settings given on the command line or in the
// config file. The rate goes first since it constrains tap detection.
func (a *App) applyInitialSettings() {
	if a.cfg.SampleRate != nil {
		if err := a.controller.Set(control.FieldSampleRate, strconv.Itoa(*a.cfg.SampleRate)); err != nil {
			a.log.Error("failed to apply initial sample rate", "rate", *a.cfg.SampleRate, "error", err)
		}
	}
	if a.cfg.ShakeEnabled != nil {
		if err := a.controller.SetShakeEnabled(*a.cfg.ShakeEnabled); err != nil {
			a.log.Error("failed to apply initial shake setting", "error", err)
		}
	}
	if a.cfg.TapEnabled != nil {
		if err := a.controller.SetTapEnabled(*a.cfg.TapEnabled); err != nil {
			a.log.Error("failed to apply initial tap setting", "error", err)
		}
	}
}
