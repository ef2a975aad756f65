// Command light-controller holds an LED at scheduled brightness levels using
// light sensor feedback.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/sweeney/light-controller/internal/clock"
	"github.com/sweeney/light-controller/internal/config"
	"github.com/sweeney/light-controller/internal/control"
	"github.com/sweeney/light-controller/internal/gpio"
	"github.com/sweeney/light-controller/internal/power"
	"github.com/sweeney/light-controller/internal/pwm"
	"github.com/sweeney/light-controller/internal/sensor"
	"github.com/sweeney/light-controller/internal/status"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML hardware wiring file (empty uses the reference board)")
	verbose := pflag.BoolP("verbose", "v", false, "Log every sensor sample")
	printSchedule := pflag.Bool("print-schedule", false, "Print the phase schedule and exit")

	pflag.Parse()

	logger := newLogger(os.Stderr, *verbose)
	slog.SetDefault(logger)

	params := control.DefaultParams()
	if *printSchedule {
		writeSchedule(os.Stdout, params)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, params, logger)
	stop()
	if err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	}))
}

func run(ctx context.Context, cfg config.Config, params control.Params, logger *slog.Logger) error {
	// Initialize sensor
	reader, sensorDesc, err := openSensor(cfg.Sensor)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}

	var gate gpio.Switch
	if p := cfg.Sensor.Power; p != nil {
		sw, err := gpio.NewRealSwitch(p.Chip, p.Line, p.ActiveLow)
		if err != nil {
			reader.Close()
			return fmt.Errorf("init sensor power gate: %w", err)
		}
		gate = sw
	}

	sens := sensor.NewGated(reader, gate, logger.With("component", "sensor"))
	defer func() {
		if err := sens.Close(); err != nil {
			logger.Warn("sensor close failed", "err", err)
		}
	}()

	// Initialize PWM
	out, err := pwm.OpenSysfs(pwm.SysfsConfig{
		Chip:     cfg.PWM.Chip,
		Channel:  cfg.PWM.Channel,
		Period:   time.Duration(cfg.PWM.PeriodNs),
		Inverted: cfg.PWM.Inverted,
	})
	if err != nil {
		return fmt.Errorf("init pwm: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn("pwm close failed", "err", err)
		}
	}()
	actuator := pwm.NewActuator(out, logger.With("component", "pwm"))

	// Time base and sleep control
	tick := clock.NewTickClock(time.Duration(cfg.Clock.TickMs) * time.Millisecond)
	go tick.Run(ctx)
	sleeper := power.NewSleeper(time.Duration(cfg.Clock.IdleMs)*time.Millisecond, tick.Wake())

	ctrl := control.New(params, control.Hardware{
		Sensor:   sens,
		Clock:    tick,
		Actuator: actuator,
		Sleep:    sleeper,
	})

	heartbeat := time.Duration(cfg.HeartbeatMs) * time.Millisecond
	pwmDesc := fmt.Sprintf("pwmchip%d/pwm%d", cfg.PWM.Chip, cfg.PWM.Channel)
	tracker := status.NewTracker(time.Now(), status.Config{
		Sensor:      sensorDesc,
		PWM:         pwmDesc,
		TickMs:      int64(cfg.Clock.TickMs),
		HeartbeatMs: int64(cfg.HeartbeatMs),
	})

	logger.Info("started", "sensor", sensorDesc, "pwm", pwmDesc, "tick", tick.Period(), "heartbeat", heartbeat)

	return runLoop(ctx, ctrl, sens, sleeper, tracker, heartbeat, time.Now, logger)
}

func openSensor(cfg config.SensorConfig) (sensor.Reader, string, error) {
	switch cfg.Driver {
	case config.DriverADC101C:
		dev, err := sensor.OpenADC101C(cfg.I2CBus, cfg.I2CAddr)
		if err != nil {
			return nil, "", err
		}
		return dev, fmt.Sprintf("adc101c i2c-%d 0x%02x", cfg.I2CBus, cfg.I2CAddr), nil
	case config.DriverModbus:
		m := cfg.Modbus
		dev, err := sensor.OpenModbus(sensor.ModbusConfig{
			Device:    m.Device,
			BaudRate:  m.BaudRate,
			DataBits:  m.DataBits,
			Parity:    m.Parity,
			StopBits:  m.StopBits,
			SlaveID:   m.SlaveID,
			Timeout:   time.Duration(m.TimeoutMs) * time.Millisecond,
			Register:  m.Register,
			FullScale: m.FullScale,
		})
		if err != nil {
			return nil, "", err
		}
		return dev, fmt.Sprintf("modbus %s slave %d reg %d", m.Device, m.SlaveID, m.Register), nil
	}
	return nil, "", fmt.Errorf("unknown sensor driver %q", cfg.Driver)
}

// sleeper suspends the loop until the next wake.
type sleeper interface {
	Sleep(ctx context.Context) error
}

// runLoop configures the controller, then steps it until ctx is cancelled.
// The sensor is powered down after every step. Cancellation is only
// observed while sleeping, so a running dip always completes.
func runLoop(ctx context.Context, ctrl *control.Controller, sens control.Sensor, sl sleeper, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, logger *slog.Logger) error {
	ctrl.Configure()

	for {
		out := ctrl.Step()
		logOutcome(logger, ctrl, out)
		sens.Disable()

		if tracker != nil {
			at := now()
			tracker.Update(out, ctrl.Counts())
			if out.Entered {
				tracker.RecordEntry(at, out.State, out.Duty)
			}
			if snap, ok := tracker.CheckHeartbeat(at, heartbeat); ok {
				logger.Info("heartbeat", "status", snap)
			}
		}

		if err := sl.Sleep(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Info("shutting down", "state", ctrl.State(), "duty", ctrl.Duty())
				return nil
			}
			return fmt.Errorf("sleep: %w", err)
		}
	}
}

func logOutcome(logger *slog.Logger, ctrl *control.Controller, out control.Outcome) {
	if out.Entered {
		logger.Info("phase entered",
			"state", out.State,
			"target", out.Target,
			"duty", out.Duty,
			"duration", msDuration(ctrl.Timeout()),
			"next", ctrl.NextState())
	}
	if out.Advanced {
		logger.Info("phase complete", "next", out.State, "elapsed", msDuration(out.Elapsed))
		return
	}
	if out.Dipped {
		logger.Info("dip complete", "restored", out.Duty, "elapsed", msDuration(out.Elapsed))
	}
	if out.Sampled && out.Failed {
		logger.Debug("sample invalid, holding", "target", out.Target, "duty", out.Duty)
		return
	}
	if out.Sampled {
		logger.Debug("sample", "reading", out.Reading, "target", out.Target, "duty", out.Duty)
	}
}

func msDuration(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// writeSchedule prints the fixed phase table.
func writeSchedule(w io.Writer, p control.Params) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tTARGET\tSTART DUTY\tDURATION\tSLEEP\tNEXT")
	for _, ph := range p.Schedule() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%v\t%s\t%s\n",
			ph.State, ph.Target, p.GuessDuty(ph.Target), msDuration(ph.Timeout), ph.Sleep, ph.Next)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nsample every %v, max duty %d\n", msDuration(p.MeasurementInterval), p.MaxDuty)
	fmt.Fprintf(w, "dip every %v within a %v window: %d sweeps 0..%d, %v per step\n",
		msDuration(p.DipInterval), msDuration(p.DipWindow), p.DipRepeats, p.DipCeiling, p.DipStep)
}
