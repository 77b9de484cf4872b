package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/thatsimonsguy/plant-controller/db"
	"github.com/thatsimonsguy/plant-controller/internal/actuation"
	"github.com/thatsimonsguy/plant-controller/internal/command"
	"github.com/thatsimonsguy/plant-controller/internal/config"
	"github.com/thatsimonsguy/plant-controller/internal/controller"
	"github.com/thatsimonsguy/plant-controller/internal/datadog"
	"github.com/thatsimonsguy/plant-controller/internal/datalog"
	"github.com/thatsimonsguy/plant-controller/internal/display"
	"github.com/thatsimonsguy/plant-controller/internal/gpio"
	"github.com/thatsimonsguy/plant-controller/internal/logging"
	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/notifications"
	"github.com/thatsimonsguy/plant-controller/internal/schedule"
	"github.com/thatsimonsguy/plant-controller/internal/sensors"
	"github.com/thatsimonsguy/plant-controller/internal/telemetry"
	"github.com/thatsimonsguy/plant-controller/system/shutdown"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Msg("Starting plant controller")

	gpio.SetSafeMode(cfg.SafeMode)
	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED - GPIO writes are disabled system-wide")
	}

	relay, wateringLED, alarmLED := cfg.Outputs()
	outputs := []gpio.Output{relay, wateringLED, alarmLED}

	if !cfg.SafeMode {
		if err := gpio.ValidateStartupPins(outputs); err != nil {
			log.Fatal().Err(err).Msg("Refusing to start due to unsafe pin states")
		}
	}
	shutdown.Register(cfg.SafeMode, relay.Pin, wateringLED.Pin, alarmLED.Pin)

	logger, err := datalog.Open(cfg.DataDir, nil)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("Data log storage unavailable")
	}

	var history *db.History
	if dbConn, err := db.Open(cfg.DBPath); err != nil {
		log.Warn().Err(err).Str("path", cfg.DBPath).Msg("History database unavailable, continuing without it")
	} else {
		defer dbConn.Close()
		history = db.NewHistory(dbConn)
		logger.SetMirror(history)
	}

	ntfy := notifications.New("", cfg.NtfyTopic)
	var notifier sensors.Notifier
	var listeners []actuation.AlarmListener
	if ntfy != nil {
		notifier = ntfy
		listeners = append(listeners, ntfy)
	}
	reporter := sensors.NewLogReporter(notifier)

	if _, err := host.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise periph host drivers")
	}
	bus, err := i2creg.Open(cfg.Hardware.I2CBus)
	if err != nil {
		log.Fatal().Err(err).Str("bus", cfg.Hardware.I2CBus).Msg("Failed to open I2C bus")
	}
	defer bus.Close()

	drivers, adc := buildDrivers(cfg, bus, reporter)
	defer func() {
		if err := adc.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to halt moisture ADC")
		}
	}()

	watering := actuation.NewWatering(relay, wateringLED, cfg.MaxWatering())
	if history != nil {
		watering.SetRecorder(history)
	}
	alarm := actuation.NewAlarmIndicator(alarmLED, listeners...)

	ctl := controller.New(schedule.NewMonotonicClock(), drivers, watering, alarm, controller.Options{
		Thresholds:           cfg.Thresholds,
		EscalateSensorFaults: cfg.Escalate(),
		IdleYield:            cfg.Intervals.IdleYield(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	link, err := command.OpenSerial(cfg.Hardware.SerialPort, cfg.Hardware.SerialBaud)
	if err != nil {
		log.Warn().Err(err).Str("port", cfg.Hardware.SerialPort).Msg("Command channel unavailable")
	} else {
		defer link.Close()
		ctl.SetCommandHandler(command.NewHandler(link, link, watering), cfg.Intervals.CommandPoll())
	}

	ctl.AddTask("datalog", cfg.Intervals.Log(), func(_ schedule.Millis, env model.EnvironmentState) {
		logger.Log(env)
	})

	if cfg.Telemetry.Enabled {
		backend := buildBackend(cfg)
		if tb, ok := backend.(*telemetry.ThingsBoard); ok {
			defer tb.Close()
		}
		uploader := telemetry.NewUploader(backend)
		ctl.AddTask("telemetry", cfg.Intervals.Telemetry(), func(_ schedule.Millis, env model.EnvironmentState) {
			uploader.Run(ctx, env)
		})
	}

	if lcd, err := display.NewLCD(bus, cfg.Hardware.LCDAddress); err != nil {
		log.Warn().Err(err).Msg("LCD unavailable")
	} else if screen, err := display.NewScreen(lcd); err != nil {
		log.Warn().Err(err).Msg("LCD unavailable")
	} else {
		ctl.AddTask("display", cfg.Intervals.Display(), func(_ schedule.Millis, env model.EnvironmentState) {
			screen.Refresh(env)
		})
	}

	if link != nil {
		status := command.NewStatusReporter(link, nil)
		ctl.AddTask("status", cfg.Intervals.Status(), func(_ schedule.Millis, env model.EnvironmentState) {
			status.Send(env)
		})
	}

	if cfg.EnableDatadog {
		datadog.InitMetrics(cfg.DDAgentAddr, cfg.DDNamespace, cfg.DDTags)
		defer datadog.Close()
		ctl.AddTask("metrics", cfg.Intervals.Metrics(), func(_ schedule.Millis, env model.EnvironmentState) {
			datadog.EmitEnvironment(env)
			datadog.EmitSensorHealth(ctl.Statuses())
		})
	}

	ctl.Run(ctx)
	shutdown.Release()
	log.Info().Msg("Plant controller stopped")
}

func buildDrivers(cfg config.Config, bus i2c.Bus, rep sensors.Reporter) ([]sensors.Driver, *sensors.ADS1115) {
	var drivers []sensors.Driver

	adc, err := sensors.NewADS1115(bus, cfg.Hardware.ADCAddress, cfg.Hardware.ADCChannel)
	if err != nil {
		log.Fatal().Err(err).Msg("Moisture ADC unavailable")
	}
	drivers = append(drivers, sensors.NewMoisture(adc, cfg.Calibration, cfg.Intervals.Moisture(), rep))

	drivers = append(drivers, sensors.NewAir(sensors.NewIIOHumiture(cfg.Hardware.HumitureIIODir), cfg.Intervals.Air(), rep))

	device := cfg.Hardware.W1Device
	if device == "" {
		if device, err = sensors.DiscoverW1Device(cfg.Hardware.W1Root); err != nil {
			log.Warn().Err(err).Msg("No water probe found, readings will fail until one appears")
			device = "28-missing"
		}
	}
	probe := sensors.NewW1Probe(cfg.Hardware.W1Root, device)
	if err := probe.SetResolution(cfg.Hardware.WaterResolutionBits); err != nil {
		log.Warn().Err(err).Int("bits", cfg.Hardware.WaterResolutionBits).Msg("Could not set water probe resolution")
	}
	conversion := sensors.ConversionTime(cfg.Hardware.WaterResolutionBits)
	drivers = append(drivers, sensors.NewWater(probe, cfg.Intervals.Water(), conversion, rep))

	log.Info().Str("w1_device", device).Dur("conversion", conversion).Msg("Sensors configured")
	return drivers, adc
}

func buildBackend(cfg config.Config) telemetry.Backend {
	switch cfg.Telemetry.Backend {
	case config.BackendThingsBoard:
		return telemetry.NewThingsBoard(cfg.Telemetry.ThingsBoardBroker, cfg.Telemetry.ThingsBoardToken)
	default:
		if cfg.Telemetry.ThingSpeakAPIKey == "" {
			log.Warn().Msg("THINGSPEAK_API_KEY not set, uploads will be rejected")
		}
		return telemetry.NewThingSpeak(cfg.Telemetry.ThingSpeakURL, cfg.Telemetry.ThingSpeakAPIKey)
	}
}
