package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/thatsimonsguy/plant-controller/internal/gpio"
	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/policy"
	"github.com/thatsimonsguy/plant-controller/internal/sensors"
	"github.com/thatsimonsguy/plant-controller/internal/telemetry"
)

const (
	BackendThingSpeak  = "thingspeak"
	BackendThingsBoard = "thingsboard"
)

type GPIO struct {
	WateringRelay *int `json:"watering_relay" yaml:"watering_relay"`
	WateringLED   *int `json:"watering_led" yaml:"watering_led"`
	AlarmLED      *int `json:"alarm_led" yaml:"alarm_led"`
}

// Intervals are in milliseconds.
type Intervals struct {
	MoistureMS    int `json:"moisture_ms" yaml:"moisture_ms"`
	AirMS         int `json:"air_ms" yaml:"air_ms"`
	WaterMS       int `json:"water_ms" yaml:"water_ms"`
	CommandPollMS int `json:"command_poll_ms" yaml:"command_poll_ms"`
	LogMS         int `json:"log_ms" yaml:"log_ms"`
	TelemetryMS   int `json:"telemetry_ms" yaml:"telemetry_ms"`
	DisplayMS     int `json:"display_ms" yaml:"display_ms"`
	StatusMS      int `json:"status_ms" yaml:"status_ms"`
	MetricsMS     int `json:"metrics_ms" yaml:"metrics_ms"`
	IdleYieldMS   int `json:"idle_yield_ms" yaml:"idle_yield_ms"`
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (i Intervals) Moisture() time.Duration    { return ms(i.MoistureMS) }
func (i Intervals) Air() time.Duration         { return ms(i.AirMS) }
func (i Intervals) Water() time.Duration       { return ms(i.WaterMS) }
func (i Intervals) CommandPoll() time.Duration { return ms(i.CommandPollMS) }
func (i Intervals) Log() time.Duration         { return ms(i.LogMS) }
func (i Intervals) Telemetry() time.Duration   { return ms(i.TelemetryMS) }
func (i Intervals) Display() time.Duration     { return ms(i.DisplayMS) }
func (i Intervals) Status() time.Duration      { return ms(i.StatusMS) }
func (i Intervals) Metrics() time.Duration     { return ms(i.MetricsMS) }
func (i Intervals) IdleYield() time.Duration   { return ms(i.IdleYieldMS) }

type Hardware struct {
	I2CBus     string `json:"i2c_bus" yaml:"i2c_bus"`
	ADCAddress uint16 `json:"adc_address" yaml:"adc_address"`
	ADCChannel int    `json:"adc_channel" yaml:"adc_channel"`
	LCDAddress uint16 `json:"lcd_address" yaml:"lcd_address"`

	HumitureIIODir      string `json:"humiture_iio_dir" yaml:"humiture_iio_dir"`
	W1Root              string `json:"w1_root" yaml:"w1_root"`
	W1Device            string `json:"w1_device" yaml:"w1_device"`
	WaterResolutionBits int    `json:"water_resolution_bits" yaml:"water_resolution_bits"`

	SerialPort string `json:"serial_port" yaml:"serial_port"`
	SerialBaud int    `json:"serial_baud" yaml:"serial_baud"`

	RelayActiveHigh bool `json:"relay_active_high" yaml:"relay_active_high"`
	LEDActiveHigh   bool `json:"led_active_high" yaml:"led_active_high"`
}

type Telemetry struct {
	Enabled           bool   `json:"enabled" yaml:"enabled"`
	Backend           string `json:"backend" yaml:"backend"`
	ThingSpeakURL     string `json:"thingspeak_url" yaml:"thingspeak_url"`
	ThingSpeakAPIKey  string `json:"-" yaml:"-"`
	ThingsBoardBroker string `json:"thingsboard_broker" yaml:"thingsboard_broker"`
	ThingsBoardToken  string `json:"-" yaml:"-"`
}

type Config struct {
	ConfigFile string        `json:"-" yaml:"-"`
	EnvFile    string        `json:"-" yaml:"-"`
	LogLevel   zerolog.Level `json:"-" yaml:"-"`

	LogFile            string `json:"log_file" yaml:"log_file"`
	DataDir            string `json:"data_dir" yaml:"data_dir"`
	DBPath             string `json:"db_path" yaml:"db_path"`
	BootScriptFilePath string `json:"boot_script_file_path" yaml:"boot_script_file_path"`
	OSServicePath      string `json:"os_service_path" yaml:"os_service_path"`
	MainServicePath    string `json:"main_service_path" yaml:"main_service_path"`
	SafeMode           bool   `json:"safe_mode" yaml:"safe_mode"`

	Calibration          sensors.Calibration `json:"calibration" yaml:"calibration"`
	Thresholds           policy.Thresholds   `json:"thresholds" yaml:"thresholds"`
	EscalateSensorFaults *bool               `json:"escalate_sensor_faults" yaml:"escalate_sensor_faults"`
	MaxWateringSeconds   int                 `json:"max_watering_seconds" yaml:"max_watering_seconds"`

	Intervals Intervals `json:"intervals" yaml:"intervals"`
	Hardware  Hardware  `json:"hardware" yaml:"hardware"`
	GPIO      GPIO      `json:"gpio" yaml:"gpio"`
	Telemetry Telemetry `json:"telemetry" yaml:"telemetry"`

	EnableDatadog bool     `json:"enable_datadog" yaml:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr" yaml:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace" yaml:"dd_namespace"`
	DDTags        []string `json:"dd_tags" yaml:"dd_tags"`

	NtfyTopic string `json:"-" yaml:"-"`
}

func (cfg Config) Escalate() bool {
	return cfg.EscalateSensorFaults == nil || *cfg.EscalateSensorFaults
}

func (cfg Config) MaxWatering() time.Duration {
	return time.Duration(cfg.MaxWateringSeconds) * time.Second
}

// Outputs returns the relay and LEDs in a fixed order. validate guarantees the pins are set.
func (cfg Config) Outputs() (relay, wateringLED, alarmLED gpio.Output) {
	relay = gpio.Output{Name: "watering_relay", Pin: model.GPIOPin{Number: *cfg.GPIO.WateringRelay, ActiveHigh: cfg.Hardware.RelayActiveHigh}}
	wateringLED = gpio.Output{Name: "watering_led", Pin: model.GPIOPin{Number: *cfg.GPIO.WateringLED, ActiveHigh: cfg.Hardware.LEDActiveHigh}}
	alarmLED = gpio.Output{Name: "alarm_led", Pin: model.GPIOPin{Number: *cfg.GPIO.AlarmLED, ActiveHigh: cfg.Hardware.LEDActiveHigh}}
	return relay, wateringLED, alarmLED
}

func Load() Config {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to controller config file (.json or .yaml)")
	flag.StringVar(&cfg.EnvFile, "env-file", ".env", "Path to credentials file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)

	if err := cfg.readFile(); err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	cfg.loadCredentials()
	cfg.applyDefaults()
	cfg.validate()
	return cfg
}

// LoadFile reads path without touching flags or credentials. Used by the debug CLI.
func LoadFile(path string) (cfg Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid config %s: %v", path, r)
		}
	}()

	cfg.ConfigFile = path
	if err := cfg.readFile(); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	cfg.validate()
	return cfg, nil
}

func (cfg *Config) readFile() error {
	raw, err := os.ReadFile(cfg.ConfigFile)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(cfg.ConfigFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, cfg)
	default:
		err = json.Unmarshal(raw, cfg)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", cfg.ConfigFile, err)
	}
	return nil
}

// loadCredentials reads secrets from the env file, then the process environment.
func (cfg *Config) loadCredentials() {
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", cfg.EnvFile).Msg("Failed to load env file")
		}
	}
	if v := os.Getenv("THINGSPEAK_API_KEY"); v != "" {
		cfg.Telemetry.ThingSpeakAPIKey = v
	}
	if v := os.Getenv("THINGSBOARD_TOKEN"); v != "" {
		cfg.Telemetry.ThingsBoardToken = v
	}
	if v := os.Getenv("NTFY_TOPIC"); v != "" {
		cfg.NtfyTopic = v
	}
}

func (cfg *Config) applyDefaults() {
	setString(&cfg.LogFile, "/var/log/plant-controller.log")
	setString(&cfg.DataDir, "data/logs")
	setString(&cfg.DBPath, "data/history.db")
	setString(&cfg.BootScriptFilePath, "/usr/local/bin/plant-gpio-init.sh")
	setString(&cfg.OSServicePath, "/etc/systemd/system/plant-gpio-init.service")
	setString(&cfg.MainServicePath, "/etc/systemd/system/plant-controller.service")

	if cfg.Calibration == (sensors.Calibration{}) {
		cfg.Calibration = sensors.Calibration{Dry: 17500, Wet: 7800}
	}
	if cfg.Thresholds == (policy.Thresholds{}) {
		cfg.Thresholds = policy.Thresholds{AirTempMax: 35, AirHumidityMin: 40, WaterTempLow: 5, WaterTempHigh: 35}
	}

	iv := &cfg.Intervals
	setInt(&iv.MoistureMS, 1000)
	setInt(&iv.AirMS, 2000)
	setInt(&iv.WaterMS, 1000)
	setInt(&iv.CommandPollMS, 50)
	setInt(&iv.LogMS, 10000)
	setInt(&iv.TelemetryMS, 20000)
	setInt(&iv.DisplayMS, 1000)
	setInt(&iv.StatusMS, 5000)
	setInt(&iv.MetricsMS, 10000)
	setInt(&iv.IdleYieldMS, 5)

	hw := &cfg.Hardware
	if hw.ADCAddress == 0 {
		hw.ADCAddress = 0x48
	}
	if hw.LCDAddress == 0 {
		hw.LCDAddress = 0x27
	}
	setString(&hw.HumitureIIODir, "/sys/bus/iio/devices/iio:device0")
	setString(&hw.W1Root, sensors.W1Devices)
	setInt(&hw.WaterResolutionBits, 9)
	setString(&hw.SerialPort, "/dev/serial0")
	setInt(&hw.SerialBaud, 9600)

	setString(&cfg.Telemetry.Backend, BackendThingSpeak)
	setString(&cfg.DDAgentAddr, "127.0.0.1:8125")
	setString(&cfg.DDNamespace, "plant.")
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) validate() {
	var (
		missingFields []string
		usedPins      = map[int]string{}
		conflicts     []string
	)

	v := reflect.ValueOf(cfg.GPIO)
	t := reflect.TypeOf(cfg.GPIO)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Tag.Get("json")

		if field.IsNil() {
			missingFields = append(missingFields, "gpio."+fieldName)
			continue
		}

		pin := field.Elem().Int()
		if other, exists := usedPins[int(pin)]; exists {
			conflicts = append(conflicts, fmt.Sprintf("gpio.%s and gpio.%s both use pin %d", fieldName, other, pin))
		} else {
			usedPins[int(pin)] = fieldName
		}
	}

	if len(missingFields) > 0 {
		panic("Missing required GPIO config fields: " + strings.Join(missingFields, ", "))
	}
	if len(conflicts) > 0 {
		panic("Conflicting GPIO pins: " + strings.Join(conflicts, ", "))
	}
	if cfg.Calibration.Dry == cfg.Calibration.Wet {
		panic(fmt.Sprintf("Moisture calibration dry and wet are both %d", cfg.Calibration.Dry))
	}
	if cfg.Telemetry.Enabled {
		if cfg.Intervals.Telemetry() < telemetry.MinInterval {
			panic(fmt.Sprintf("Telemetry interval %s is below the %s rate limit", cfg.Intervals.Telemetry(), telemetry.MinInterval))
		}
		switch cfg.Telemetry.Backend {
		case BackendThingSpeak, BackendThingsBoard:
		default:
			panic("Unknown telemetry backend: " + cfg.Telemetry.Backend)
		}
	}
	if cfg.Thresholds.WaterTempLow >= cfg.Thresholds.WaterTempHigh {
		panic("Water temperature band is empty: water_temp_low must be below water_temp_high")
	}
}
