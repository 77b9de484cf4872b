package datadog

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/model"
)

// statsdClient is the subset of *statsd.Client used here.
type statsdClient interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Close() error
}

var dogstatsd statsdClient

func InitMetrics(addr, namespace string, tags []string) {
	c, err := statsd.New(addr)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client")
		return
	}

	c.Namespace = namespace
	c.Tags = tags
	dogstatsd = c

	log.Info().
		Str("addr", addr).
		Str("namespace", namespace).
		Strs("tags", tags).
		Msg("Datadog metrics initialized")
}

func Gauge(name string, value float64, tags ...string) {
	if dogstatsd != nil {
		err := dogstatsd.Gauge(name, value, tags, 1)
		if err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
		}
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// EmitEnvironment publishes one gauge per environment field.
func EmitEnvironment(env model.EnvironmentState) {
	Gauge("moisture_percent", float64(env.MoisturePercent))
	Gauge("air_temp", env.AirTemp)
	Gauge("air_humidity", env.AirHumidity)
	Gauge("water_temp", env.WaterTemperature)
	Gauge("alarm_active", boolGauge(env.AlarmActive))
	Gauge("watering_active", boolGauge(env.WateringActive))
}

// EmitSensorHealth publishes a 0/1 health gauge tagged by sensor.
func EmitSensorHealth(statuses []model.SensorStatus) {
	for _, s := range statuses {
		Gauge("sensor_healthy", boolGauge(s.Healthy), "sensor:"+s.Name)
	}
}

func Close() {
	if dogstatsd != nil {
		dogstatsd.Close()
		dogstatsd = nil
	}
}
