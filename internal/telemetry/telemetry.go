package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/model"
)

// ThingSpeak's free tier rejects updates more often than this.
const MinInterval = 15 * time.Second

const publishTimeout = 5 * time.Second

var ErrNetworkUnavailable = errors.New("network unavailable")

type Sample struct {
	Moisture    int     `json:"moisture"`
	AirTemp     float64 `json:"air_temp"`
	AirHumidity float64 `json:"air_humidity"`
	WaterTemp   float64 `json:"water_temp"`
}

func SampleOf(env model.EnvironmentState) Sample {
	return Sample{
		Moisture:    env.MoisturePercent,
		AirTemp:     env.AirTemp,
		AirHumidity: env.AirHumidity,
		WaterTemp:   env.WaterTemperature,
	}
}

// Backend is a cloud endpoint together with the link it travels over.
type Backend interface {
	Name() string
	Connected() bool
	Reconnect(ctx context.Context) error
	Publish(ctx context.Context, s Sample) error
}

type Uploader struct {
	backend Backend
}

func NewUploader(b Backend) *Uploader {
	return &Uploader{backend: b}
}

// Upload reconnects once if the link is down, then publishes. Failures are
// only logged by the caller; nothing is retried before the next tick.
func (u *Uploader) Upload(ctx context.Context, env model.EnvironmentState) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if !u.backend.Connected() {
		log.Warn().Str("backend", u.backend.Name()).Msg("Telemetry link disconnected, reconnecting")
		if err := u.backend.Reconnect(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
		}
	}
	if err := u.backend.Publish(ctx, SampleOf(env)); err != nil {
		return fmt.Errorf("publish to %s: %w", u.backend.Name(), err)
	}
	return nil
}

// Run is the task body used by the control loop.
func (u *Uploader) Run(ctx context.Context, env model.EnvironmentState) {
	if err := u.Upload(ctx, env); err != nil {
		log.Error().Err(err).Str("backend", u.backend.Name()).Msg("Telemetry upload failed")
		return
	}
	log.Info().Str("backend", u.backend.Name()).Msg("Telemetry sent")
}
