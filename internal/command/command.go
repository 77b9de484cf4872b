package command

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/actuation"
	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/schedule"
)

const (
	EchoStart   = "Manual watering..."
	EchoStop    = "Watering complete"
	EchoUnknown = "Unknown command"
)

// ByteSource yields at most one pending byte without blocking.
type ByteSource interface {
	TryReadByte() (b byte, ok bool, err error)
}

func Decode(b byte) model.Command {
	switch b {
	case 'W', 'w':
		return model.StartWatering
	case 'S', 's':
		return model.StopWatering
	default:
		return model.Unrecognized
	}
}

type Handler struct {
	src      ByteSource
	echo     io.Writer
	watering *actuation.Watering

	// readFailed is set while the channel keeps erroring, so an unplugged
	// port is logged once per episode.
	readFailed bool
}

func NewHandler(src ByteSource, echo io.Writer, watering *actuation.Watering) *Handler {
	return &Handler{src: src, echo: echo, watering: watering}
}

// Poll consumes at most one byte and applies it. It returns the decoded
// command, or ok=false when nothing was pending.
func (h *Handler) Poll(now schedule.Millis) (model.Command, bool) {
	b, ok, err := h.src.TryReadByte()
	if err != nil {
		if !h.readFailed {
			log.Warn().Err(err).Msg("Command channel read failed")
		}
		h.readFailed = true
		return model.Unrecognized, false
	}
	if h.readFailed {
		log.Info().Msg("Command channel recovered")
		h.readFailed = false
	}
	if !ok {
		return model.Unrecognized, false
	}

	cmd := Decode(b)
	switch cmd {
	case model.StartWatering:
		h.watering.Start(now)
		h.reply(EchoStart)
	case model.StopWatering:
		h.watering.Stop(now, actuation.ReasonManual)
		h.reply(EchoStop)
	default:
		log.Debug().Uint8("byte", b).Msg("Unrecognized command byte")
		h.reply(EchoUnknown)
	}
	return cmd, true
}

func (h *Handler) reply(line string) {
	if _, err := io.WriteString(h.echo, line+"\r\n"); err != nil {
		log.Warn().Err(err).Msg("Failed to echo command")
	}
}

// FormatStatus renders the periodic status block sent over the command channel.
func FormatStatus(t time.Time, env model.EnvironmentState) string {
	return fmt.Sprintf("=== Plant Status ===\r\n"+
		"Date: %s | Timestamp: %s | Moisture: %d%% | Air Temp: %.1f°C | Air Humidity: %.1f%% | Water Temp: %.1f°C\r\n"+
		"====================\r\n",
		t.Format("2006-01-02"), t.Format("15:04:05"),
		env.MoisturePercent, env.AirTemp, env.AirHumidity, env.WaterTemperature)
}

// StatusReporter writes the status block to the command channel.
type StatusReporter struct {
	out io.Writer
	now func() time.Time
}

func NewStatusReporter(out io.Writer, now func() time.Time) *StatusReporter {
	if now == nil {
		now = time.Now
	}
	return &StatusReporter{out: out, now: now}
}

func (s *StatusReporter) Send(env model.EnvironmentState) {
	if _, err := io.WriteString(s.out, FormatStatus(s.now(), env)); err != nil {
		log.Warn().Err(err).Msg("Failed to send status block")
	}
}
