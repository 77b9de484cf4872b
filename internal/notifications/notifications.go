package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultServer = "https://ntfy.sh"

// Ntfy pushes short alerts to an ntfy.sh topic.
type Ntfy struct {
	server string
	topic  string
	client *http.Client
}

// New returns nil when topic is empty; a nil *Ntfy drops every message.
func New(server, topic string) *Ntfy {
	if topic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		return nil
	}
	if server == "" {
		server = DefaultServer
	}

	log.Info().
		Str("topic", topic).
		Msg("Ntfy notifications initialized")

	return &Ntfy{
		server: server,
		topic:  topic,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send sends a notification to ntfy.sh
func (n *Ntfy) Send(title, message string) error {
	if n == nil {
		return fmt.Errorf("notifications not initialized")
	}

	url := fmt.Sprintf("%s/%s", n.server, n.topic)

	payload := map[string]interface{}{
		"topic":   n.topic,
		"title":   title,
		"message": message,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned non-success status: %d", resp.StatusCode)
	}

	log.Debug().
		Str("title", title).
		Int("status", resp.StatusCode).
		Msg("Notification sent successfully")

	return nil
}

// AlarmChanged pushes alarm raise and clear edges.
func (n *Ntfy) AlarmChanged(active bool) {
	if n == nil {
		return
	}
	title, msg := "Plant Alarm Cleared", "All readings are back within thresholds"
	if active {
		title, msg = "Plant Alarm", "A reading is outside its threshold or a sensor has failed"
	}
	if err := n.Send(title, msg); err != nil {
		log.Warn().Err(err).Msg("Failed to send alarm notification")
	}
}
