package telemetry

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const DefaultThingSpeakURL = "https://api.thingspeak.com"

type ThingSpeak struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	connected bool
}

func NewThingSpeak(baseURL, apiKey string) *ThingSpeak {
	if baseURL == "" {
		baseURL = DefaultThingSpeakURL
	}
	return &ThingSpeak{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: publishTimeout},
	}
}

func (t *ThingSpeak) Name() string { return "thingspeak" }

func (t *ThingSpeak) Connected() bool { return t.connected }

// Reconnect checks that the host accepts TCP connections.
func (t *ThingSpeak) Reconnect(ctx context.Context) error {
	addr, err := hostPort(t.baseURL)
	if err != nil {
		return err
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		t.connected = false
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	conn.Close()
	t.connected = true
	return nil
}

func (t *ThingSpeak) Publish(ctx context.Context, s Sample) error {
	form := url.Values{}
	form.Set("api_key", t.apiKey)
	form.Set("field1", strconv.Itoa(s.Moisture))
	form.Set("field2", strconv.FormatFloat(s.AirTemp, 'f', -1, 64))
	form.Set("field3", strconv.FormatFloat(s.AirHumidity, 'f', -1, 64))
	form.Set("field4", strconv.FormatFloat(s.WaterTemp, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/update", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		t.connected = false
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("thingspeak returned status %d", resp.StatusCode)
	}
	// ThingSpeak answers 200 with entry id 0 when it rejects an update.
	if strings.TrimSpace(string(body)) == "0" {
		return fmt.Errorf("thingspeak rejected update")
	}
	return nil
}

func hostPort(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse telemetry url: %w", err)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
