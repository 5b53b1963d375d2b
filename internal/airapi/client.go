package airapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dan/aero/internal/metrics"
	"github.com/dan/aero/internal/models"
)

// Client talks to the pollution-sensors API. It is stateless: the bearer
// token is passed per call so one client instance can serve every dashboard
// session against the same backend.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.base }

// envelope is the wire shape shared by every endpoint: body on success,
// error_msg on failure.
type envelope struct {
	Body     json.RawMessage `json:"body"`
	ErrorMsg string          `json:"error_msg"`
}

// Login exchanges credentials for a bearer token via POST /login.
// A 401 here means bad credentials, not an expired session, so the message
// is adjusted before the error is returned.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", fmt.Errorf("encode credentials: %w", err)
	}

	raw, err := c.call(ctx, http.MethodPost, "/login", "", bytes.NewReader(payload))
	if err != nil {
		if apiErr, ok := err.(*Error); ok && apiErr.Kind == KindSessionExpired {
			apiErr.Message = "Invalid email or password."
		}
		return "", err
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", transportError(fmt.Errorf("parse login response: %w", err))
	}
	if body.Token == "" {
		return "", transportError(fmt.Errorf("login response carried no token"))
	}
	return body.Token, nil
}

// Sensors fetches the sensor list for the account behind the token.
func (c *Client) Sensors(ctx context.Context, token string) ([]models.Sensor, error) {
	raw, err := c.call(ctx, http.MethodGet, "/sensors", token, nil)
	if err != nil {
		return nil, err
	}

	var sensors []models.Sensor
	if err := json.Unmarshal(raw, &sensors); err != nil {
		return nil, transportError(fmt.Errorf("parse sensor list: %w", err))
	}
	return sensors, nil
}

// Readings fetches one sensor's measurements for the given window. The
// server returns them in chronological order; the order is preserved.
func (c *Client) Readings(ctx context.Context, token string, sensorID int, rng models.TimeRange) ([]models.Reading, error) {
	path := fmt.Sprintf("/sensors/%d/readings?range=%s", sensorID, rng)
	raw, err := c.call(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var readings []models.Reading
	if err := json.Unmarshal(raw, &readings); err != nil {
		return nil, transportError(fmt.Errorf("parse readings: %w", err))
	}
	return readings, nil
}

// Ping checks reachability without credentials. Any HTTP response counts as
// reachable (an unauthenticated 401 still proves the service is up); only a
// transport failure is an error. Used by the backend connectivity poller.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/sensors", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// call performs one request/response cycle: sets headers, reads the body,
// decodes the envelope, and maps failures onto the error taxonomy.
func (c *Client) call(ctx context.Context, method, path, token string, payload io.Reader) (json.RawMessage, error) {
	op := opLabel(method, path)
	start := time.Now()

	raw, err := c.doCall(ctx, method, path, token, payload)

	metrics.ObserveAPIRequest(op, err, time.Since(start))
	return raw, err
}

func (c *Client) doCall(ctx context.Context, method, path, token string, payload io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	var env envelope
	// The envelope is best-effort on error statuses: some failure paths
	// (proxies, panics upstream) return non-JSON bodies.
	_ = json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, env.ErrorMsg)
	}
	return env.Body, nil
}

// opLabel collapses a request path into a low-cardinality metric label.
func opLabel(method, path string) string {
	switch {
	case path == "/login":
		return "login"
	case strings.Contains(path, "/readings"):
		return "readings"
	case strings.HasPrefix(path, "/sensors"):
		return "sensors"
	default:
		return strings.ToLower(method)
	}
}
