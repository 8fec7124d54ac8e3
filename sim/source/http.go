package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/markphelps/optional"
	"github.com/sirupsen/logrus"

	"github.com/cpusched/cpusched/sim"
)

// HTTPClient pulls jobs and bursts from a remote job server.
// Every failure (transport, non-200, success=false, undecodable envelope) is
// reported as sim.ErrSourceUnavailable so the engine retries on the next tick.
type HTTPClient struct {
	baseURL    string
	clientID   string
	sessionID  string
	httpClient *http.Client
}

// NewHTTPClient creates a job server client. Call Init before using it as a source.
func NewHTTPClient(baseURL, clientID string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope is the {success, data} wrapper of every query endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type initResponse struct {
	SessionID  *string `json:"session_id"`
	StartClock *int64  `json:"start_clock"`
	TimeSlice  int64   `json:"time_slice"`
}

// jobID accepts numeric or string job identifiers.
type jobID string

func (id *jobID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = jobID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("job_id: %w", err)
	}
	*id = jobID(n.String())
	return nil
}

type wireArrival struct {
	JobID    jobID `json:"job_id"`
	Priority int   `json:"priority"`
}

// Init opens a session. The seed is forwarded only when present.
func (c *HTTPClient) Init(ctx context.Context, cfg GeneratorConfig, seed optional.Int64) (Session, error) {
	cfg.ClientID = c.clientID
	payload := map[string]any{}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return Session{}, fmt.Errorf("encoding init config: %w", err)
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Session{}, fmt.Errorf("encoding init config: %w", err)
	}
	seed.If(func(v int64) { payload["seed"] = v })
	body, err := json.Marshal(payload)
	if err != nil {
		return Session{}, fmt.Errorf("encoding init config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/init", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("building init request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	data, err := c.do(req)
	if err != nil {
		return Session{}, err
	}
	var resp initResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Session{}, fmt.Errorf("%w: decoding init response: %v", sim.ErrSourceUnavailable, err)
	}
	if resp.SessionID == nil || resp.StartClock == nil {
		return Session{}, fmt.Errorf("invalid init response: missing session_id or start_clock")
	}
	c.sessionID = *resp.SessionID
	logrus.Infof("job server session %s started at clock %d (time slice %d)", c.sessionID, *resp.StartClock, resp.TimeSlice)
	return Session{ID: *resp.SessionID, StartClock: *resp.StartClock, TimeSlice: resp.TimeSlice}, nil
}

// Arrivals queries /job for the jobs arriving at clock.
func (c *HTTPClient) Arrivals(ctx context.Context, clock int64) ([]sim.Arrival, error) {
	data, err := c.query(ctx, "/job", url.Values{"clock_time": {strconv.FormatInt(clock, 10)}})
	if err != nil {
		return nil, err
	}
	var wires []wireArrival
	if len(bytes.TrimSpace(data)) > 0 && string(bytes.TrimSpace(data)) != "null" {
		if err := json.Unmarshal(data, &wires); err != nil {
			return nil, fmt.Errorf("%w: decoding arrivals: %v", sim.ErrSourceUnavailable, err)
		}
	}
	out := make([]sim.Arrival, 0, len(wires))
	for _, w := range wires {
		out = append(out, sim.Arrival{JobID: string(w.JobID), Priority: w.Priority})
	}
	return out, nil
}

// NextBursts queries /burst and normalizes the object-or-list payload.
func (c *HTTPClient) NextBursts(ctx context.Context, id string) ([]sim.Burst, error) {
	data, err := c.query(ctx, "/burst", url.Values{"job_id": {id}})
	if err != nil {
		return nil, err
	}
	return NormalizeBursts(data)
}

// BurstsRemaining queries /burstsLeft.
func (c *HTTPClient) BurstsRemaining(ctx context.Context, id string) (bool, error) {
	return c.predicate(ctx, "/burstsLeft", url.Values{"job_id": {id}})
}

// JobsRemaining queries /jobsLeft.
func (c *HTTPClient) JobsRemaining(ctx context.Context) (bool, error) {
	return c.predicate(ctx, "/jobsLeft", url.Values{})
}

func (c *HTTPClient) query(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	raw, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding %s response: %v", sim.ErrSourceUnavailable, path, err)
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s reported success=false", sim.ErrSourceUnavailable, path)
	}
	return env.Data, nil
}

// predicate decodes a "left" endpoint. The server answers either with a bare
// boolean or count, or with the {success, data} envelope around one.
func (c *HTTPClient) predicate(ctx context.Context, path string, params url.Values) (bool, error) {
	raw, err := c.get(ctx, path, params)
	if err != nil {
		return false, err
	}
	v, err := truthy(raw)
	if err == nil {
		return v, nil
	}
	var env envelope
	if jerr := json.Unmarshal(raw, &env); jerr == nil && env.Data != nil {
		if !env.Success {
			return false, fmt.Errorf("%w: %s reported success=false", sim.ErrSourceUnavailable, path)
		}
		if v, err := truthy(env.Data); err == nil {
			return v, nil
		}
	}
	return false, fmt.Errorf("%w: decoding %s response: %v", sim.ErrSourceUnavailable, path, err)
}

func truthy(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n > 0, nil
	}
	return false, fmt.Errorf("not a boolean or count: %s", string(raw))
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("client_id", c.clientID)
	params.Set("session_id", c.sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", path, err)
	}
	return c.do(req)
}

func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sim.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", sim.ErrSourceUnavailable, req.URL.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned HTTP %d: %s", sim.ErrSourceUnavailable, req.URL.Path, resp.StatusCode, string(body))
	}
	return body, nil
}
