package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ahlyab/flood-prediction/internal/indicators"
	"github.com/Ahlyab/flood-prediction/internal/logging"
	"github.com/Ahlyab/flood-prediction/internal/version"
)

const (
	// DefaultBaseURL is where the prediction service listens when run locally
	DefaultBaseURL = "http://127.0.0.1:8000"

	// DefaultPredictPath is the prediction endpoint relative to the base URL
	DefaultPredictPath = "/predict"

	// DefaultSchemaPath is where the service publishes its OpenAPI document
	DefaultSchemaPath = "/openapi.json"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second

	// ProbabilityField is the response field holding the prediction
	ProbabilityField = "PredictedFloodProbability"

	// RequestIDHeader carries the submission id to the service logs
	RequestIDHeader = "X-Request-ID"

	maxResponseSize = 1 << 20
)

// Prediction is a successful response from the prediction service
type Prediction struct {
	// Probability is the flood probability exactly as returned
	Probability float64
	// RequestID is the id sent in the X-Request-ID header
	RequestID string
	// Elapsed is the round-trip time of the request
	Elapsed time.Duration
}

// Client represents an HTTP client for the flood prediction service
type Client struct {
	// BaseURL is the service root (e.g., "http://127.0.0.1:8000")
	BaseURL string

	// PredictPath is appended to BaseURL for predictions
	PredictPath string

	// SchemaPath is appended to BaseURL to fetch the OpenAPI document
	SchemaPath string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client
}

// NewClient creates a client for the service at baseURL.
// An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		PredictPath: DefaultPredictPath,
		SchemaPath:  DefaultSchemaPath,
		HTTPClient:  &http.Client{Timeout: DefaultTimeout},
	}
}

// SetTimeout sets the HTTP request timeout. Zero disables it.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// PredictURL returns the full prediction endpoint URL
func (c *Client) PredictURL() string {
	return c.url(c.PredictPath)
}

func (c *Client) url(path string) string {
	if path == "" {
		return c.BaseURL + "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

type requestIDKey struct{}

// WithRequestID attaches a request id that Predict sends to the service.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// Predict sends payload to the prediction endpoint in a single request.
// A response only counts as a prediction when the status is 2xx and the
// body holds a numeric PredictedFloodProbability; zero is a valid value.
func (c *Client) Predict(ctx context.Context, payload indicators.Payload) (*Prediction, error) {
	requestID, ok := RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ServiceError{Type: ErrTypeRequest, Message: "failed to encode payload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.PredictURL(), bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Type: ErrTypeRequest, Message: "failed to create POST request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("User-Agent", version.UserAgent())

	logging.LogPredictionRequest(requestID, req.URL.String())

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("POST request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classifyTransportError("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(resp.StatusCode, errorDetail(data))
	}

	probability, err := decodeProbability(data)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	logging.LogPredictionResult(requestID, probability, elapsed)

	return &Prediction{
		Probability: probability,
		RequestID:   requestID,
		Elapsed:     elapsed,
	}, nil
}

// decodeProbability extracts the probability from a success body
func decodeProbability(data []byte) (float64, error) {
	var body struct {
		Probability *float64 `json:"PredictedFloodProbability"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return 0, newParseError("failed to parse JSON response", err)
	}
	if body.Probability == nil {
		return 0, newMissingFieldError(ProbabilityField)
	}
	return *body.Probability, nil
}

// errorDetail pulls FastAPI's "detail" out of an error body. Validation
// errors carry a list there, which is returned as compact JSON.
func errorDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(data))
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body.Detail); err != nil {
		return string(body.Detail)
	}
	return buf.String()
}

// Ping calls the service root and returns its welcome message
func (c *Client) Ping(ctx context.Context) (string, error) {
	data, err := c.get(ctx, "/")
	if err != nil {
		return "", err
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return "", newParseError("failed to parse JSON response", err)
	}
	return body.Message, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, &ServiceError{Type: ErrTypeRequest, Message: "failed to create GET request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classifyTransportError("failed to read response body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newHTTPError(resp.StatusCode, errorDetail(data))
	}
	return data, nil
}

// String describes the client for log and status lines
func (c *Client) String() string {
	return fmt.Sprintf("prediction service at %s", c.PredictURL())
}
