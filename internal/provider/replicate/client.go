package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"studio/internal/domain"
	"studio/internal/metrics"
)

// Fixed generation hyperparameters. These are not user-controlled: every job
// runs the same pinned SDXL model with the same sampler settings.
const (
	ModelVersion = "39ed52f2a78e934b3ba6e2a89f5b1c712de7dfea535525255b1aa35c5565e08b"

	outputWidth    = 1024
	outputHeight   = 1024
	numOutputs     = 1
	scheduler      = "K_EULER"
	inferenceSteps = 20
	guidanceScale  = 7.5
	promptStrength = 0.8
)

const defaultBaseURL = "https://api.replicate.com/v1"

// Options configure a Client. HTTPClient overrides the default 30 second
// timeout client, mainly for tests.
type Options struct {
	BaseURL    string
	APIToken   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to the Replicate predictions API. Transport and non-2xx
// failures are wrapped in domain.ErrProviderUnavailable: the provider may
// recover, the caller should retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient constructs a Client from opts, applying the default endpoint and
// a 30 second timeout when unset.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIToken),
	}
}

type createRequest struct {
	Version string          `json:"version"`
	Input   PredictionInput `json:"input"`
}

// CreatePrediction submits the enriched prompt with the fixed hyperparameter
// set and returns the provider's acceptance, including the prediction id
// used for all later status checks.
func (c *Client) CreatePrediction(ctx context.Context, prompt string) (*Prediction, error) {
	payload := createRequest{
		Version: ModelVersion,
		Input: PredictionInput{
			Prompt:            prompt,
			Width:             outputWidth,
			Height:            outputHeight,
			NumOutputs:        numOutputs,
			Scheduler:         scheduler,
			NumInferenceSteps: inferenceSteps,
			GuidanceScale:     guidanceScale,
			PromptStrength:    promptStrength,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode prediction request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)
	return c.do(req, "create")
}

// GetPrediction fetches the current state of a prediction by its id.
func (c *Client) GetPrediction(ctx context.Context, id string) (*Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predictions/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	return c.do(req, "status")
}

func (c *Client) do(req *http.Request, operation string) (*Prediction, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: replicate returned http %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
	var pred Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrProviderUnavailable, err)
	}
	if pred.ID == "" {
		return nil, fmt.Errorf("%w: response missing prediction id", domain.ErrProviderUnavailable)
	}
	return &pred, nil
}
