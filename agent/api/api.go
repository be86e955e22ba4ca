// Package api implements an agent for outbound HTTP calls against a table of
// named services configured from the environment.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/hupe1980/agentbus/agent"
	"github.com/hupe1980/agentbus/core"
	"github.com/hupe1980/agentbus/logging"
)

// ServiceConfig describes one reachable API: its base URL and an optional
// bearer token attached to every request.
type ServiceConfig struct {
	BaseURL string
	APIKey  string
}

// Request is the payload shape the API agent expects.
type Request struct {
	Service  string            `json:"service"`
	Endpoint string            `json:"endpoint"`
	Method   string            `json:"method,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Body     any               `json:"body,omitempty"`
}

// Response carries the HTTP status and decoded body, or an error
// description for recoverable transport failures.
type Response struct {
	Status int    `json:"status,omitempty"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Options configure the API agent.
type Options struct {
	Logger logging.Logger
	// Services overrides the default environment-derived service table.
	Services map[string]ServiceConfig
	// HTTPClient overrides the default client (10s timeout).
	HTTPClient *http.Client
}

// Agent performs HTTP requests on behalf of other agents.
type Agent struct {
	agent.Base

	services map[string]ServiceConfig
	client   *http.Client
}

// New constructs an API agent. Without an explicit service table it exposes
// "openai" and "github", keyed from OPENAI_API_KEY and GITHUB_TOKEN.
func New(descriptor core.Descriptor, optFns ...func(o *Options)) *Agent {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Services == nil {
		opts.Services = map[string]ServiceConfig{
			"openai": {BaseURL: "https://api.openai.com/v1/", APIKey: os.Getenv("OPENAI_API_KEY")},
			"github": {BaseURL: "https://api.github.com/", APIKey: os.Getenv("GITHUB_TOKEN")},
		}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Agent{
		Base:     agent.NewBase(descriptor, opts.Logger),
		services: opts.Services,
		client:   opts.HTTPClient,
	}
}

// Process performs the requested HTTP call. Unknown services and malformed
// requests are contract violations returned as errors; transport failures
// are encoded in the Response.
func (a *Agent) Process(ctx context.Context, input any) (any, error) {
	req, err := decodeRequest(input)
	if err != nil {
		return nil, err
	}
	if req.Service == "" {
		return nil, fmt.Errorf("service name is required")
	}
	cfg, ok := a.services[req.Service]
	if !ok {
		return nil, fmt.Errorf("unknown service: %s", req.Service)
	}

	resp, err := a.call(ctx, cfg, req)
	if err != nil {
		a.Logger().Error("api agent request to %s failed: %v", req.Service, err)
		return Response{Error: err.Error()}, nil
	}
	return resp, nil
}

func (a *Agent) call(ctx context.Context, cfg ServiceConfig, req Request) (Response, error) {
	target, err := joinURL(cfg.BaseURL, req.Endpoint)
	if err != nil {
		return Response{}, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body *bytes.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return Response{}, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{}, err
	}

	q := httpReq.URL.Query()
	for k, v := range req.Params {
		q.Set(k, v)
	}
	httpReq.URL.RawQuery = q.Encode()

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer httpResp.Body.Close()

	var data any
	if err := json.NewDecoder(httpResp.Body).Decode(&data); err != nil {
		return Response{}, fmt.Errorf("failed to decode response body: %w", err)
	}

	return Response{Status: httpResp.StatusCode, Data: data}, nil
}

// Cleanup releases idle connections. Drivers call it at shutdown; the bus
// never does.
func (a *Agent) Cleanup(_ context.Context) error {
	a.client.CloseIdleConnections()
	return nil
}

func decodeRequest(input any) (Request, error) {
	switch v := input.(type) {
	case Request:
		return v, nil
	case *Request:
		return *v, nil
	default:
		raw, err := json.Marshal(input)
		if err != nil {
			return Request{}, fmt.Errorf("api agent cannot decode input: %w", err)
		}
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return Request{}, fmt.Errorf("api agent expects a request object: %w", err)
		}
		return req, nil
	}
}

func joinURL(base, endpoint string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}
	return u.ResolveReference(ref).String(), nil
}
