package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/datasource"
	"github.com/yourusername/clever-handicapper/internal/logger"
)

// maxOpinionBytes bounds an advisory response body
const maxOpinionBytes = 1 << 20

// HTTPAdvisor posts race context as JSON and decodes an Opinion
type HTTPAdvisor struct {
	client *datasource.RateLimitedHTTPClient
	url    string
	logger *logger.AdvisoryLogger
}

// NewHTTPAdvisor creates an advisor for the configured endpoint
func NewHTTPAdvisor(cfg config.AdvisoryConfig, log *logrus.Logger) (*HTTPAdvisor, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("advisory url is required")
	}
	if log == nil {
		log = logger.Discard()
	}

	clientCfg := datasource.DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		clientCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	clientCfg.MaxRetries = cfg.RetryAttempts
	clientCfg.RateLimit = cfg.RequestsPerSecond
	clientCfg.Burst = cfg.Burst

	return &HTTPAdvisor{
		client: datasource.NewRateLimitedHTTPClient(clientCfg, log),
		url:    cfg.URL,
		logger: logger.NewAdvisoryLogger(log),
	}, nil
}

// New returns an HTTPAdvisor when enabled, otherwise a NoopAdvisor
func New(cfg config.AdvisoryConfig, log *logrus.Logger) (Advisor, error) {
	if !cfg.Enabled {
		return NoopAdvisor{}, nil
	}
	return NewHTTPAdvisor(cfg, log)
}

// Name returns the advisor name
func (a *HTTPAdvisor) Name() string {
	return "http"
}

// Advise sends the request and validates the returned opinion
func (a *HTTPAdvisor) Advise(ctx context.Context, req Request) (*Opinion, error) {
	start := time.Now()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := a.client.Post(ctx, a.url, "application/json", bytes.NewReader(body))
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		a.logger.LogAdvisoryFailure(req.RaceID, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(msg))
		a.logger.LogAdvisoryFailure(req.RaceID, err)
		return nil, err
	}

	var opinion Opinion
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxOpinionBytes)).Decode(&opinion); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidOpinion, err)
		a.logger.LogAdvisoryFailure(req.RaceID, err)
		return nil, err
	}
	if opinion.RaceID == "" {
		opinion.RaceID = req.RaceID
	}
	if opinion.Source == "" {
		opinion.Source = a.Name()
	}
	if err := opinion.Validate(req); err != nil {
		a.logger.LogAdvisoryFailure(req.RaceID, err)
		return nil, err
	}

	a.logger.LogAdvisoryRequest(req.RaceID, len(req.Horses), len(opinion.Picks),
		float64(time.Since(start).Microseconds())/1000)
	return &opinion, nil
}

// Ping reports whether the advisor can currently be called
func (a *HTTPAdvisor) Ping(context.Context) error {
	if a.client.IsOpen() {
		return fmt.Errorf("%w: circuit breaker open", ErrUnavailable)
	}
	return nil
}
