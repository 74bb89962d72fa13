package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lead-speed/sla-monitor/internal/config"
	"github.com/lead-speed/sla-monitor/pkg/util"
)

// Pipeline is one CRM sales pipeline.
type Pipeline struct {
	ID   string
	Name string
}

// Stage is one stage inside a pipeline.
type Stage struct {
	ID         string
	Name       string
	PipelineID string
}

// Fetcher retrieves pipeline and stage definitions from the CRM.
type Fetcher interface {
	FetchPipelines(ctx context.Context) ([]Pipeline, error)
	FetchStages(ctx context.Context) ([]Stage, error)
}

// PipedriveClient talks to the Pipedrive REST API using the account-level
// API token.
type PipedriveClient struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPipedriveClient builds a client from config. Timeout applies per
// request on top of any caller context deadline.
func NewPipedriveClient(cfg config.PipedriveConfig, logger *zap.Logger) *PipedriveClient {
	return &PipedriveClient{
		baseURL:  cfg.BaseURL,
		apiToken: cfg.APIToken,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		},
		logger: logger,
	}
}

type pipedriveEnvelope struct {
	Success bool              `json:"success"`
	Data    []json.RawMessage `json:"data"`
	Error   string            `json:"error"`
}

func (c *PipedriveClient) FetchPipelines(ctx context.Context) ([]Pipeline, error) {
	raw, err := c.get(ctx, "/pipelines")
	if err != nil {
		return nil, err
	}
	pipelines := make([]Pipeline, 0, len(raw))
	for _, item := range raw {
		var row struct {
			ID   json.Number `json:"id"`
			Name string      `json:"name"`
		}
		if err := json.Unmarshal(item, &row); err != nil {
			return nil, fmt.Errorf("decode pipeline: %w", err)
		}
		pipelines = append(pipelines, Pipeline{ID: row.ID.String(), Name: row.Name})
	}
	return pipelines, nil
}

func (c *PipedriveClient) FetchStages(ctx context.Context) ([]Stage, error) {
	raw, err := c.get(ctx, "/stages")
	if err != nil {
		return nil, err
	}
	stages := make([]Stage, 0, len(raw))
	for _, item := range raw {
		var row struct {
			ID         json.Number `json:"id"`
			Name       string      `json:"name"`
			PipelineID json.Number `json:"pipeline_id"`
		}
		if err := json.Unmarshal(item, &row); err != nil {
			return nil, fmt.Errorf("decode stage: %w", err)
		}
		stages = append(stages, Stage{
			ID:         row.ID.String(),
			Name:       row.Name,
			PipelineID: row.PipelineID.String(),
		})
	}
	return stages, nil
}

func (c *PipedriveClient) get(ctx context.Context, endpoint string) ([]json.RawMessage, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("build crm url: %w", err)
	}
	q := u.Query()
	q.Set("api_token", c.apiToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("crm request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, util.NewUpstreamUnavailable("crm request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, util.NewUpstreamUnavailable("crm response read failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("crm returned non-200",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return nil, util.NewUpstreamUnavailable(
			"crm returned status "+strconv.Itoa(resp.StatusCode), nil)
	}

	var envelope pipedriveEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode crm response: %w", err)
	}
	if !envelope.Success {
		return nil, util.NewUpstreamUnavailable("crm reported failure: "+envelope.Error, nil)
	}
	return envelope.Data, nil
}
