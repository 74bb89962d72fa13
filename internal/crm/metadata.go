package crm

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Stage priority buckets used to sort pending leads by profile quality.
const (
	PriorityHasProfile   = 1
	PriorityMinorProfile = 2
	PriorityInconclusive = 3
	PriorityNoProfile    = 4
	PriorityUnknown      = 99
)

// Metadata resolves pipeline and stage ids to names and classifications.
// Lookups hit an in-memory snapshot refreshed from the CRM at most once per
// TTL; a refresh failure keeps serving the previous snapshot.
type Metadata struct {
	fetcher Fetcher
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	pipelines map[string]string
	stages    map[string]Stage
	fetchedAt time.Time
}

// NewMetadata builds a resolver over fetcher with the given snapshot TTL.
func NewMetadata(fetcher Fetcher, ttl time.Duration, logger *zap.Logger) *Metadata {
	return &Metadata{
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

func (m *Metadata) refresh(ctx context.Context) {
	if m.fetchedAt.After(m.now().Add(-m.ttl)) {
		return
	}
	pipelines, err := m.fetcher.FetchPipelines(ctx)
	if err != nil {
		m.logger.Warn("pipeline metadata refresh failed", zap.Error(err))
		return
	}
	stages, err := m.fetcher.FetchStages(ctx)
	if err != nil {
		m.logger.Warn("stage metadata refresh failed", zap.Error(err))
		return
	}

	byPipeline := make(map[string]string, len(pipelines))
	for _, p := range pipelines {
		byPipeline[p.ID] = p.Name
	}
	byStage := make(map[string]Stage, len(stages))
	for _, s := range stages {
		byStage[s.ID] = s
	}

	m.pipelines = byPipeline
	m.stages = byStage
	m.fetchedAt = m.now()
	m.logger.Info("crm metadata refreshed",
		zap.Int("pipelines", len(byPipeline)),
		zap.Int("stages", len(byStage)),
	)
}

// Invalidate forces the next lookup to refetch.
func (m *Metadata) Invalidate() {
	m.mu.Lock()
	m.fetchedAt = time.Time{}
	m.mu.Unlock()
}

// PipelineName resolves a pipeline id, empty string when unknown.
func (m *Metadata) PipelineName(ctx context.Context, pipelineID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh(ctx)
	return m.pipelines[pipelineID]
}

// IsMainSDRPipeline reports whether the pipeline is the dedicated SDR
// pipeline, the one named exactly "sdr".
func (m *Metadata) IsMainSDRPipeline(ctx context.Context, pipelineID string) bool {
	name := strings.ToLower(strings.TrimSpace(m.PipelineName(ctx, pipelineID)))
	return name == "sdr"
}

// IsCloserPipeline reports whether the pipeline belongs to a closer that
// also runs SDR stages, marked by an "- SDR" suffix in its name.
func (m *Metadata) IsCloserPipeline(ctx context.Context, pipelineID string) bool {
	name := strings.ToLower(m.PipelineName(ctx, pipelineID))
	return strings.Contains(name, "- sdr") || strings.Contains(name, "-sdr")
}

// SDRNameFromPipeline derives the SDR display name from the pipeline name.
// Closer pipelines are named "<Closer> - SDR"; the main pipeline maps to the
// shared name.
func (m *Metadata) SDRNameFromPipeline(ctx context.Context, pipelineID string) string {
	name := m.PipelineName(ctx, pipelineID)
	if name == "" {
		return "SDR Pipeline " + pipelineID
	}
	if strings.EqualFold(strings.TrimSpace(name), "sdr") {
		return "SDR Geral"
	}
	lower := strings.ToLower(name)
	for _, suffix := range []string{"- sdr", "-sdr"} {
		if idx := strings.Index(lower, suffix); idx >= 0 {
			if trimmed := strings.TrimSpace(name[:idx]); trimmed != "" {
				return trimmed
			}
		}
	}
	return name
}

// StageName resolves a stage id with a readable fallback.
func (m *Metadata) StageName(ctx context.Context, stageID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh(ctx)
	if s, ok := m.stages[stageID]; ok && s.Name != "" {
		return s.Name
	}
	return "Stage " + stageID
}

// StagePriority buckets a stage name by profile quality for pending-lead
// ordering. Matching is case-insensitive by substring so renamed variants
// like "1 - TEM PERFIL" still classify.
func StagePriority(stageName string) int {
	name := strings.ToLower(stageName)
	switch {
	case strings.Contains(name, "tem perfil"):
		return PriorityHasProfile
	case strings.Contains(name, "perfil menor"):
		return PriorityMinorProfile
	case strings.Contains(name, "inconclusivo"):
		return PriorityInconclusive
	case strings.Contains(name, "sem perfil"):
		return PriorityNoProfile
	default:
		return PriorityUnknown
	}
}
