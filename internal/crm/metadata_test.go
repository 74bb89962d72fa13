package crm

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeFetcher struct {
	pipelines []Pipeline
	stages    []Stage
	calls     int
	err       error
}

func (f *fakeFetcher) FetchPipelines(context.Context) ([]Pipeline, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.pipelines, nil
}

func (f *fakeFetcher) FetchStages(context.Context) ([]Stage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stages, nil
}

func newTestMetadata(fetcher *fakeFetcher) *Metadata {
	return NewMetadata(fetcher, 5*time.Minute, zap.NewNop())
}

func TestMetadataLookups(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{
		pipelines: []Pipeline{
			{ID: "1", Name: "SDR"},
			{ID: "2", Name: "Maria - SDR"},
			{ID: "3", Name: "Vendas"},
		},
		stages: []Stage{
			{ID: "10", Name: "Lead Formulário", PipelineID: "1"},
			{ID: "11", Name: "TEM PERFIL", PipelineID: "1"},
		},
	}
	m := newTestMetadata(fetcher)

	t.Run("main funnel detection", func(t *testing.T) {
		if !m.IsMainSDRPipeline(ctx, "1") {
			t.Fatalf("expected pipeline 1 to be the main funnel")
		}
		if m.IsMainSDRPipeline(ctx, "2") || m.IsMainSDRPipeline(ctx, "3") {
			t.Fatalf("only the pipeline named sdr is the main funnel")
		}
	})

	t.Run("closer funnel detection", func(t *testing.T) {
		if !m.IsCloserPipeline(ctx, "2") {
			t.Fatalf("expected pipeline 2 to be a closer funnel")
		}
		if m.IsCloserPipeline(ctx, "3") {
			t.Fatalf("pipeline 3 is not a closer funnel")
		}
	})

	t.Run("sdr display name", func(t *testing.T) {
		if got := m.SDRNameFromPipeline(ctx, "2"); got != "Maria" {
			t.Fatalf("expected Maria, got %q", got)
		}
		if got := m.SDRNameFromPipeline(ctx, "1"); got != "SDR Geral" {
			t.Fatalf("expected SDR Geral, got %q", got)
		}
		if got := m.SDRNameFromPipeline(ctx, "99"); got != "SDR Pipeline 99" {
			t.Fatalf("expected fallback name, got %q", got)
		}
	})

	t.Run("stage name with fallback", func(t *testing.T) {
		if got := m.StageName(ctx, "10"); got != "Lead Formulário" {
			t.Fatalf("unexpected stage name %q", got)
		}
		if got := m.StageName(ctx, "404"); got != "Stage 404" {
			t.Fatalf("expected fallback, got %q", got)
		}
	})

	t.Run("snapshot reused within ttl", func(t *testing.T) {
		before := fetcher.calls
		m.PipelineName(ctx, "1")
		m.StageName(ctx, "10")
		if fetcher.calls != before {
			t.Fatalf("expected no refetch within ttl, got %d extra calls", fetcher.calls-before)
		}
	})

	t.Run("invalidate forces refetch", func(t *testing.T) {
		before := fetcher.calls
		m.Invalidate()
		m.PipelineName(ctx, "1")
		if fetcher.calls != before+1 {
			t.Fatalf("expected one refetch after invalidate, got %d", fetcher.calls-before)
		}
	})
}

func TestMetadataFetchFailure(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{
		pipelines: []Pipeline{{ID: "1", Name: "SDR"}},
	}
	m := newTestMetadata(fetcher)

	if !m.IsMainSDRPipeline(ctx, "1") {
		t.Fatalf("expected initial snapshot")
	}

	// A failing refresh keeps serving the previous snapshot.
	fetcher.err = errors.New("api down")
	m.Invalidate()
	if !m.IsMainSDRPipeline(ctx, "1") {
		t.Fatalf("expected stale snapshot to survive a failed refresh")
	}
}

func TestStagePriority(t *testing.T) {
	cases := []struct {
		stage string
		want  int
	}{
		{"TEM PERFIL", PriorityHasProfile},
		{"1 - tem perfil", PriorityHasProfile},
		{"PERFIL MENOR", PriorityMinorProfile},
		{"INCONCLUSIVO", PriorityInconclusive},
		{"SEM PERFIL", PriorityNoProfile},
		{"Lead Formulário", PriorityUnknown},
	}
	for _, tc := range cases {
		if got := StagePriority(tc.stage); got != tc.want {
			t.Fatalf("StagePriority(%q): expected %d, got %d", tc.stage, tc.want, got)
		}
	}
}
