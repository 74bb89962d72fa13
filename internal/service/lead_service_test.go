package service

import (
	"context"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lead-speed/sla-monitor/internal/cache"
	"github.com/lead-speed/sla-monitor/internal/domain"
	"github.com/lead-speed/sla-monitor/internal/events"
	"github.com/lead-speed/sla-monitor/internal/repository"
	"github.com/lead-speed/sla-monitor/pkg/util"
)

// fakeLeadRepo is an in-memory LeadRepository mirroring the SQL semantics
// the service relies on: unique lead_id and the conditional attend update.
type fakeLeadRepo struct {
	leads  map[string]*domain.Lead
	nextID int
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: map[string]*domain.Lead{}}
}

func (f *fakeLeadRepo) Insert(_ context.Context, lead *domain.Lead) (bool, error) {
	if _, exists := f.leads[lead.LeadID]; exists {
		return false, nil
	}
	f.nextID++
	lead.ID = strconv.Itoa(f.nextID)
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	stored := *lead
	f.leads[lead.LeadID] = &stored
	return true, nil
}

func (f *fakeLeadRepo) GetByLeadID(_ context.Context, leadID string) (*domain.Lead, error) {
	lead, ok := f.leads[leadID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *lead
	return &copied, nil
}

func (f *fakeLeadRepo) MarkAttended(_ context.Context, leadID string, sdrID, sdrName *string, attendedAt time.Time, slaMinutes int) (bool, error) {
	lead, ok := f.leads[leadID]
	if !ok || lead.AttendedAt != nil {
		return false, nil
	}
	if sdrID != nil {
		lead.SDRID = sdrID
	}
	if sdrName != nil {
		lead.SDRName = sdrName
	}
	at := attendedAt
	minutes := slaMinutes
	lead.AttendedAt = &at
	lead.SLAMinutes = &minutes
	lead.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeLeadRepo) UpdateStage(_ context.Context, leadID string, stageName *string, stagePriority *int) error {
	lead, ok := f.leads[leadID]
	if !ok {
		return pgx.ErrNoRows
	}
	lead.StageName = stageName
	lead.StagePriority = stagePriority
	return nil
}

func (f *fakeLeadRepo) UpdateStatus(_ context.Context, leadID, status string) error {
	lead, ok := f.leads[leadID]
	if !ok {
		return pgx.ErrNoRows
	}
	s := status
	lead.Status = &s
	return nil
}

func (f *fakeLeadRepo) DeleteByLeadID(_ context.Context, leadID string) (bool, error) {
	if _, ok := f.leads[leadID]; !ok {
		return false, nil
	}
	delete(f.leads, leadID)
	return true, nil
}

func (f *fakeLeadRepo) ListWithFilter(_ context.Context, filter repository.LeadFilter) ([]domain.Lead, error) {
	var result []domain.Lead
	for _, lead := range f.leads {
		if filter.PendingOnly && lead.AttendedAt != nil {
			continue
		}
		if filter.AttendedOnly && lead.AttendedAt == nil {
			continue
		}
		if filter.SDRID != nil && (lead.SDRID == nil || *lead.SDRID != *filter.SDRID) {
			continue
		}
		if filter.EnteredFrom != nil && lead.EnteredAt.Before(*filter.EnteredFrom) {
			continue
		}
		if filter.AttendedFrom != nil && (lead.AttendedAt == nil || lead.AttendedAt.Before(*filter.AttendedFrom)) {
			continue
		}
		excluded := false
		for _, status := range filter.ExcludeStatus {
			if lead.Status != nil && *lead.Status == status {
				excluded = true
			}
		}
		if excluded {
			continue
		}
		result = append(result, *lead)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LeadID < result[j].LeadID })
	return result, nil
}

func (f *fakeLeadRepo) Count(ctx context.Context, filter repository.LeadFilter) (int, error) {
	leads, err := f.ListWithFilter(ctx, filter)
	return len(leads), err
}

func (f *fakeLeadRepo) UniqueSDRs(_ context.Context) ([]domain.SDRRef, error) {
	seen := map[string]string{}
	for _, lead := range f.leads {
		if lead.SDRID == nil {
			continue
		}
		name := ""
		if lead.SDRName != nil {
			name = *lead.SDRName
		}
		seen[*lead.SDRID] = name
	}
	var refs []domain.SDRRef
	for id, name := range seen {
		refs = append(refs, domain.SDRRef{ID: id, Name: name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

func (f *fakeLeadRepo) DeleteAll(_ context.Context) (int64, error) {
	count := int64(len(f.leads))
	f.leads = map[string]*domain.Lead{}
	return count, nil
}

func newTestLeadService(repo repository.LeadRepository) (*LeadService, events.Dispatcher) {
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	return NewLeadService(repo, dispatcher, cache.NewMemory(), zap.NewNop()), dispatcher
}

func TestCreateLeadIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLeadService(newFakeLeadRepo())
	entered := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	first, created, err := svc.CreateLead(ctx, CreateLeadInput{
		LeadID:    "deal-1",
		LeadName:  "Big Deal",
		EnteredAt: entered,
		Source:    "Pipedrive",
		Pipeline:  "7",
	})
	if err != nil || !created {
		t.Fatalf("expected first create, got created=%v err=%v", created, err)
	}

	second, created, err := svc.CreateLead(ctx, CreateLeadInput{
		LeadID:    "deal-1",
		LeadName:  "Renamed",
		EnteredAt: entered.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("duplicate create must not insert")
	}
	if second.LeadName != first.LeadName || !second.EnteredAt.Equal(first.EnteredAt) {
		t.Fatalf("existing record must be unchanged, got %+v", second)
	}
}

func TestCreateLeadValidation(t *testing.T) {
	svc, _ := newTestLeadService(newFakeLeadRepo())
	_, _, err := svc.CreateLead(context.Background(), CreateLeadInput{LeadID: "x"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if util.ToDomainError(err).Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", util.ToDomainError(err).Code)
	}
}

func TestCreateLeadDirectAttended(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLeadService(newFakeLeadRepo())
	entered := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	attended := entered.Add(12 * time.Minute)
	sdrID, sdrName := "pipe-2", "Maria"

	lead, created, err := svc.CreateLead(ctx, CreateLeadInput{
		LeadID:     "deal-9",
		LeadName:   "Direct",
		EnteredAt:  entered,
		SDRID:      &sdrID,
		SDRName:    &sdrName,
		AttendedAt: &attended,
	})
	if err != nil || !created {
		t.Fatalf("unexpected create result: created=%v err=%v", created, err)
	}
	if lead.SLAMinutes == nil || *lead.SLAMinutes != 12 {
		t.Fatalf("expected sla 12, got %v", lead.SLAMinutes)
	}
	if lead.State() != domain.LeadStateAttended {
		t.Fatalf("expected attended state")
	}
}

func TestAttendLead(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLeadRepo()
	svc, _ := newTestLeadService(repo)
	entered := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	sdrID, sdrName := "pipe-2", "Maria"

	_, _, err := svc.CreateLead(ctx, CreateLeadInput{
		LeadID:    "deal-1",
		LeadName:  "Big Deal",
		EnteredAt: entered,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("first attend transitions", func(t *testing.T) {
		lead, transitioned, err := svc.AttendLead(ctx, AttendInput{
			LeadID:     "deal-1",
			SDRID:      &sdrID,
			SDRName:    &sdrName,
			AttendedAt: entered.Add(12 * time.Minute),
		})
		if err != nil {
			t.Fatalf("attend: %v", err)
		}
		if !transitioned {
			t.Fatalf("expected transition")
		}
		if lead.SLAMinutes == nil || *lead.SLAMinutes != 12 {
			t.Fatalf("expected sla 12, got %v", lead.SLAMinutes)
		}
	})

	t.Run("second attend is a no-op", func(t *testing.T) {
		lead, transitioned, err := svc.AttendLead(ctx, AttendInput{
			LeadID:     "deal-1",
			AttendedAt: entered.Add(45 * time.Minute),
		})
		if err != nil {
			t.Fatalf("attend: %v", err)
		}
		if transitioned {
			t.Fatalf("expected idempotent no-op")
		}
		if lead.SLAMinutes == nil || *lead.SLAMinutes != 12 {
			t.Fatalf("sla must keep first value, got %v", lead.SLAMinutes)
		}
	})

	t.Run("unknown lead is not found", func(t *testing.T) {
		_, _, err := svc.AttendLead(ctx, AttendInput{
			LeadID:     "missing",
			AttendedAt: entered,
		})
		if err == nil || util.ToDomainError(err).Code != "NOT_FOUND" {
			t.Fatalf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("clock skew clamps sla to zero", func(t *testing.T) {
		_, _, err := svc.CreateLead(ctx, CreateLeadInput{
			LeadID:    "deal-2",
			LeadName:  "Skewed",
			EnteredAt: entered,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		lead, _, err := svc.AttendLead(ctx, AttendInput{
			LeadID:     "deal-2",
			AttendedAt: entered.Add(-3 * time.Minute),
		})
		if err != nil {
			t.Fatalf("attend: %v", err)
		}
		if lead.SLAMinutes == nil || *lead.SLAMinutes != 0 {
			t.Fatalf("expected sla 0, got %v", lead.SLAMinutes)
		}
	})
}

func TestAttendPublishesEvent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLeadRepo()
	svc, dispatcher := newTestLeadService(repo)

	var received []events.Event
	dispatcher.Subscribe(events.EventLeadAttended, func(_ context.Context, ev events.Event) error {
		received = append(received, ev)
		return nil
	})

	entered := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	_, _, _ = svc.CreateLead(ctx, CreateLeadInput{LeadID: "deal-1", LeadName: "L", EnteredAt: entered})

	sdrID := "pipe-2"
	_, _, err := svc.AttendLead(ctx, AttendInput{
		LeadID:     "deal-1",
		SDRID:      &sdrID,
		AttendedAt: entered.Add(5 * time.Minute),
		UserID:     "user-9",
	})
	if err != nil {
		t.Fatalf("attend: %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	payload, ok := received[0].Payload.(events.LeadAttendedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", received[0].Payload)
	}
	if payload.SLAMinutes != 5 || payload.UserID != "user-9" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	// Repeated attends must not publish again.
	_, _, _ = svc.AttendLead(ctx, AttendInput{LeadID: "deal-1", AttendedAt: entered.Add(time.Hour)})
	if len(received) != 1 {
		t.Fatalf("idempotent attend published an event")
	}
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLeadRepo()
	svc, _ := newTestLeadService(repo)
	entered := time.Now()

	_, _, _ = svc.CreateLead(ctx, CreateLeadInput{LeadID: "a", LeadName: "A", EnteredAt: entered})
	_, _, _ = svc.CreateLead(ctx, CreateLeadInput{LeadID: "b", LeadName: "B", EnteredAt: entered})

	deleted, err := svc.DeleteByExternalID(ctx, "a", "deal.deleted")
	if err != nil || !deleted {
		t.Fatalf("expected delete, got deleted=%v err=%v", deleted, err)
	}
	deleted, err = svc.DeleteByExternalID(ctx, "a", "deal.deleted")
	if err != nil || deleted {
		t.Fatalf("expected second delete to be a no-op, got deleted=%v err=%v", deleted, err)
	}

	count, err := svc.ClearAll(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected clear of 1 lead, got count=%d err=%v", count, err)
	}
}
