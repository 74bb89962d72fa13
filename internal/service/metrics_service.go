package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lead-speed/sla-monitor/internal/cache"
	"github.com/lead-speed/sla-monitor/internal/config"
	"github.com/lead-speed/sla-monitor/internal/domain"
	"github.com/lead-speed/sla-monitor/internal/repository"
	"github.com/lead-speed/sla-monitor/internal/sla"
	"github.com/lead-speed/sla-monitor/pkg/util"
)

const (
	defaultListLimit  = 10
	maxPaginatedLimit = 100
	generalWindowDays = 30
)

// GeneralReport is the headline card payload: counters plus the card status
// derived from the configured thresholds.
type GeneralReport struct {
	sla.GeneralMetrics
	Status string `json:"status"`
}

// Pagination describes one page of the paginated listing.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// PaginatedLeads bundles one page with its pagination metadata.
type PaginatedLeads struct {
	Leads      []domain.Lead `json:"leads"`
	Pagination Pagination    `json:"pagination"`
}

// MetricsService serves the dashboard reads: cached aggregations over lead
// snapshots and the filtered listings.
type MetricsService struct {
	repo             repository.LeadRepository
	store            cache.Store
	loc              *time.Location
	statusThresholds sla.Thresholds
	hourlyThresholds sla.Thresholds
	metricsTTL       time.Duration
	rankingTTL       time.Duration
	sdrsTTL          time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

// NewMetricsService wires the read-side service.
func NewMetricsService(repo repository.LeadRepository, store cache.Store, slaCfg config.SLAConfig, cacheCfg config.CacheConfig, loc *time.Location, logger *zap.Logger) *MetricsService {
	return &MetricsService{
		repo:             repo,
		store:            store,
		loc:              loc,
		statusThresholds: sla.Thresholds{GoodMax: slaCfg.StatusGoodMax, ModerateMax: slaCfg.StatusModerateMax},
		hourlyThresholds: sla.Thresholds{GoodMax: slaCfg.HourlyGoodMax, ModerateMax: slaCfg.HourlyModerateMax},
		metricsTTL:       time.Duration(cacheCfg.MetricsTTLSec) * time.Second,
		rankingTTL:       time.Duration(cacheCfg.RankingTTLSec) * time.Second,
		sdrsTTL:          time.Duration(cacheCfg.SDRsTTLSec) * time.Second,
		logger:           logger,
		now:              time.Now,
	}
}

// General returns the headline counters over leads that entered in the last
// 30 days.
func (s *MetricsService) General(ctx context.Context) (GeneralReport, error) {
	var cached GeneralReport
	if hit, err := s.store.Get(ctx, cache.KeyGeneralMetrics, &cached); err == nil && hit {
		return cached, nil
	}

	from := sla.DaysAgo(s.now(), generalWindowDays, s.loc)
	leads, err := s.repo.ListWithFilter(ctx, repository.LeadFilter{
		EnteredFrom: &from,
		Order:       repository.OrderEnteredDesc,
		Limit:       100000,
	})
	if err != nil {
		return GeneralReport{}, util.MapError(err)
	}

	metrics := sla.General(leads)
	report := GeneralReport{
		GeneralMetrics: metrics,
		Status:         s.statusThresholds.Status(metrics.AvgSLAMinutes),
	}
	s.cacheSet(ctx, cache.KeyGeneralMetrics, report, s.metricsTTL)
	return report, nil
}

// Ranking returns the month-to-date SDR response-time ranking.
func (s *MetricsService) Ranking(ctx context.Context) ([]sla.SDRPerformance, error) {
	var cached []sla.SDRPerformance
	if hit, err := s.store.Get(ctx, cache.KeySDRRanking, &cached); err == nil && hit {
		return cached, nil
	}

	from := sla.MonthStart(s.now(), s.loc)
	leads, err := s.repo.ListWithFilter(ctx, repository.LeadFilter{
		AttendedFrom: &from,
		AttendedOnly: true,
		Order:        repository.OrderAttendedDesc,
		Limit:        100000,
	})
	if err != nil {
		return nil, util.MapError(err)
	}

	ranking := sla.Ranking(leads)
	s.cacheSet(ctx, cache.KeySDRRanking, ranking, s.rankingTTL)
	return ranking, nil
}

// Timeline returns per-day intake averages over the requested period.
func (s *MetricsService) Timeline(ctx context.Context, period string) ([]sla.TimelinePoint, error) {
	filter := repository.LeadFilter{
		AttendedOnly: true,
		Order:        repository.OrderEnteredAsc,
		Limit:        100000,
	}
	if from, ok := sla.PeriodStart(period, s.now(), s.loc); ok {
		filter.EnteredFrom = &from
	}
	leads, err := s.repo.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, util.MapError(err)
	}
	return sla.Timeline(leads, s.loc), nil
}

// DailyAverage returns the gap-filled trailing-7-day average series.
func (s *MetricsService) DailyAverage(ctx context.Context) ([]sla.DailyAverage, error) {
	now := s.now()
	from := sla.DaysAgo(now, 6, s.loc)
	leads, err := s.repo.ListWithFilter(ctx, repository.LeadFilter{
		AttendedFrom: &from,
		AttendedOnly: true,
		Order:        repository.OrderAttendedDesc,
		Limit:        100000,
	})
	if err != nil {
		return nil, util.MapError(err)
	}
	return sla.TrailingDailyAverage(leads, now, s.loc), nil
}

// HourlyPerformance returns today's per-business-hour averages.
func (s *MetricsService) HourlyPerformance(ctx context.Context) ([]sla.HourlyPerformance, error) {
	now := s.now()
	from := sla.DayStart(now, s.loc)
	leads, err := s.repo.ListWithFilter(ctx, repository.LeadFilter{
		AttendedFrom: &from,
		AttendedOnly: true,
		Order:        repository.OrderAttendedDesc,
		Limit:        100000,
	})
	if err != nil {
		return nil, util.MapError(err)
	}
	return sla.Hourly(leads, now, s.loc, s.hourlyThresholds), nil
}

// Slowest lists the attended leads with the highest response times.
func (s *MetricsService) Slowest(ctx context.Context, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	leads, err := s.repo.ListWithFilter(ctx, repository.LeadFilter{
		AttendedOnly: true,
		Order:        repository.OrderSlowestFirst,
		Limit:        limit,
	})
	if err != nil {
		return nil, util.MapError(err)
	}
	return leads, nil
}

// Pending lists leads still waiting, oldest first.
func (s *MetricsService) Pending(ctx context.Context, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	leads, err := s.repo.ListWithFilter(ctx, repository.LeadFilter{
		PendingOnly: true,
		Order:       repository.OrderEnteredAsc,
		Limit:       limit,
	})
	if err != nil {
		return nil, util.MapError(err)
	}
	return leads, nil
}

// ImportantPending lists pending leads in the profile stages that matter,
// lost deals excluded, highest stage priority first.
func (s *MetricsService) ImportantPending(ctx context.Context, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	leads, err := s.repo.ListWithFilter(ctx, repository.LeadFilter{
		PendingOnly:   true,
		ExcludeStatus: []string{domain.DealStatusLost, domain.StatusInvalidated},
		Order:         repository.OrderPriority,
		Limit:         10000,
	})
	if err != nil {
		return nil, util.MapError(err)
	}

	important := make([]domain.Lead, 0, limit)
	for _, lead := range leads {
		if lead.StageName == nil || !isImportantStage(*lead.StageName) {
			continue
		}
		important = append(important, lead)
		if len(important) == limit {
			break
		}
	}
	return important, nil
}

// Detail lists leads filtered by period and SDR.
func (s *MetricsService) Detail(ctx context.Context, period string, sdrID *string, limit, offset int) ([]domain.Lead, error) {
	filter := repository.LeadFilter{
		SDRID:  sdrID,
		Order:  repository.OrderEnteredDesc,
		Limit:  limit,
		Offset: offset,
	}
	if from, ok := sla.PeriodStart(period, s.now(), s.loc); ok {
		filter.EnteredFrom = &from
	}
	leads, err := s.repo.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, util.MapError(err)
	}
	return leads, nil
}

// Paginated returns one page of the full lead history with page metadata.
func (s *MetricsService) Paginated(ctx context.Context, page, limit int) (PaginatedLeads, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPaginatedLimit {
		limit = maxPaginatedLimit
	}

	total, err := s.repo.Count(ctx, repository.LeadFilter{})
	if err != nil {
		return PaginatedLeads{}, util.MapError(err)
	}
	leads, err := s.repo.ListWithFilter(ctx, repository.LeadFilter{
		Order:  repository.OrderEnteredDesc,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return PaginatedLeads{}, util.MapError(err)
	}
	if leads == nil {
		leads = []domain.Lead{}
	}

	totalPages := (total + limit - 1) / limit
	return PaginatedLeads{
		Leads: leads,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1 && total > 0,
		},
	}, nil
}

// TodayAttended lists leads attended since midnight in the reference zone.
func (s *MetricsService) TodayAttended(ctx context.Context) ([]domain.Lead, error) {
	from := sla.DayStart(s.now(), s.loc)
	leads, err := s.repo.ListWithFilter(ctx, repository.LeadFilter{
		AttendedFrom: &from,
		AttendedOnly: true,
		Order:        repository.OrderAttendedDesc,
		Limit:        10000,
	})
	if err != nil {
		return nil, util.MapError(err)
	}
	return leads, nil
}

// Monthly lists leads attended month-to-date.
func (s *MetricsService) Monthly(ctx context.Context) ([]domain.Lead, error) {
	from := sla.MonthStart(s.now(), s.loc)
	leads, err := s.repo.ListWithFilter(ctx, repository.LeadFilter{
		AttendedFrom: &from,
		AttendedOnly: true,
		Order:        repository.OrderAttendedDesc,
		Limit:        100000,
	})
	if err != nil {
		return nil, util.MapError(err)
	}
	return leads, nil
}

// UniqueSDRs lists the SDRs seen in the lead history, cached for the filter
// dropdown.
func (s *MetricsService) UniqueSDRs(ctx context.Context) ([]domain.SDRRef, error) {
	var cached []domain.SDRRef
	if hit, err := s.store.Get(ctx, cache.KeyUniqueSDRs, &cached); err == nil && hit {
		return cached, nil
	}
	sdrs, err := s.repo.UniqueSDRs(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	if sdrs == nil {
		sdrs = []domain.SDRRef{}
	}
	s.cacheSet(ctx, cache.KeyUniqueSDRs, sdrs, s.sdrsTTL)
	return sdrs, nil
}

func (s *MetricsService) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := s.store.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// isImportantStage reports whether a pending lead sits in a stage the SDRs
// should act on first. "SEM PERFIL" must not match even though it contains
// "perfil".
func isImportantStage(stageName string) bool {
	name := strings.ToLower(strings.TrimSpace(stageName))
	if strings.Contains(name, "sem perfil") {
		return false
	}
	return strings.Contains(name, "tem perfil") || strings.Contains(name, "perfil menor")
}
