package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lead-speed/sla-monitor/internal/domain"
)

// AttendanceFilter restricts the journey event query.
type AttendanceFilter struct {
	UserID *string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// AttendanceRepository encapsulates the SDR activity log.
type AttendanceRepository interface {
	Insert(ctx context.Context, event *domain.AttendanceEvent) error
	ListWithFilter(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceEvent, error)
	// DeleteOlderThan trims the log for retention, returning rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type attendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository instantiates repository.
func NewAttendanceRepository(pool *pgxpool.Pool) AttendanceRepository {
	return &attendanceRepository{pool: pool}
}

func (r *attendanceRepository) Insert(ctx context.Context, event *domain.AttendanceEvent) error {
	const query = `
        INSERT INTO sdr_attendance_events (user_id, user_name, occurred_at, deal_id, event_type, pipeline_id, stage_id, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		event.UserID,
		event.UserName,
		event.OccurredAt,
		event.DealID,
		event.EventType,
		event.PipelineID,
		event.StageID,
		event.Metadata,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *attendanceRepository) ListWithFilter(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceEvent, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("occurred_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 5000
	}

	query := fmt.Sprintf(`
        SELECT id, user_id, user_name, occurred_at, deal_id, event_type, pipeline_id, stage_id, metadata, created_at
        FROM sdr_attendance_events WHERE %s ORDER BY occurred_at ASC LIMIT %d`,
		strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttendanceEvents(rows)
}

func (r *attendanceRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sdr_attendance_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanAttendanceEvents(rows pgx.Rows) ([]domain.AttendanceEvent, error) {
	var result []domain.AttendanceEvent
	for rows.Next() {
		var event domain.AttendanceEvent
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.UserName,
			&event.OccurredAt,
			&event.DealID,
			&event.EventType,
			&event.PipelineID,
			&event.StageID,
			&event.Metadata,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
