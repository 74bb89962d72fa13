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

// LeadOrder selects the sort applied by ListWithFilter. Values map to fixed
// ORDER BY clauses; arbitrary expressions are rejected.
type LeadOrder string

const (
	OrderEnteredDesc  LeadOrder = "entered_desc"
	OrderEnteredAsc   LeadOrder = "entered_asc"
	OrderAttendedDesc LeadOrder = "attended_desc"
	OrderSlowestFirst LeadOrder = "slowest_first"
	OrderPriority     LeadOrder = "priority"
)

var orderClauses = map[LeadOrder]string{
	OrderEnteredDesc:  "entered_at DESC",
	OrderEnteredAsc:   "entered_at ASC",
	OrderAttendedDesc: "attended_at DESC NULLS LAST",
	OrderSlowestFirst: "sla_minutes DESC NULLS LAST",
	OrderPriority:     "stage_priority ASC NULLS LAST, entered_at ASC",
}

// LeadFilter captures the dashboard listing parameters.
type LeadFilter struct {
	SDRID         *string
	EnteredFrom   *time.Time
	EnteredTo     *time.Time
	AttendedFrom  *time.Time
	AttendedTo    *time.Time
	PendingOnly   bool
	AttendedOnly  bool
	ExcludeStatus []string
	Order         LeadOrder
	Limit         int
	Offset        int
}

// LeadRepository encapsulates lead persistence.
type LeadRepository interface {
	// Insert stores a new lead and reports whether a row was created. A lead
	// that already exists by lead_id is left untouched and reported false.
	Insert(ctx context.Context, lead *domain.Lead) (bool, error)
	GetByLeadID(ctx context.Context, leadID string) (*domain.Lead, error)
	// MarkAttended sets the attendance fields only when the lead is still
	// pending, reporting whether this call performed the transition.
	MarkAttended(ctx context.Context, leadID string, sdrID, sdrName *string, attendedAt time.Time, slaMinutes int) (bool, error)
	UpdateStage(ctx context.Context, leadID string, stageName *string, stagePriority *int) error
	UpdateStatus(ctx context.Context, leadID, status string) error
	DeleteByLeadID(ctx context.Context, leadID string) (bool, error)
	ListWithFilter(ctx context.Context, filter LeadFilter) ([]domain.Lead, error)
	Count(ctx context.Context, filter LeadFilter) (int, error)
	UniqueSDRs(ctx context.Context) ([]domain.SDRRef, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository instantiates repository.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

const leadColumns = `id, lead_id, lead_name, sdr_id, sdr_name, entered_at, attended_at,
               sla_minutes, source, pipeline, stage_name, stage_priority, status, created_at, updated_at`

func (r *leadRepository) Insert(ctx context.Context, lead *domain.Lead) (bool, error) {
	const query = `
        INSERT INTO leads_sla (lead_id, lead_name, sdr_id, sdr_name, entered_at, attended_at,
            sla_minutes, source, pipeline, stage_name, stage_priority, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (lead_id) DO NOTHING
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		lead.LeadID,
		lead.LeadName,
		lead.SDRID,
		lead.SDRName,
		lead.EnteredAt,
		lead.AttendedAt,
		lead.SLAMinutes,
		lead.Source,
		lead.Pipeline,
		lead.StageName,
		lead.StagePriority,
		lead.Status,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *leadRepository) GetByLeadID(ctx context.Context, leadID string) (*domain.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads_sla WHERE lead_id=$1`, leadColumns)
	var lead domain.Lead
	if err := r.pool.QueryRow(ctx, query, leadID).Scan(leadFields(&lead)...); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) MarkAttended(ctx context.Context, leadID string, sdrID, sdrName *string, attendedAt time.Time, slaMinutes int) (bool, error) {
	const query = `
        UPDATE leads_sla
        SET sdr_id=COALESCE($2, sdr_id), sdr_name=COALESCE($3, sdr_name),
            attended_at=$4, sla_minutes=$5, updated_at=NOW()
        WHERE lead_id=$1 AND attended_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, leadID, sdrID, sdrName, attendedAt, slaMinutes)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *leadRepository) UpdateStage(ctx context.Context, leadID string, stageName *string, stagePriority *int) error {
	const query = `
        UPDATE leads_sla SET stage_name=$2, stage_priority=$3, updated_at=NOW()
        WHERE lead_id=$1`
	cmd, err := r.pool.Exec(ctx, query, leadID, stageName, stagePriority)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepository) UpdateStatus(ctx context.Context, leadID, status string) error {
	const query = `UPDATE leads_sla SET status=$2, updated_at=NOW() WHERE lead_id=$1`
	cmd, err := r.pool.Exec(ctx, query, leadID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepository) DeleteByLeadID(ctx context.Context, leadID string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM leads_sla WHERE lead_id=$1`, leadID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *leadRepository) ListWithFilter(ctx context.Context, filter LeadFilter) ([]domain.Lead, error) {
	clauses, args := filterClauses(filter)

	order, ok := orderClauses[filter.Order]
	if !ok {
		order = orderClauses[OrderEnteredDesc]
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM leads_sla WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		leadColumns, strings.Join(clauses, " AND "), order, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (r *leadRepository) Count(ctx context.Context, filter LeadFilter) (int, error) {
	clauses, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM leads_sla WHERE %s`, strings.Join(clauses, " AND "))
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *leadRepository) UniqueSDRs(ctx context.Context) ([]domain.SDRRef, error) {
	const query = `
        SELECT DISTINCT sdr_id, sdr_name FROM leads_sla
        WHERE sdr_id IS NOT NULL ORDER BY sdr_name NULLS LAST`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SDRRef
	for rows.Next() {
		var ref domain.SDRRef
		var name *string
		if err := rows.Scan(&ref.ID, &name); err != nil {
			return nil, err
		}
		if name != nil {
			ref.Name = *name
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}

func (r *leadRepository) DeleteAll(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM leads_sla`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func filterClauses(filter LeadFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SDRID != nil {
		args = append(args, *filter.SDRID)
		clauses = append(clauses, fmt.Sprintf("sdr_id=$%d", len(args)))
	}
	if filter.EnteredFrom != nil {
		args = append(args, *filter.EnteredFrom)
		clauses = append(clauses, fmt.Sprintf("entered_at >= $%d", len(args)))
	}
	if filter.EnteredTo != nil {
		args = append(args, *filter.EnteredTo)
		clauses = append(clauses, fmt.Sprintf("entered_at <= $%d", len(args)))
	}
	if filter.AttendedFrom != nil {
		args = append(args, *filter.AttendedFrom)
		clauses = append(clauses, fmt.Sprintf("attended_at >= $%d", len(args)))
	}
	if filter.AttendedTo != nil {
		args = append(args, *filter.AttendedTo)
		clauses = append(clauses, fmt.Sprintf("attended_at <= $%d", len(args)))
	}
	if filter.PendingOnly {
		clauses = append(clauses, "attended_at IS NULL")
	}
	if filter.AttendedOnly {
		clauses = append(clauses, "attended_at IS NOT NULL")
	}
	if len(filter.ExcludeStatus) > 0 {
		placeholders := make([]string, len(filter.ExcludeStatus))
		for i, status := range filter.ExcludeStatus {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("(status IS NULL OR status NOT IN (%s))", strings.Join(placeholders, ",")))
	}
	return clauses, args
}

func leadFields(lead *domain.Lead) []any {
	return []any{
		&lead.ID,
		&lead.LeadID,
		&lead.LeadName,
		&lead.SDRID,
		&lead.SDRName,
		&lead.EnteredAt,
		&lead.AttendedAt,
		&lead.SLAMinutes,
		&lead.Source,
		&lead.Pipeline,
		&lead.StageName,
		&lead.StagePriority,
		&lead.Status,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	}
}

func scanLeads(rows pgx.Rows) ([]domain.Lead, error) {
	var result []domain.Lead
	for rows.Next() {
		var lead domain.Lead
		if err := rows.Scan(leadFields(&lead)...); err != nil {
			return nil, err
		}
		result = append(result, lead)
	}
	return result, rows.Err()
}
