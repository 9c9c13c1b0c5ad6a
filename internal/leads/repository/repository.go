// Package repository provides Postgres persistence for the leads bounded context.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace_admin_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

// queryTimeout bounds every repository call so a hung connection surfaces
// as a storage error instead of blocking the request forever.
const queryTimeout = 5 * time.Second

const leadColumns = `id, name, email, phone, organization_name, organization_id, notes,
	source, stage, dedup_key, disqualify_reason, owner_id, owner_name,
	related_user_id, service_request_id, qualified_at, converted_at, created_at, updated_at`

type Lead struct {
	ID               uuid.UUID
	Name             string
	Email            string
	Phone            string
	OrganizationName string
	OrganizationID   *uuid.UUID
	Notes            string
	Source           string
	Stage            string
	DedupKey         *string
	DisqualifyReason *string
	OwnerID          *uuid.UUID
	OwnerName        *string
	RelatedUserID    *uuid.UUID
	ServiceRequestID *uuid.UUID
	QualifiedAt      *time.Time
	ConvertedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Activity is one audit entry on a lead's history.
type Activity struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	UserID    *uuid.UUID
	Action    string
	Meta      map[string]interface{}
	CreatedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.OrganizationName, &lead.OrganizationID, &lead.Notes,
		&lead.Source, &lead.Stage, &lead.DedupKey, &lead.DisqualifyReason, &lead.OwnerID, &lead.OwnerName,
		&lead.RelatedUserID, &lead.ServiceRequestID, &lead.QualifiedAt, &lead.ConvertedAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM leads WHERE id = $1", leadColumns)
	return scanLead(r.pool.QueryRow(ctx, query, id))
}

// GetByDedupKey returns the enquiry-sourced lead holding the given dedup key.
func (r *Repository) GetByDedupKey(ctx context.Context, dedupKey string) (Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM leads WHERE dedup_key = $1 AND source = $2", leadColumns)
	return scanLead(r.pool.QueryRow(ctx, query, dedupKey, string(domain.SourceEnquiry)))
}

type UpsertEnquiryParams struct {
	Name             string
	Email            string
	Phone            string
	OrganizationName string
	Notes            string
	DedupKey         string
}

var upsertEnquiryQuery = fmt.Sprintf(`
	INSERT INTO leads (name, email, phone, organization_name, notes, source, stage, dedup_key)
	VALUES ($1, $2, $3, $4, $5, 'enquiry', 'new', $6)
	ON CONFLICT (dedup_key) WHERE source = 'enquiry'
	DO UPDATE SET
		name = EXCLUDED.name,
		email = EXCLUDED.email,
		phone = EXCLUDED.phone,
		organization_name = EXCLUDED.organization_name,
		notes = EXCLUDED.notes,
		stage = CASE WHEN leads.stage = 'disqualified' THEN 'new' ELSE leads.stage END,
		disqualify_reason = CASE WHEN leads.stage = 'disqualified' THEN NULL ELSE leads.disqualify_reason END,
		updated_at = now()
	WHERE leads.stage <> 'converted'
	RETURNING %s
`, leadColumns)

// UpsertEnquiry inserts or merges an enquiry-sourced lead against the partial
// unique index on (dedup_key) WHERE source = 'enquiry'.
//
// Merge policy on conflict: contact fields, notes and updated_at are
// overwritten; a disqualified lead is reopened to 'new' with its reason
// cleared; a converted lead is left completely untouched (the DO UPDATE WHERE
// clause excludes it, and the existing row is fetched instead).
func (r *Repository) UpsertEnquiry(ctx context.Context, params UpsertEnquiryParams) (Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	lead, err := scanLead(r.pool.QueryRow(ctx, upsertEnquiryQuery,
		params.Name, params.Email, params.Phone, params.OrganizationName, params.Notes, params.DedupKey,
	))
	if errors.Is(err, ErrNotFound) {
		// Conflict row is converted and read-only; return it as-is.
		return r.GetByDedupKey(ctx, params.DedupKey)
	}
	return lead, err
}

type CreateLeadParams struct {
	Name             string
	Email            string
	Phone            string
	OrganizationName string
	OrganizationID   *uuid.UUID
	Notes            string
	Source           domain.Source
	OwnerID          *uuid.UUID
	OwnerName        *string
	RelatedUserID    *uuid.UUID
}

// Create inserts a lead at stage 'new'. Used by the login and manual intake
// paths; enquiry intake goes through UpsertEnquiry instead.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO leads (name, email, phone, organization_name, organization_id, notes,
			source, stage, owner_id, owner_name, related_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'new', $8, $9, $10)
		RETURNING %s
	`, leadColumns)

	return scanLead(r.pool.QueryRow(ctx, query,
		params.Name, params.Email, params.Phone, params.OrganizationName, params.OrganizationID, params.Notes,
		string(params.Source), params.OwnerID, params.OwnerName, params.RelatedUserID,
	))
}

// FindOpenByUserID returns a non-terminal lead linked to the given user, if any.
// Login-sourced dedup relies on this check; it is not atomic with the insert.
func (r *Repository) FindOpenByUserID(ctx context.Context, userID uuid.UUID) (Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE related_user_id = $1 AND stage NOT IN ('converted', 'disqualified')
		ORDER BY created_at DESC
		LIMIT 1
	`, leadColumns)
	return scanLead(r.pool.QueryRow(ctx, query, userID))
}

type UpdateLeadParams struct {
	Name             *string
	Email            *string
	Phone            *string
	OrganizationName *string
	Notes            *string
	OwnerIDSet       bool
	OwnerID          *uuid.UUID
	OwnerName        *string
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// Update applies a partial contact/assignment update. Converted leads are
// read-only and report ErrNotFound through the stage guard.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	fields := []struct {
		enabled bool
		column  string
		value   interface{}
	}{
		{params.Name != nil, "name", derefString(params.Name)},
		{params.Email != nil, "email", derefString(params.Email)},
		{params.Phone != nil, "phone", derefString(params.Phone)},
		{params.OrganizationName != nil, "organization_name", derefString(params.OrganizationName)},
		{params.Notes != nil, "notes", derefString(params.Notes)},
		{params.OwnerIDSet, "owner_id", params.OwnerID},
		{params.OwnerIDSet, "owner_name", params.OwnerName},
	}

	for _, field := range fields {
		if !field.enabled {
			continue
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field.column, argIdx))
		args = append(args, field.value)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE leads SET %s
		WHERE id = $%d AND stage <> 'converted'
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, leadColumns)

	return scanLead(r.pool.QueryRow(ctx, query, args...))
}

var updateStageQuery = fmt.Sprintf(`
	UPDATE leads SET
		stage = $2,
		disqualify_reason = $3,
		qualified_at = CASE WHEN $2 = 'qualified' THEN COALESCE(qualified_at, now()) ELSE qualified_at END,
		updated_at = now()
	WHERE id = $1
	RETURNING %s
`, leadColumns)

// UpdateStage writes the target stage plus its per-transition side effects.
// disqualifyReason carries the new reason when entering 'disqualified' and nil
// otherwise, which also clears the reason on re-qualification. qualified_at is
// set at most once via COALESCE.
func (r *Repository) UpdateStage(ctx context.Context, id uuid.UUID, stage domain.Stage, disqualifyReason *string) (Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return scanLead(r.pool.QueryRow(ctx, updateStageQuery, id, string(stage), disqualifyReason))
}

var markConvertedQuery = fmt.Sprintf(`
	UPDATE leads SET
		stage = 'converted',
		service_request_id = $2,
		converted_at = COALESCE(converted_at, now()),
		updated_at = now()
	WHERE id = $1 AND stage = 'qualified'
	RETURNING %s
`, leadColumns)

// MarkConverted links the service request and persists the terminal stage in
// one statement. The stage guard makes concurrent conversions lose cleanly:
// the second writer sees zero rows and reports ErrNotFound.
func (r *Repository) MarkConverted(ctx context.Context, id uuid.UUID, serviceRequestID uuid.UUID) (Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return scanLead(r.pool.QueryRow(ctx, markConvertedQuery, id, serviceRequestID))
}

type ListParams struct {
	Stage     *string
	Source    *string
	Search    string
	OwnerID   *uuid.UUID
	Offset    int
	Limit     int
	SortBy    string
	SortOrder string
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortColumn := mapLeadSortColumn(params.SortBy)
	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	args = append(args, params.Limit, params.Offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

func buildLeadListWhere(params ListParams) (string, []interface{}, int) {
	whereClauses := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if params.Stage != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("stage = $%d", argIdx))
		args = append(args, *params.Stage)
		argIdx++
	}
	if params.Source != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("source = $%d", argIdx))
		args = append(args, *params.Source)
		argIdx++
	}
	if params.OwnerID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, *params.OwnerID)
		argIdx++
	}
	if params.Search != "" {
		searchPattern := "%" + params.Search + "%"
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d OR organization_name ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx,
		))
		args = append(args, searchPattern)
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

func mapLeadSortColumn(sortBy string) string {
	switch sortBy {
	case "name":
		return "name"
	case "stage":
		return "stage"
	case "updated_at":
		return "updated_at"
	default:
		return "created_at"
	}
}

func (r *Repository) AddActivity(ctx context.Context, leadID uuid.UUID, userID *uuid.UUID, action string, meta map[string]interface{}) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	metaJSON := []byte("{}")
	if meta != nil {
		encoded, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		metaJSON = encoded
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, user_id, action, meta)
		VALUES ($1, $2, $3, $4)
	`, leadID, userID, action, metaJSON)
	return err
}

func (r *Repository) ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]Activity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, user_id, action, meta, created_at
		FROM lead_activity
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Activity, 0)
	for rows.Next() {
		var entry Activity
		var metaJSON []byte
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.UserID, &entry.Action, &metaJSON, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &entry.Meta)
		}
		entries = append(entries, entry)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return entries, nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, used to resolve conversion races on service_requests.lead_id.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
