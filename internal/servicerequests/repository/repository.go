// Package repository provides Postgres persistence for service requests.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("service request not found")

const queryTimeout = 5 * time.Second

const requestColumns = `id, lead_id, organization_id, owner_id, source, status,
	contact_name, contact_email, contact_phone, contact_organization, created_at, updated_at`

// ServiceRequest is a downstream opportunity created from a converted lead.
// The contact_* columns are a snapshot taken at conversion time.
type ServiceRequest struct {
	ID                  uuid.UUID
	LeadID              uuid.UUID
	OrganizationID      *uuid.UUID
	OwnerID             *uuid.UUID
	Source              string
	Status              string
	ContactName         string
	ContactEmail        string
	ContactPhone        string
	ContactOrganization string
	CreatedAt           time.Time
	UpdatedAt           time.Time
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

func scanRequest(row pgx.Row) (ServiceRequest, error) {
	var request ServiceRequest
	err := row.Scan(
		&request.ID, &request.LeadID, &request.OrganizationID, &request.OwnerID, &request.Source, &request.Status,
		&request.ContactName, &request.ContactEmail, &request.ContactPhone, &request.ContactOrganization,
		&request.CreatedAt, &request.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ServiceRequest{}, ErrNotFound
	}
	return request, err
}

type CreateParams struct {
	LeadID              uuid.UUID
	OrganizationID      *uuid.UUID
	OwnerID             *uuid.UUID
	Source              string
	ContactName         string
	ContactEmail        string
	ContactPhone        string
	ContactOrganization string
}

// Create inserts a new service request with status 'open'. The unique index
// on lead_id turns a concurrent double-create into a unique violation the
// conversion orchestrator resolves by adoption.
func (r *Repository) Create(ctx context.Context, params CreateParams) (ServiceRequest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO service_requests (lead_id, organization_id, owner_id, source, status,
			contact_name, contact_email, contact_phone, contact_organization)
		VALUES ($1, $2, $3, $4, 'open', $5, $6, $7, $8)
		RETURNING %s
	`, requestColumns)

	return scanRequest(r.pool.QueryRow(ctx, query,
		params.LeadID, params.OrganizationID, params.OwnerID, params.Source,
		params.ContactName, params.ContactEmail, params.ContactPhone, params.ContactOrganization,
	))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (ServiceRequest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM service_requests WHERE id = $1", requestColumns)
	return scanRequest(r.pool.QueryRow(ctx, query, id))
}

// FindByLeadID returns the service request linked to a lead, if one exists.
func (r *Repository) FindByLeadID(ctx context.Context, leadID uuid.UUID) (ServiceRequest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM service_requests WHERE lead_id = $1 LIMIT 1", requestColumns)
	return scanRequest(r.pool.QueryRow(ctx, query, leadID))
}

// UpdateStatus moves a request between open/in_progress/closed. Status value
// validation happens in the service layer.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (ServiceRequest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE service_requests SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, requestColumns)

	return scanRequest(r.pool.QueryRow(ctx, query, id, status))
}

type ListParams struct {
	Status *string
	Search string
	Offset int
	Limit  int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]ServiceRequest, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	whereClauses := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if params.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Search != "" {
		searchPattern := "%" + params.Search + "%"
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(contact_name ILIKE $%d OR contact_email ILIKE $%d OR contact_organization ILIKE $%d)",
			argIdx, argIdx, argIdx,
		))
		args = append(args, searchPattern)
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM service_requests WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM service_requests
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, requestColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	requests := make([]ServiceRequest, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, request)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return requests, total, nil
}
