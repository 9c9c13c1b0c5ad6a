package service

import (
	"context"
	"testing"

	"marketplace_admin_backend/internal/servicerequests/repository"
	"marketplace_admin_backend/internal/servicerequests/transport"
	"marketplace_admin_backend/platform/apperr"
	"marketplace_admin_backend/platform/validator"

	"github.com/google/uuid"
)

type fakeRepo struct {
	request    repository.ServiceRequest
	missing    bool
	listParams []repository.ListParams
	statuses   []string
}

func (f *fakeRepo) Create(ctx context.Context, params repository.CreateParams) (repository.ServiceRequest, error) {
	return f.request, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (repository.ServiceRequest, error) {
	if f.missing {
		return repository.ServiceRequest{}, repository.ErrNotFound
	}
	return f.request, nil
}

func (f *fakeRepo) FindByLeadID(ctx context.Context, leadID uuid.UUID) (repository.ServiceRequest, error) {
	if f.missing {
		return repository.ServiceRequest{}, repository.ErrNotFound
	}
	return f.request, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (repository.ServiceRequest, error) {
	f.statuses = append(f.statuses, status)
	updated := f.request
	updated.Status = status
	return updated, nil
}

func (f *fakeRepo) List(ctx context.Context, params repository.ListParams) ([]repository.ServiceRequest, int, error) {
	f.listParams = append(f.listParams, params)
	return []repository.ServiceRequest{f.request}, 1, nil
}

func openRequest() repository.ServiceRequest {
	return repository.ServiceRequest{ID: uuid.New(), LeadID: uuid.New(), Status: "open", ContactName: "Jane"}
}

func TestFindByLeadIDReportsAbsenceWithoutError(t *testing.T) {
	svc := New(&fakeRepo{missing: true}, validator.New())

	_, found, err := svc.FindByLeadID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("FindByLeadID: %v", err)
	}
	if found {
		t.Fatal("expected found=false for a missing request")
	}
}

func TestUpdateStatusValidatesValue(t *testing.T) {
	repo := &fakeRepo{request: openRequest()}
	svc := New(repo, validator.New())

	_, err := svc.UpdateStatus(context.Background(), repo.request.ID, transport.UpdateStatusRequest{Status: "cancelled"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.statuses) != 0 {
		t.Fatal("invalid status must not reach storage")
	}

	resp, err := svc.UpdateStatus(context.Background(), repo.request.ID, transport.UpdateStatusRequest{Status: "closed"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if resp.Status != "closed" {
		t.Fatalf("status = %q, want closed", resp.Status)
	}
}

func TestListClampsAndFilters(t *testing.T) {
	repo := &fakeRepo{request: openRequest()}
	svc := New(repo, validator.New())

	if _, err := svc.List(context.Background(), transport.ListQuery{Page: -1, PageSize: 500, Status: "Open"}); err != nil {
		t.Fatalf("List: %v", err)
	}
	got := repo.listParams[0]
	if got.Offset != 0 || got.Limit != 100 {
		t.Fatalf("offset/limit = %d/%d, want 0/100", got.Offset, got.Limit)
	}
	if got.Status == nil || *got.Status != "open" {
		t.Fatal("expected lowercased status filter")
	}

	if _, err := svc.List(context.Background(), transport.ListQuery{Status: "cancelled"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}
