package management

import (
	"context"
	"testing"

	"marketplace_admin_backend/internal/leads/domain"
	"marketplace_admin_backend/internal/leads/repository"
	"marketplace_admin_backend/internal/leads/transport"
	"marketplace_admin_backend/platform/apperr"
	"marketplace_admin_backend/platform/validator"

	"github.com/google/uuid"
)

type fakeRepo struct {
	lead         repository.Lead
	listParams   []repository.ListParams
	updateParams []repository.UpdateLeadParams
	activities   []string
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	if f.lead.ID == uuid.Nil {
		return repository.Lead{}, repository.ErrNotFound
	}
	return f.lead, nil
}

func (f *fakeRepo) GetByDedupKey(ctx context.Context, dedupKey string) (repository.Lead, error) {
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeRepo) List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	f.listParams = append(f.listParams, params)
	return []repository.Lead{f.lead}, 1, nil
}

func (f *fakeRepo) Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	return repository.Lead{}, nil
}

func (f *fakeRepo) Update(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error) {
	f.updateParams = append(f.updateParams, params)
	updated := f.lead
	if params.Email != nil {
		updated.Email = *params.Email
	}
	if params.OwnerIDSet {
		updated.OwnerID = params.OwnerID
	}
	return updated, nil
}

func (f *fakeRepo) AddActivity(ctx context.Context, leadID uuid.UUID, userID *uuid.UUID, action string, meta map[string]interface{}) error {
	f.activities = append(f.activities, action)
	return nil
}

func (f *fakeRepo) ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]repository.Activity, error) {
	return []repository.Activity{}, nil
}

func openLead() repository.Lead {
	return repository.Lead{ID: uuid.New(), Name: "Jane", Email: "jane@b.nl", Stage: string(domain.StageQualifying)}
}

func newTestService(repo *fakeRepo) *Service {
	return New(repo, validator.New(), "NL")
}

func TestListClampsPageAndPageSize(t *testing.T) {
	repo := &fakeRepo{lead: openLead()}
	svc := newTestService(repo)

	cases := []struct {
		page, pageSize   int
		offset, limit    int
		expectedPage     int
		expectedPageSize int
	}{
		{0, 0, 0, 20, 1, 20},
		{-3, 1000, 0, 100, 1, 100},
		{3, 10, 20, 10, 3, 10},
	}

	for _, tc := range cases {
		resp, err := svc.List(context.Background(), transport.ListLeadsQuery{Page: tc.page, PageSize: tc.pageSize})
		if err != nil {
			t.Fatalf("List(page=%d,size=%d): %v", tc.page, tc.pageSize, err)
		}
		got := repo.listParams[len(repo.listParams)-1]
		if got.Offset != tc.offset || got.Limit != tc.limit {
			t.Errorf("page=%d size=%d: offset/limit = %d/%d, want %d/%d",
				tc.page, tc.pageSize, got.Offset, got.Limit, tc.offset, tc.limit)
		}
		if resp.Page != tc.expectedPage || resp.PageSize != tc.expectedPageSize {
			t.Errorf("response page/size = %d/%d, want %d/%d", resp.Page, resp.PageSize, tc.expectedPage, tc.expectedPageSize)
		}
	}
}

func TestListRejectsUnknownFilters(t *testing.T) {
	svc := newTestService(&fakeRepo{lead: openLead()})

	if _, err := svc.List(context.Background(), transport.ListLeadsQuery{Stage: "archived"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown stage, got %v", err)
	}
	if _, err := svc.List(context.Background(), transport.ListLeadsQuery{Source: "carrier-pigeon"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown source, got %v", err)
	}
}

func TestListTreatsAllAsNoFilter(t *testing.T) {
	repo := &fakeRepo{lead: openLead()}
	svc := newTestService(repo)

	if _, err := svc.List(context.Background(), transport.ListLeadsQuery{Stage: "All", Source: "ALL"}); err != nil {
		t.Fatalf("List: %v", err)
	}
	got := repo.listParams[0]
	if got.Stage != nil || got.Source != nil {
		t.Fatal("\"all\" must translate to no filter")
	}
}

func TestUpdateConvertedLeadIsReadOnly(t *testing.T) {
	lead := openLead()
	lead.Stage = string(domain.StageConverted)
	repo := &fakeRepo{lead: lead}
	svc := newTestService(repo)

	name := "New Name"
	_, err := svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{Name: &name}, uuid.New(), []string{"admin"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(repo.updateParams) != 0 {
		t.Fatal("converted lead must not be written")
	}
}

func TestUpdateReassignmentGuard(t *testing.T) {
	ownerID := uuid.New()
	lead := openLead()
	lead.OwnerID = &ownerID
	newOwner := uuid.New()

	cases := []struct {
		name    string
		actorID uuid.UUID
		roles   []string
		allowed bool
	}{
		{"admin may reassign", uuid.New(), []string{"admin"}, true},
		{"current owner may reassign", ownerID, []string{"operator"}, true},
		{"other operator may not", uuid.New(), []string{"operator"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{lead: lead}
			svc := newTestService(repo)

			req := transport.UpdateLeadRequest{
				OwnerID: transport.OptionalUUID{Set: true, Value: &newOwner},
			}
			_, err := svc.Update(context.Background(), lead.ID, req, tc.actorID, tc.roles)
			if tc.allowed && err != nil {
				t.Fatalf("expected reassignment to succeed, got %v", err)
			}
			if !tc.allowed && !apperr.Is(err, apperr.KindForbidden) {
				t.Fatalf("expected forbidden, got %v", err)
			}
			if tc.allowed && repo.activities[len(repo.activities)-1] != "assigned" {
				t.Fatal("expected an assigned activity entry")
			}
		})
	}
}

func TestUpdateNormalizesContact(t *testing.T) {
	repo := &fakeRepo{lead: openLead()}
	svc := newTestService(repo)

	email := "Jane@Example.COM"
	phone := "06 1234 5678"
	_, err := svc.Update(context.Background(), repo.lead.ID, transport.UpdateLeadRequest{
		Email: &email,
		Phone: &phone,
	}, uuid.New(), []string{"operator"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got := repo.updateParams[0]
	if got.Email == nil || *got.Email != "jane@example.com" {
		t.Errorf("email not normalized: %v", got.Email)
	}
	if got.Phone == nil || *got.Phone != "+31612345678" {
		t.Errorf("phone not normalized: %v", got.Phone)
	}
}

func TestActivityChecksLeadExists(t *testing.T) {
	svc := newTestService(&fakeRepo{})

	_, err := svc.Activity(context.Background(), uuid.New(), 50)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
