package pipeline

import (
	"context"
	"testing"

	"marketplace_admin_backend/internal/events"
	"marketplace_admin_backend/internal/leads/domain"
	"marketplace_admin_backend/internal/leads/repository"
	"marketplace_admin_backend/internal/leads/transport"
	"marketplace_admin_backend/platform/apperr"
	"marketplace_admin_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRepo struct {
	lead          repository.Lead
	getByIDCalls  int
	updateStages  []domain.Stage
	updateReasons []*string
	converted     bool
	convertErr    error
	activities    []string
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	f.getByIDCalls++
	if f.lead.ID == uuid.Nil {
		return repository.Lead{}, repository.ErrNotFound
	}
	return f.lead, nil
}

func (f *fakeRepo) GetByDedupKey(ctx context.Context, dedupKey string) (repository.Lead, error) {
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeRepo) List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) UpdateStage(ctx context.Context, id uuid.UUID, stage domain.Stage, disqualifyReason *string) (repository.Lead, error) {
	f.updateStages = append(f.updateStages, stage)
	f.updateReasons = append(f.updateReasons, disqualifyReason)
	updated := f.lead
	updated.Stage = string(stage)
	updated.DisqualifyReason = disqualifyReason
	return updated, nil
}

func (f *fakeRepo) MarkConverted(ctx context.Context, id uuid.UUID, serviceRequestID uuid.UUID) (repository.Lead, error) {
	if f.convertErr != nil {
		return repository.Lead{}, f.convertErr
	}
	f.converted = true
	updated := f.lead
	updated.Stage = string(domain.StageConverted)
	updated.ServiceRequestID = &serviceRequestID
	return updated, nil
}

func (f *fakeRepo) AddActivity(ctx context.Context, leadID uuid.UUID, userID *uuid.UUID, action string, meta map[string]interface{}) error {
	f.activities = append(f.activities, action)
	return nil
}

func (f *fakeRepo) ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]repository.Activity, error) {
	return nil, nil
}

type fakeRequests struct {
	existing    *uuid.UUID
	createID    uuid.UUID
	createErr   error
	createCalls int
	findCalls   int
}

func (f *fakeRequests) FindByLeadID(ctx context.Context, leadID uuid.UUID) (uuid.UUID, bool, error) {
	f.findCalls++
	if f.existing != nil {
		return *f.existing, true, nil
	}
	return uuid.Nil, false, nil
}

func (f *fakeRequests) Create(ctx context.Context, snapshot ServiceRequestSnapshot) (uuid.UUID, error) {
	f.createCalls++
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return uuid.Nil, err
	}
	return f.createID, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

var operatorRoles = []string{"operator"}

func qualifiedLead() repository.Lead {
	return repository.Lead{
		ID:    uuid.New(),
		Name:  "Jane Tester",
		Email: "jane@b.nl",
		Stage: string(domain.StageQualified),
	}
}

func newTestService(repo *fakeRepo, requests ServiceRequests, bus events.Bus) *Service {
	flags := domain.Flags{EnableLeadCapture: true, EnableConversion: true}
	return New(repo, requests, bus, flags, logger.New("development"))
}

func TestTransitionPermissionCheckedBeforeAnyRead(t *testing.T) {
	repo := &fakeRepo{lead: qualifiedLead()}
	svc := newTestService(repo, &fakeRequests{}, &recordingBus{})

	_, err := svc.TransitionStage(context.Background(), repo.lead.ID,
		transport.TransitionStageRequest{TargetStage: "converted"}, uuid.New(), []string{"viewer"})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if repo.getByIDCalls != 0 {
		t.Fatal("permission failure must not reach storage")
	}
}

func TestTransitionUnknownTargetStage(t *testing.T) {
	repo := &fakeRepo{lead: qualifiedLead()}
	svc := newTestService(repo, &fakeRequests{}, &recordingBus{})

	_, err := svc.TransitionStage(context.Background(), repo.lead.ID,
		transport.TransitionStageRequest{TargetStage: "archived"}, uuid.New(), operatorRoles)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.getByIDCalls != 0 {
		t.Fatal("validation failure must not reach storage")
	}
}

func TestDisqualifyRequiresReason(t *testing.T) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New(), Stage: string(domain.StageQualifying)}}
	svc := newTestService(repo, &fakeRequests{}, &recordingBus{})

	_, err := svc.TransitionStage(context.Background(), repo.lead.ID,
		transport.TransitionStageRequest{TargetStage: "disqualified", Reason: "   "}, uuid.New(), operatorRoles)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransitionGrid(t *testing.T) {
	cases := []struct {
		from    domain.Stage
		to      domain.Stage
		allowed bool
	}{
		{domain.StageNew, domain.StageQualifying, true},
		{domain.StageNew, domain.StageQualified, false},
		{domain.StageNew, domain.StageDisqualified, false},
		{domain.StageQualifying, domain.StageQualified, true},
		{domain.StageQualifying, domain.StageDisqualified, true},
		{domain.StageQualifying, domain.StageNew, false},
		{domain.StageQualified, domain.StageQualifying, false},
		{domain.StageDisqualified, domain.StageQualifying, true},
		{domain.StageDisqualified, domain.StageQualified, false},
		{domain.StageConverted, domain.StageQualifying, false},
		{domain.StageConverted, domain.StageDisqualified, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			repo := &fakeRepo{lead: repository.Lead{ID: uuid.New(), Stage: string(tc.from), Email: "a@b.nl"}}
			svc := newTestService(repo, &fakeRequests{}, &recordingBus{})

			req := transport.TransitionStageRequest{TargetStage: string(tc.to)}
			if tc.to == domain.StageDisqualified {
				req.Reason = "not a fit"
			}

			_, err := svc.TransitionStage(context.Background(), repo.lead.ID, req, uuid.New(), operatorRoles)
			if tc.allowed && err != nil {
				t.Fatalf("expected transition %s -> %s to succeed, got %v", tc.from, tc.to, err)
			}
			if !tc.allowed && !apperr.Is(err, apperr.KindConflict) {
				t.Fatalf("expected conflict for %s -> %s, got %v", tc.from, tc.to, err)
			}
		})
	}
}

func TestDisqualifyPersistsReasonAndRequalifyClearsIt(t *testing.T) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New(), Stage: string(domain.StageQualifying)}}
	svc := newTestService(repo, &fakeRequests{}, &recordingBus{})

	resp, err := svc.TransitionStage(context.Background(), repo.lead.ID,
		transport.TransitionStageRequest{TargetStage: "disqualified", Reason: "wrong region"}, uuid.New(), operatorRoles)
	if err != nil {
		t.Fatalf("disqualify: %v", err)
	}
	if resp.DisqualifyReason == nil || *resp.DisqualifyReason != "wrong region" {
		t.Fatal("expected disqualify reason on the response")
	}

	repo.lead.Stage = string(domain.StageDisqualified)
	if _, err := svc.TransitionStage(context.Background(), repo.lead.ID,
		transport.TransitionStageRequest{TargetStage: "qualifying"}, uuid.New(), operatorRoles); err != nil {
		t.Fatalf("requalify: %v", err)
	}
	if last := repo.updateReasons[len(repo.updateReasons)-1]; last != nil {
		t.Fatal("requalifying must clear the disqualify reason")
	}
}

func TestConvertCreatesServiceRequestAndPublishes(t *testing.T) {
	repo := &fakeRepo{lead: qualifiedLead()}
	requestID := uuid.New()
	requests := &fakeRequests{createID: requestID}
	bus := &recordingBus{}
	svc := newTestService(repo, requests, bus)

	resp, err := svc.TransitionStage(context.Background(), repo.lead.ID,
		transport.TransitionStageRequest{TargetStage: "converted"}, uuid.New(), operatorRoles)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if !repo.converted {
		t.Fatal("expected MarkConverted to run")
	}
	if requests.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", requests.createCalls)
	}
	if resp.ServiceRequestID == nil || *resp.ServiceRequestID != requestID {
		t.Fatal("expected the response to carry the linked request id")
	}

	var sawConverted bool
	for _, event := range bus.published {
		if converted, ok := event.(events.LeadConverted); ok {
			sawConverted = true
			if converted.ServiceRequestID != requestID {
				t.Fatalf("event request id = %s, want %s", converted.ServiceRequestID, requestID)
			}
		}
	}
	if !sawConverted {
		t.Fatal("expected a LeadConverted event")
	}
}

func TestConvertShortCircuitsWhenAlreadyLinked(t *testing.T) {
	lead := qualifiedLead()
	linked := uuid.New()
	lead.ServiceRequestID = &linked
	repo := &fakeRepo{lead: lead}
	requests := &fakeRequests{}
	svc := newTestService(repo, requests, &recordingBus{})

	if _, err := svc.TransitionStage(context.Background(), lead.ID,
		transport.TransitionStageRequest{TargetStage: "converted"}, uuid.New(), operatorRoles); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if requests.findCalls != 0 || requests.createCalls != 0 {
		t.Fatal("a linked lead must not touch the request store again")
	}
}

func TestConvertAdoptsOrphanRequest(t *testing.T) {
	repo := &fakeRepo{lead: qualifiedLead()}
	orphan := uuid.New()
	requests := &fakeRequests{existing: &orphan}
	svc := newTestService(repo, requests, &recordingBus{})

	resp, err := svc.TransitionStage(context.Background(), repo.lead.ID,
		transport.TransitionStageRequest{TargetStage: "converted"}, uuid.New(), operatorRoles)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if requests.createCalls != 0 {
		t.Fatal("an orphan request must be adopted, not duplicated")
	}
	if resp.ServiceRequestID == nil || *resp.ServiceRequestID != orphan {
		t.Fatal("expected the orphan request id to be linked")
	}
}

// racedRequests misses the first lookup, fails the insert on the unique
// constraint, then serves the winner's row on the retry lookup.
type racedRequests struct {
	winner      uuid.UUID
	findCalls   int
	createCalls int
}

func (f *racedRequests) FindByLeadID(ctx context.Context, leadID uuid.UUID) (uuid.UUID, bool, error) {
	f.findCalls++
	if f.findCalls == 1 {
		return uuid.Nil, false, nil
	}
	return f.winner, true, nil
}

func (f *racedRequests) Create(ctx context.Context, snapshot ServiceRequestSnapshot) (uuid.UUID, error) {
	f.createCalls++
	return uuid.Nil, &pgconn.PgError{Code: "23505", ConstraintName: "service_requests_lead_id_key"}
}

func TestConvertResolvesConcurrentCreateThroughUniqueConstraint(t *testing.T) {
	lead := qualifiedLead()
	requests := &racedRequests{winner: uuid.New()}
	repo := &fakeRepo{lead: lead}
	svc := newTestService(repo, requests, &recordingBus{})

	id, err := svc.EnsureServiceRequest(context.Background(), lead)
	if err != nil {
		t.Fatalf("EnsureServiceRequest: %v", err)
	}
	if id != requests.winner {
		t.Fatalf("adopted id = %s, want the concurrent winner %s", id, requests.winner)
	}
	if requests.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", requests.createCalls)
	}
	if requests.findCalls != 2 {
		t.Fatalf("find calls = %d, want miss then adopt", requests.findCalls)
	}
}

func TestConvertRequiresContact(t *testing.T) {
	lead := qualifiedLead()
	lead.Email = ""
	lead.Phone = ""
	repo := &fakeRepo{lead: lead}
	svc := newTestService(repo, &fakeRequests{}, &recordingBus{})

	_, err := svc.TransitionStage(context.Background(), lead.ID,
		transport.TransitionStageRequest{TargetStage: "converted"}, uuid.New(), operatorRoles)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.converted {
		t.Fatal("lead without contact must not be converted")
	}
}

func TestConvertDisabledByFlag(t *testing.T) {
	repo := &fakeRepo{lead: qualifiedLead()}
	flags := domain.Flags{EnableLeadCapture: true, EnableConversion: false}
	svc := New(repo, &fakeRequests{}, &recordingBus{}, flags, logger.New("development"))

	_, err := svc.TransitionStage(context.Background(), repo.lead.ID,
		transport.TransitionStageRequest{TargetStage: "converted"}, uuid.New(), operatorRoles)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestConvertConflictsWhenStageChangedConcurrently(t *testing.T) {
	repo := &fakeRepo{lead: qualifiedLead(), convertErr: repository.ErrNotFound}
	svc := newTestService(repo, &fakeRequests{createID: uuid.New()}, &recordingBus{})

	_, err := svc.TransitionStage(context.Background(), repo.lead.ID,
		transport.TransitionStageRequest{TargetStage: "converted"}, uuid.New(), operatorRoles)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
