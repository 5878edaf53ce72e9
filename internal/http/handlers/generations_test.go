package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/middleware"
	"studio/internal/service"
)

type fakeSubmitter struct {
	gotReq service.SubmitRequest
	result *service.SubmitResult
	err    error
}

func (f *fakeSubmitter) Submit(ctx context.Context, req service.SubmitRequest) (*service.SubmitResult, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeReconciler struct {
	job *domain.Job
	err error
}

func (f *fakeReconciler) Reconcile(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

type fakeJobs struct {
	jobs []domain.Job
	err  error
}

func (f *fakeJobs) Create(ctx context.Context, job *domain.Job) error { return nil }
func (f *fakeJobs) GetByOwner(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeJobs) SetExternalID(ctx context.Context, jobID, externalID string) error { return nil }
func (f *fakeJobs) Finalize(ctx context.Context, jobID string, update domain.TerminalUpdate) (*domain.Job, bool, error) {
	return nil, false, domain.ErrNotFound
}
func (f *fakeJobs) ListRecentByOwner(ctx context.Context, userID string, limit int) ([]domain.Job, error) {
	return f.jobs, f.err
}
func (f *fakeJobs) ListStaleProcessing(ctx context.Context, olderThanSeconds, limit int) ([]domain.Job, error) {
	return nil, nil
}

type fakeLedger struct {
	balance int64
	err     error
}

func (f *fakeLedger) Debit(ctx context.Context, userID string, amount int64, jobID, description string) error {
	return nil
}
func (f *fakeLedger) Credit(ctx context.Context, userID string, amount int64, description string) error {
	return nil
}
func (f *fakeLedger) Balance(ctx context.Context, userID string) (int64, error) {
	return f.balance, f.err
}

func newTestApp() *App {
	return &App{
		Logger:     zerolog.Nop(),
		Submitter:  &fakeSubmitter{result: &service.SubmitResult{JobID: "job-1", ExternalID: "pred-1", Status: domain.JobStatusProcessing}},
		Reconciler: &fakeReconciler{job: &domain.Job{ID: "job-1", Status: domain.JobStatusProcessing}},
		Jobs:       &fakeJobs{},
		Ledger:     &fakeLedger{balance: 10},
	}
}

func authed(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

func TestGenerateAccepted(t *testing.T) {
	app := newTestApp()
	body := `{"prompt":"a red fox","style_preset":"portrait"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/generations", strings.NewReader(body)), "user-1")
	rr := httptest.NewRecorder()
	app.Generate(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rr.Code, rr.Body.String())
	}
	var resp generateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID != "job-1" || resp.ProviderReference != "pred-1" || resp.Status != "processing" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	sub := app.Submitter.(*fakeSubmitter)
	if sub.gotReq.UserID != "user-1" || sub.gotReq.Prompt != "a red fox" || sub.gotReq.Params.StylePreset != "portrait" {
		t.Fatalf("unexpected submit request: %+v", sub.gotReq)
	}
}

func TestGenerateRequiresUserContext(t *testing.T) {
	app := newTestApp()
	req := httptest.NewRequest(http.MethodPost, "/v1/generations", strings.NewReader(`{"prompt":"x"}`))
	rr := httptest.NewRecorder()
	app.Generate(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	app := newTestApp()
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/generations", strings.NewReader("{not json")), "user-1")
	rr := httptest.NewRecorder()
	app.Generate(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestGenerateErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		wantCode int
		wantKind string
	}{
		{fmt.Errorf("%w: prompt must not be empty", domain.ErrValidation), http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("%w: balance 2 below job cost 5", domain.ErrInsufficientCredits), http.StatusPaymentRequired, "insufficient_credits"},
		{domain.ErrDuplicateReference, http.StatusConflict, "duplicate_reference"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		app := newTestApp()
		app.Submitter = &fakeSubmitter{err: tc.err}
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/generations", strings.NewReader(`{"prompt":"a red fox"}`)), "user-1")
		rr := httptest.NewRecorder()
		app.Generate(rr, req)
		if rr.Code != tc.wantCode {
			t.Fatalf("%v: status = %d, want %d", tc.err, rr.Code, tc.wantCode)
		}
		var resp struct {
			Error struct {
				Kind    string `json:"kind"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		if resp.Error.Kind != tc.wantKind {
			t.Fatalf("%v: kind = %q, want %q", tc.err, resp.Error.Kind, tc.wantKind)
		}
		if resp.Error.Message == "" {
			t.Fatalf("%v: empty error message", tc.err)
		}
	}
}

func newStatusRequest(jobID, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/generations/"+jobID, nil)
	return authed(req, userID)
}

func serveStatus(app *App, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r := chi.NewRouter()
	r.Get("/v1/generations/{job_id}", app.Status)
	r.ServeHTTP(rr, req)
	return rr
}

func TestStatusCompletedJob(t *testing.T) {
	app := newTestApp()
	ms := int64(2500)
	app.Reconciler = &fakeReconciler{job: &domain.Job{
		ID:               "job-1",
		Status:           domain.JobStatusCompleted,
		ResultURL:        "https://x/img.png",
		ProcessingTimeMS: &ms,
	}}
	rr := serveStatus(app, newStatusRequest("job-1", "user-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var resp statusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "completed" || resp.ResultURL != "https://x/img.png" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ProcessingTimeMS == nil || *resp.ProcessingTimeMS != 2500 {
		t.Fatalf("processing time = %v, want 2500", resp.ProcessingTimeMS)
	}
	if resp.ErrorMessage != "" {
		t.Fatalf("completed job carries error message: %+v", resp)
	}
}

func TestStatusProcessingJobOmitsTerminalFields(t *testing.T) {
	app := newTestApp()
	rr := serveStatus(app, newStatusRequest("job-1", "user-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "result_url") || strings.Contains(body, "error_message") {
		t.Fatalf("processing response carries terminal fields: %s", body)
	}
}

func TestStatusNotFound(t *testing.T) {
	app := newTestApp()
	app.Reconciler = &fakeReconciler{err: domain.ErrNotFound}
	rr := serveStatus(app, newStatusRequest("missing", "user-1"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestStatusProviderUnavailable(t *testing.T) {
	app := newTestApp()
	app.Reconciler = &fakeReconciler{err: fmt.Errorf("poll: %w", domain.ErrProviderUnavailable)}
	rr := serveStatus(app, newStatusRequest("job-1", "user-1"))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestCreditsReturnsBalance(t *testing.T) {
	app := newTestApp()
	app.Ledger = &fakeLedger{balance: 42}
	req := authed(httptest.NewRequest(http.MethodGet, "/v1/credits", nil), "user-1")
	rr := httptest.NewRecorder()
	app.Credits(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp map[string]int64
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["balance"] != 42 {
		t.Fatalf("balance = %d, want 42", resp["balance"])
	}
}

func TestListReturnsRecentJobs(t *testing.T) {
	app := newTestApp()
	app.Jobs = &fakeJobs{jobs: []domain.Job{
		{ID: "job-2", Prompt: "b", Status: domain.JobStatusCompleted, ResultURL: "https://x/2.png"},
		{ID: "job-1", Prompt: "a", Status: domain.JobStatusFailed, ErrorMessage: "Generation failed"},
	}}
	req := authed(httptest.NewRequest(http.MethodGet, "/v1/generations", nil), "user-1")
	rr := httptest.NewRecorder()
	app.List(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
	if resp.Items[0]["result_url"] != "https://x/2.png" {
		t.Fatalf("first item missing result_url: %+v", resp.Items[0])
	}
	if resp.Items[1]["error_message"] != "Generation failed" {
		t.Fatalf("second item missing error_message: %+v", resp.Items[1])
	}
}
