package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/service"
)

// Submitter accepts generation requests.
type Submitter interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*service.SubmitResult, error)
}

// StatusReconciler surfaces a job's current state, advancing it from the
// provider when needed.
type StatusReconciler interface {
	Reconcile(ctx context.Context, jobID, userID string) (*domain.Job, error)
}

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Logger     zerolog.Logger
	Submitter  Submitter
	Reconciler StatusReconciler
	Jobs       domain.JobRepository
	Ledger     domain.LedgerRepository
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"kind": kind, "message": message},
	})
}
