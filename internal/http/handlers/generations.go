package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
	"studio/internal/middleware"
	"studio/internal/service"
)

type generateRequest struct {
	Prompt           string `json:"prompt"`
	StylePreset      string `json:"style_preset"`
	LightingPreset   string `json:"lighting_preset"`
	CompositionGuide string `json:"composition_guide"`
	ArtisticStyle    int    `json:"artistic_style"`
	Creativity       int    `json:"creativity"`
	Mood             int    `json:"mood"`
}

type generateResponse struct {
	JobID             string `json:"job_id"`
	ProviderReference string `json:"provider_reference,omitempty"`
	Status            string `json:"status"`
}

type statusResponse struct {
	Status           string `json:"status"`
	ResultURL        string `json:"result_url,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
	ProcessingTimeMS *int64 `json:"processing_time_ms,omitempty"`
}

// Generate handles POST /v1/generations.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "validation_error", "invalid payload")
		return
	}
	res, err := a.Submitter.Submit(r.Context(), service.SubmitRequest{
		UserID: userID,
		Prompt: req.Prompt,
		Params: domain.GenerationParams{
			StylePreset:      req.StylePreset,
			LightingPreset:   req.LightingPreset,
			CompositionGuide: req.CompositionGuide,
			ArtisticStyle:    req.ArtisticStyle,
			Creativity:       req.Creativity,
			Mood:             req.Mood,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			a.error(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, domain.ErrInsufficientCredits):
			a.error(w, http.StatusPaymentRequired, "insufficient_credits", err.Error())
		case errors.Is(err, domain.ErrDuplicateReference):
			a.error(w, http.StatusConflict, "duplicate_reference", err.Error())
		default:
			a.Logger.Error().Err(err).Msg("submission failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to submit job")
		}
		return
	}
	a.json(w, http.StatusAccepted, generateResponse{
		JobID:             res.JobID,
		ProviderReference: res.ExternalID,
		Status:            string(res.Status),
	})
}

// Status handles GET /v1/generations/{job_id}.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "validation_error", "job_id required")
		return
	}
	job, err := a.Reconciler.Reconcile(r.Context(), jobID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "job not found")
		case errors.Is(err, domain.ErrProviderUnavailable):
			a.error(w, http.StatusServiceUnavailable, "provider_unavailable", "status check failed, retry shortly")
		default:
			a.Logger.Error().Err(err).Str("job_id", jobID).Msg("status check failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to check status")
		}
		return
	}
	a.json(w, http.StatusOK, statusResponse{
		Status:           string(job.Status),
		ResultURL:        job.ResultURL,
		ErrorMessage:     job.ErrorMessage,
		ProcessingTimeMS: job.ProcessingTimeMS,
	})
}

const recentJobsLimit = 20

// List handles GET /v1/generations: the caller's recent jobs, newest first.
func (a *App) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobs, err := a.Jobs.ListRecentByOwner(r.Context(), userID, recentJobsLimit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to list jobs")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list jobs")
		return
	}
	items := make([]map[string]any, 0, len(jobs))
	for _, job := range jobs {
		item := map[string]any{
			"job_id":     job.ID,
			"prompt":     job.Prompt,
			"status":     string(job.Status),
			"created_at": job.CreatedAt.Format(time.RFC3339),
		}
		if job.ResultURL != "" {
			item["result_url"] = job.ResultURL
		}
		if job.ErrorMessage != "" {
			item["error_message"] = job.ErrorMessage
		}
		items = append(items, item)
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
