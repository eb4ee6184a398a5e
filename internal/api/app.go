package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rookguy/healthbot/internal/plan"
	"github.com/rookguy/healthbot/internal/profile"
	"github.com/rookguy/healthbot/internal/research"
	"github.com/rookguy/healthbot/internal/storage"
)

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Engine.Profile()
		if errors.Is(err, profile.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no profile yet, run intake first")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading profile: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleIntake(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var answers plan.IntakeAnswers
		if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON: %v", err)
			return
		}

		p, err := deps.Engine.Intake(answers)
		if errors.Is(err, plan.ErrProfileExists) {
			httpError(w, http.StatusConflict, "conflict", "a profile already exists")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

type checkInRequest struct {
	Mood      string `json:"mood"`
	Completed string `json:"completed"`
}

func handleCheckIn(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req checkInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON: %v", err)
			return
		}

		res, err := deps.Engine.DailyCheckIn(req.Mood, req.Completed)
		if errors.Is(err, profile.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no profile yet, run intake first")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleRegeneratePlan(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := deps.Engine.RegeneratePlan()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"plan": tasks})
	}
}

func handleListInteractions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 200)

		interactions, err := deps.Journal.GetRecentInteractions(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing interactions: %v", err)
			return
		}
		if interactions == nil {
			interactions = []storage.Interaction{}
		}
		writeJSON(w, http.StatusOK, interactions)
	}
}

func handleGetInteraction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		ix, err := deps.Journal.GetInteraction(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "interaction %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading interaction: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, ix)
	}
}

func handleListStrategies(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 500)

		list, err := deps.Journal.ListStrategies(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing strategies: %v", err)
			return
		}
		if list == nil {
			list = []storage.Strategy{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleQueueResearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := research.Enqueue(deps.Journal, time.Now(), "manual")
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		slog.Info("research refresh queued", "job_id", id)
		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id, "status": storage.JobPending})
	}
}
