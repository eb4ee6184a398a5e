package api

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/rookguy/healthbot/internal/chat"
	"github.com/rookguy/healthbot/internal/storage"
)

//go:embed static/index.html
var indexHTML []byte

func handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func handleChat(deps Deps, m *metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON: %v", err)
			return
		}

		reply, err := deps.Responder.Respond(req.Message)
		if err != nil {
			slog.Error("chat reply failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
			httpError(w, http.StatusInternalServerError, "api_error", "could not build a reply: %v", err)
			return
		}

		m.chatReplies.WithLabelValues(reply.Rule).Inc()
		journal(deps.Journal, req.Message, reply)
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply.Text})
	}
}

// journal records one exchange. Failures are logged and never reach the
// user; the reply has already been built.
func journal(store *storage.Store, message string, reply chat.Reply) {
	if store == nil {
		return
	}
	ix := storage.Interaction{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Message:   message,
		Reply:     reply.Text,
		Rule:      reply.Rule,
	}
	if err := store.SaveInteraction(ix); err != nil {
		slog.Warn("failed to journal interaction", "error", err)
	}
}
