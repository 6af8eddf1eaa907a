// Package api holds the HTTP handlers behind the marketing site's widgets:
// the chat assistant and the visitor counter.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/chat"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/gateway"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/obs"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/visitor"
)

// Replier produces an assistant answer for a conversation.
type Replier interface {
	Reply(ctx context.Context, messages []chat.Message) (string, error)
}

type Server struct {
	chat    Replier
	gate    *visitor.Gate
	counter visitor.Counter
	metrics *obs.Metrics
}

func NewServer(chatSvc Replier, gate *visitor.Gate, counter visitor.Counter, metrics *obs.Metrics) *Server {
	return &Server{chat: chatSvc, gate: gate, counter: counter, metrics: metrics}
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

type chatResponse struct {
	Message string `json:"message"`
}

type visitorResponse struct {
	Count       int64  `json:"count"`
	Incremented bool   `json:"incremented"`
	Message     string `json:"message,omitempty"`
}

// Chat handles POST /chat. Rate limiting happens in middleware before this
// runs; by the time we are here the request is admitted.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := chat.ValidateConversation(req.Messages); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid conversation: "+err.Error())
		return
	}

	reply, err := s.chat.Reply(r.Context(), req.Messages)
	if err != nil {
		s.writeChatFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Message: reply})
}

// writeChatFailure maps upstream failures to the fixed caller-facing
// categories. The underlying error goes to the server log only.
func (s *Server) writeChatFailure(w http.ResponseWriter, r *http.Request, err error) {
	logger := hlog.FromRequest(r)

	switch {
	case errors.Is(err, chat.ErrUpstreamRateLimited):
		logger.Warn().Err(err).Msg("completion upstream rate limited")
		s.countUpstreamError("rate_limited")
		writeError(w, http.StatusTooManyRequests,
			"The assistant is handling too many conversations right now. Please try again in a minute.")
	case errors.Is(err, chat.ErrUpstreamUnavailable):
		logger.Warn().Err(err).Msg("completion upstream unavailable")
		s.countUpstreamError("unavailable")
		writeError(w, http.StatusPaymentRequired,
			"The assistant is temporarily unavailable. Please reach us through the contact form.")
	default:
		logger.Error().Err(err).Msg("completion call failed")
		s.countUpstreamError("other")
		writeError(w, http.StatusInternalServerError,
			"Something went wrong on our side. Please try again.")
	}
}

func (s *Server) countUpstreamError(category string) {
	if s.metrics != nil {
		s.metrics.UpstreamErrors.WithLabelValues(category).Inc()
	}
}

// ChatHealth handles GET /chat.
func (s *Server) ChatHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// IncrementVisitor handles POST /increment-visitor. Each client counts at
// most once per window; a counter failure degrades to the last-known value
// instead of an error status.
func (s *Server) IncrementVisitor(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)
	id := gateway.ClientIP(r)

	ok, wait := s.gate.Try(id)
	if !ok {
		count, err := s.counter.Current(r.Context())
		if err != nil {
			logger.Warn().Err(err).Msg("visitor count read failed, serving last known value")
		}
		minutes := int64((wait + time.Minute - 1) / time.Minute)
		writeJSON(w, http.StatusOK, visitorResponse{
			Count:       count,
			Incremented: false,
			Message:     "Already counted. Try again in " + strconv.FormatInt(minutes, 10) + " minutes.",
		})
		return
	}

	count, err := s.counter.Increment(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("visitor increment failed, serving last known value")
		writeJSON(w, http.StatusOK, visitorResponse{
			Count:       count,
			Incremented: false,
			Message:     "Count temporarily unavailable.",
		})
		return
	}

	if s.metrics != nil {
		s.metrics.VisitorIncrements.Inc()
	}
	writeJSON(w, http.StatusOK, visitorResponse{Count: count, Incremented: true})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
