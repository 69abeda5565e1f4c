// Package webhook receives discussion events over HTTP.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/go-github/v80/github"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/discussion-sync/internal/adapters/driving/event"
	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driving"
	"github.com/custodia-labs/discussion-sync/internal/logger"
)

const (
	// EventDiscussion is the X-GitHub-Event value for discussion events.
	EventDiscussion = "discussion"

	// EventPing is sent by GitHub when a webhook is first registered.
	EventPing = "ping"

	// MaxPayloadBytes matches GitHub's own webhook payload cap.
	MaxPayloadBytes = 25 << 20
)

// Options configures a Handler.
type Options struct {
	// Secret verifies X-Hub-Signature-256. Empty disables verification.
	Secret string

	// RequestsPerSecond is the sustained intake rate.
	RequestsPerSecond float64

	// Burst is the number of deliveries accepted back to back.
	Burst int
}

// DefaultOptions returns conservative intake limits.
func DefaultOptions() Options {
	return Options{
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

// Handler applies verified discussion deliveries one at a time.
type Handler struct {
	syncer  driving.Syncer
	secret  []byte
	limiter *rate.Limiter

	// mu admits a single Apply at a time; the index is read-modify-write.
	mu sync.Mutex
}

// NewHandler creates a webhook handler.
func NewHandler(syncer driving.Syncer, opts Options) *Handler {
	defaults := DefaultOptions()
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = defaults.Burst
	}

	var secret []byte
	if opts.Secret != "" {
		secret = []byte(opts.Secret)
	}

	return &Handler{
		syncer:  syncer,
		secret:  secret,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
	Event  string `json:"event,omitempty"`
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	if !h.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		return
	}

	delivery := github.DeliveryID(r)
	r.Body = http.MaxBytesReader(w, r.Body, MaxPayloadBytes)

	payload, err := github.ValidatePayload(r, h.secret)
	if err != nil {
		status := http.StatusBadRequest
		if h.secret != nil {
			status = http.StatusUnauthorized
		}
		logger.Warn("Rejected delivery %s: %v", delivery, err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	switch kind := github.WebHookType(r); kind {
	case EventPing:
		writeJSON(w, http.StatusOK, statusResponse{Status: "pong"})
		return
	case EventDiscussion:
	default:
		logger.Debug("Ignoring %q delivery %s", kind, delivery)
		writeJSON(w, http.StatusAccepted, statusResponse{Status: "ignored", Event: kind})
		return
	}

	ev, err := event.DecodeBytes(payload)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	outcome, err := h.apply(r.Context(), ev)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		logger.Error("Delivery %s failed: %v", delivery, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info("Delivery %s: %s %s (%s)", delivery, outcome.Action, outcome.DiscussionID, outcome.Status)
	writeJSON(w, http.StatusOK, outcome)
}

// apply runs the engine detached from the request's cancellation so a
// dropped connection cannot abort an event mid-way.
func (h *Handler) apply(ctx context.Context, ev domain.Event) (*domain.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.syncer.Apply(context.WithoutCancel(ctx), ev)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
