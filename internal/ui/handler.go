package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/internal/apperror"
	githubapi "github.com/thep200/github-portfolio-sync/internal/github_api"
	"github.com/thep200/github-portfolio-sync/internal/model"
	"github.com/thep200/github-portfolio-sync/internal/recovery"
	"github.com/thep200/github-portfolio-sync/internal/stats"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

// Service is what the handlers need from the portfolio.
type Service interface {
	Status() recovery.Status
	RefreshAsync(ctx context.Context) bool
	Readme(ctx context.Context, repo string) (*githubapi.Readme, error)
	Participation(ctx context.Context, repo string) (*githubapi.ParticipationResponse, error)
}

type Handler struct {
	Logger  log.Logger
	Config  *cfg.Config
	service Service
}

func NewHandler(logger log.Logger, config *cfg.Config, service Service) *Handler {
	return &Handler{Logger: logger, Config: config, service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.getStatus)
		r.Get("/snapshot", h.getSnapshot)
		r.Post("/refresh", h.postRefresh)
		r.Get("/repos/{name}/readme", h.getReadme)
		r.Get("/repos/{name}/participation", h.getParticipation)
		r.Get("/repos/{name}/analysis", h.getAnalysis)
	})
	r.Get("/feed.atom", h.getFeed)
}

type errorResponse struct {
	State string `json:"state,omitempty"`
	Error string `json:"error"`
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	st := h.service.Status()
	st.Snapshot = nil
	h.writeJSON(w, r, http.StatusOK, st)
}

func (h *Handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	st := h.service.Status()
	if st.Snapshot != nil {
		h.writeJSON(w, r, http.StatusOK, st.Snapshot)
		return
	}

	if st.State == recovery.RateLimited {
		w.Header().Set("Retry-After", strconv.Itoa(st.RemainingSec))
		h.writeJSON(w, r, http.StatusTooManyRequests, errorResponse{State: st.StateName, Error: st.Countdown})
		return
	}

	msg := st.Error
	if msg == "" {
		msg = "snapshot not available yet"
	}
	h.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{State: st.StateName, Error: msg})
}

func (h *Handler) postRefresh(w http.ResponseWriter, r *http.Request) {
	// the refresh outlives the request
	if !h.service.RefreshAsync(context.WithoutCancel(r.Context())) {
		h.writeJSON(w, r, http.StatusConflict, errorResponse{Error: "refresh already in progress"})
		return
	}
	h.writeJSON(w, r, http.StatusAccepted, map[string]string{"state": "refreshing"})
}

func (h *Handler) getReadme(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	readme, err := h.service.Readme(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if readme == nil {
		h.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "no README found for " + name})
		return
	}
	h.writeJSON(w, r, http.StatusOK, readme)
}

func (h *Handler) getParticipation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, err := h.service.Participation(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if p == nil {
		h.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "participation not available for " + name})
		return
	}
	h.writeJSON(w, r, http.StatusOK, p)
}

func (h *Handler) getAnalysis(w http.ResponseWriter, r *http.Request) {
	snap := h.service.Status().Snapshot
	if snap == nil {
		h.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: "snapshot not available yet"})
		return
	}

	name := chi.URLParam(r, "name")
	repo, ok := findRepo(snap, name)
	if !ok {
		h.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "unknown repository " + name})
		return
	}
	h.writeJSON(w, r, http.StatusOK, stats.AnalyzeRepo(repo))
}

func findRepo(snap *model.Snapshot, name string) (model.Repository, bool) {
	for _, list := range [][]model.Repository{snap.Repos, snap.PinnedRepos} {
		for _, repo := range list {
			if repo.Name == name {
				return repo, true
			}
		}
	}
	return model.Repository{}, false
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperror.KindOf(err) {
	case apperror.KindRateLimited:
		if resetAt, ok := apperror.IsRateLimited(err); ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec(resetAt)))
		}
		h.writeJSON(w, r, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	case apperror.KindEndpointUnavailable:
		h.writeJSON(w, r, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		h.Logger.Error(r.Context(), "Request failed: %v", err)
		h.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error(r.Context(), "Failed to encode JSON response: %v", err)
	}
}

func retryAfterSec(resetAt time.Time) int {
	d := time.Until(resetAt)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
