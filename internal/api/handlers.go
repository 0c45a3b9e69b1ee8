// Package api exposes the query surface: public read endpoints over the
// persisted data, bearer-authed admin endpoints, and an MCP server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/batchmates/batchmates/internal/agent"
	"github.com/batchmates/batchmates/internal/graph"
	"github.com/batchmates/batchmates/internal/ingest"
	"github.com/batchmates/batchmates/internal/profile"
	"github.com/batchmates/batchmates/internal/storage"
	"github.com/batchmates/batchmates/internal/vocab"
)

const maxAskBodySize = 64 << 10 // 64KB

// Version is reported by the health endpoint; overridden at build time.
var Version = "dev"

// Deps holds everything the HTTP handlers need.
type Deps struct {
	Store        *storage.Store
	Agent        *agent.Agent
	Token        string   // bearer token for admin routes
	CORSOrigins  []string // allowed frontend origins
	ProfilesPath string   // profiles artifact for /profiles and reingest
	MappingsPath string   // tag mapping artifact for reingest
	GraphPath    string   // graph artifact for /graph
}

// NewHandler builds the top-level router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(CORS(deps.CORSOrigins))

	r.Get("/health", handleHealth)
	r.Get("/profiles", handleProfiles(deps))
	r.Get("/graph", handleGraph(deps))
	r.Get("/tags", handleTags(deps))
	r.Get("/person/{person}/interests", handlePersonInterests(deps))
	r.Get("/interest/{interest}/people", handleInterestPeople(deps))
	r.Post("/ask", handleAsk(deps))

	r.Group(func(admin chi.Router) {
		admin.Use(BearerAuth(deps.Token))
		admin.Post("/admin/ingest", handleReingest(deps))
		admin.Get("/admin/stats", handleStats(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func handleProfiles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 100 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "limit must be between 1 and 100")
				return
			}
			limit = n
		}

		set, err := profile.LoadSet(deps.ProfilesPath)
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found_error", "profiles artifact not available: %v", err)
			return
		}

		names := set.Names()
		// Stable order for pagination-by-limit.
		sort.Strings(names)
		profiles := make([]profile.Profile, 0, limit)
		for _, name := range names {
			if len(profiles) == limit {
				break
			}
			profiles = append(profiles, set[name])
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": profiles})
	}
}

func handleGraph(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := graph.ReadFile(deps.GraphPath)
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found_error", "graph artifact not available: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func handleTags(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := deps.Store.ListTags(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing tags: %v", err)
			return
		}
		if tags == nil {
			tags = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": tags})
	}
}

func handlePersonInterests(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		person := chi.URLParam(r, "person")
		interests, err := deps.Agent.PersonInterests(r.Context(), person)
		if errors.Is(err, agent.ErrUnknownSubject) {
			httpError(w, http.StatusNotFound, "not_found_error", "person %q not found", person)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "getting interests for %q: %v", person, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"id": person, "interests": interests},
		})
	}
}

func handleInterestPeople(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		interest := chi.URLParam(r, "interest")
		people, err := deps.Agent.PeopleWithInterest(r.Context(), interest)
		if errors.Is(err, agent.ErrUnknownSubject) {
			httpError(w, http.StatusNotFound, "not_found_error", "interest %q not found", interest)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "getting people for %q: %v", interest, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"id": interest, "people": people},
		})
	}
}

func handleAsk(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxAskBodySize)
		defer r.Body.Close()

		var req struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		answer, err := deps.Agent.Ask(r.Context(), req.Question)
		if errors.Is(err, agent.ErrUnknownSubject) {
			httpError(w, http.StatusNotFound, "not_found_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "agent_error", "answering question: %v", err)
			return
		}

		var data any
		if err := json.Unmarshal([]byte(answer), &data); err != nil {
			httpError(w, http.StatusInternalServerError, "agent_error", "invalid agent response format")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": data})
	}
}

func handleReingest(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Overwrite bool `json:"overwrite"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
				return
			}
		}

		set, err := profile.LoadSet(deps.ProfilesPath)
		if err != nil {
			httpError(w, http.StatusConflict, "artifact_error", "profiles artifact: %v", err)
			return
		}
		art, err := vocab.Load(deps.MappingsPath)
		if err != nil {
			httpError(w, http.StatusConflict, "artifact_error", "tag mappings artifact: %v", err)
			return
		}

		runID, err := deps.Store.BeginRun(r.Context(), "ingest")
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "recording run: %v", err)
			return
		}

		stats, err := ingest.New(deps.Store).Run(r.Context(), set, art, ingest.Options{Overwrite: req.Overwrite})
		if err != nil {
			deps.Store.FinishRun(context.WithoutCancel(r.Context()), runID, "failed", err.Error())
			httpError(w, http.StatusInternalServerError, "ingest_error", "ingestion failed: %v", err)
			return
		}
		if err := deps.Store.FinishRun(r.Context(), runID, "ok", ""); err != nil {
			slog.Warn("finishing run record", "run", runID, "error", err)
		}

		writeJSON(w, http.StatusOK, map[string]any{"run_id": runID, "stats": stats})
	}
}

func handleStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := deps.Store.Counts(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "counting rows: %v", err)
			return
		}
		runs, err := deps.Store.RecentRuns(r.Context(), 10)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing runs: %v", err)
			return
		}
		type runView struct {
			ID       string `json:"id"`
			Stage    string `json:"stage"`
			Status   string `json:"status"`
			Detail   string `json:"detail,omitempty"`
			Started  string `json:"started_at"`
			Finished string `json:"finished_at,omitempty"`
		}
		views := make([]runView, 0, len(runs))
		for _, run := range runs {
			v := runView{
				ID:      run.ID,
				Stage:   run.Stage,
				Status:  run.Status,
				Detail:  run.Detail,
				Started: run.StartedAt.Format(time.RFC3339),
			}
			if !run.FinishedAt.IsZero() {
				v.Finished = run.FinishedAt.Format(time.RFC3339)
			}
			views = append(views, v)
		}
		writeJSON(w, http.StatusOK, map[string]any{"counts": counts, "runs": views})
	}
}
