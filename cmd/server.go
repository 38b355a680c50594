package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/leadscope/audit-cli/internal/model"
	"github.com/leadscope/audit-cli/internal/pipeline"
	"github.com/leadscope/audit-cli/internal/store"
)

// trackingPixel is a 1x1 transparent GIF served for open events.
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// newRouter builds the HTTP surface: health, the analyze webhook, the
// tracking endpoints, and the admin API. Tracking handlers always return
// their generic success response so the endpoints cannot be probed for
// valid codes. runCtx outlives individual requests and bounds the async
// webhook audits.
func newRouter(runCtx context.Context, env *auditEnv, redirectFallback string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/webhook/analyze", func(w http.ResponseWriter, req *http.Request) {
		var auditReq model.AuditRequest
		if err := json.NewDecoder(req.Body).Decode(&auditReq); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if err := pipeline.ValidateRequest(auditReq); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		go func() {
			analysis, err := env.Analyzer.Run(runCtx, auditReq)
			if err != nil {
				zap.L().Error("webhook audit failed",
					zap.String("url", auditReq.URL),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("webhook audit complete",
				zap.String("url", auditReq.URL),
				zap.Int("total_score", analysis.Result.Scores.Total),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"url":    auditReq.URL,
		})
	})

	r.Route("/t", func(r chi.Router) {
		r.Get("/o/{code}.gif", func(w http.ResponseWriter, req *http.Request) {
			recordEvent(req, env, chi.URLParam(req, "code"), model.EventOpen)
			w.Header().Set("Content-Type", "image/gif")
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(trackingPixel)
		})

		r.Get("/c/{code}", func(w http.ResponseWriter, req *http.Request) {
			recordEvent(req, env, chi.URLParam(req, "code"), model.EventClick)
			http.Redirect(w, req, clickTarget(req, redirectFallback), http.StatusFound)
		})

		r.Post("/v/{code}", func(w http.ResponseWriter, req *http.Request) {
			recordEvent(req, env, chi.URLParam(req, "code"), model.EventConvert)
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", func(w http.ResponseWriter, req *http.Request) {
			summary, err := env.Store.GetDashboardSummary(req.Context(), 10)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, summary)
		})

		r.Get("/analyses/{id}", func(w http.ResponseWriter, req *http.Request) {
			analysis, err := env.Store.GetAnalysis(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "analysis not found"})
				return
			}
			writeJSON(w, http.StatusOK, analysis)
		})

		r.Get("/leads", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			minScore, _ := strconv.Atoi(q.Get("min_score"))
			limit, _ := strconv.Atoi(q.Get("limit"))
			if limit <= 0 {
				limit = 50
			}
			leads, err := env.Store.ListLeads(req.Context(), store.LeadFilter{
				Status:     model.LeadStatus(q.Get("status")),
				CampaignID: q.Get("campaign"),
				MinScore:   minScore,
				Limit:      limit,
			})
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, leads)
		})

		r.Post("/leads/{id}/convert", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Ref string `json:"ref"`
			}
			_ = json.NewDecoder(req.Body).Decode(&body)

			applied, err := env.Store.ConvertLead(req.Context(), chi.URLParam(req, "id"), body.Ref, model.ConversionSources())
			if err != nil {
				writeError(w, err)
				return
			}
			if !applied {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "lead is already in a terminal state"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "converted"})
		})

		r.Post("/leads/{id}/reject", func(w http.ResponseWriter, req *http.Request) {
			applied, err := env.Store.TransitionLead(req.Context(), chi.URLParam(req, "id"),
				model.LeadStatusRejected, model.TransitionSources(model.LeadStatusRejected))
			if err != nil {
				writeError(w, err)
				return
			}
			if !applied {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "lead is already in a terminal state"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
		})

		r.Get("/campaigns", func(w http.ResponseWriter, req *http.Request) {
			campaigns, err := env.Store.ListCampaigns(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, campaigns)
		})

		r.Post("/campaigns", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Name string `json:"name"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Name == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
				return
			}
			campaign, err := env.Store.CreateCampaign(req.Context(), body.Name)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, campaign)
		})

		r.Get("/campaigns/{id}/stats", func(w http.ResponseWriter, req *http.Request) {
			stats, err := env.Store.GetCampaignStats(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, stats)
		})
	})

	return r
}

// recordEvent logs tracking failures instead of surfacing them: the
// tracking endpoints respond identically whether or not the code resolved.
func recordEvent(req *http.Request, env *auditEnv, code string, eventType model.EventType) {
	if err := env.Tracker.RecordEvent(req.Context(), code, eventType, req.UserAgent(), req.RemoteAddr); err != nil {
		zap.L().Error("tracking event failed",
			zap.String("type", string(eventType)),
			zap.Error(err),
		)
	}
}

// clickTarget resolves the click redirect destination. Only absolute
// http(s) URLs from the query are honored; anything else falls back to the
// configured landing page.
func clickTarget(req *http.Request, fallback string) string {
	raw := req.URL.Query().Get("u")
	if raw != "" {
		if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return raw
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
