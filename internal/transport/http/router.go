package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// NewRouter mounts the websocket game endpoint and the JSON API.
func NewRouter(service *app.QuizService) http.Handler {
	api := &apiHandler{service: service}
	ws := NewWSHandler(service)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Get("/regions", api.listRegions)
		r.Get("/regions/{slug}/countries", api.listCountries)
		r.Get("/stats", api.getStats)
		r.Delete("/stats", api.resetStats)
		r.Get("/leaderboard", api.getLeaderboard)
		r.Get("/preferences/dark-mode", api.getDarkMode)
		r.Put("/preferences/dark-mode", api.putDarkMode)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	return r
}

type apiHandler struct {
	service *app.QuizService
}

type countryView struct {
	Name      string        `json:"name"`
	Continent domain.Region `json:"continent"`
	Code      string        `json:"code"`
	FlagURL   string        `json:"flagUrl"`
}

type darkModeBody struct {
	Enabled bool `json:"enabled"`
}

func (a *apiHandler) listRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := a.service.Regions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regions)
}

func (a *apiHandler) listCountries(w http.ResponseWriter, r *http.Request) {
	region, err := domain.ParseRegion(chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	countries, err := a.service.Countries(r.Context(), region)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]countryView, 0, len(countries))
	for _, c := range countries {
		out = append(out, countryView{Name: c.Name, Continent: c.Continent, Code: c.Code, FlagURL: c.FlagURL()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiHandler) getStats(w http.ResponseWriter, r *http.Request) {
	overview, err := a.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// resetStats wipes statistics and leaderboard; the caller must pass confirm=true.
func (a *apiHandler) resetStats(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "confirmation_required")
		return
	}
	if err := a.service.Reset(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := a.service.Leaderboard(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	switch r.URL.Query().Get("tab") {
	case "":
		writeJSON(w, http.StatusOK, board)
	case "regular":
		writeJSON(w, http.StatusOK, board.Regular)
	case "endless":
		writeJSON(w, http.StatusOK, board.Endless)
	default:
		writeError(w, http.StatusBadRequest, "unknown_tab")
	}
}

func (a *apiHandler) getDarkMode(w http.ResponseWriter, r *http.Request) {
	enabled, err := a.service.DarkMode(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, darkModeBody{Enabled: enabled})
}

func (a *apiHandler) putDarkMode(w http.ResponseWriter, r *http.Request) {
	var body darkModeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := a.service.SetDarkMode(r.Context(), body.Enabled); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownRegion):
		writeError(w, http.StatusNotFound, "unknown_region")
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found")
	case errors.Is(err, domain.ErrCatalogNotFound):
		writeError(w, http.StatusServiceUnavailable, "catalog_unavailable")
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("http request")
	})
}
