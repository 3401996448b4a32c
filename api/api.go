package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/heraldbot/herald/cache"
	"github.com/heraldbot/herald/database"
	"github.com/heraldbot/herald/render"
	"go.uber.org/zap"
)

// Server exposes the config read/update surface the dashboard talks to. All
// writes go through the cache manager, the same path the commands use, and
// the preview endpoint runs the exact renderer the join path runs.
type Server struct {
	configs  *cache.Manager
	db       database.DB
	renderer *render.Renderer
	log      *zap.Logger
}

type Config struct {
	Configs  *cache.Manager
	DB       database.DB
	Renderer *render.Renderer
	Log      *zap.Logger
}

func NewServer(c *Config) *Server {
	return &Server{
		configs:  c.Configs,
		db:       c.DB,
		renderer: c.Renderer,
		log:      c.Log,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/guilds/{guildID}", func(r chi.Router) {
			r.Get("/logging", s.getLoggingConfig)
			r.Put("/logging", s.putLoggingConfig)
			r.Get("/welcome", s.getWelcomeConfig)
			r.Put("/welcome", s.putWelcomeConfig)
			r.Get("/autorole", s.getAutoRoleConfig)
			r.Put("/autorole", s.putAutoRoleConfig)
			r.Get("/channels", s.getChannels)
		})
		r.Post("/preview/welcome", s.postWelcomePreview)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	data, _ := json.Marshal(payload)
	_, _ = w.Write(data)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, errorResponse{Error: msg})
}

func (s *Server) getLoggingConfig(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	gc, ok := s.configs.LoggingConfig(guildID)
	if !ok {
		// absent means disabled, never an error
		gc = &database.LoggingConfig{GuildID: guildID}
	}
	respondJSON(w, http.StatusOK, gc)
}

func (s *Server) putLoggingConfig(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")

	var gc database.LoggingConfig
	if err := json.NewDecoder(r.Body).Decode(&gc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid logging config")
		return
	}
	if gc.GuildID == "" {
		gc.GuildID = guildID
	}
	if gc.GuildID != guildID {
		respondError(w, http.StatusBadRequest, "guild id mismatch")
		return
	}

	if err := s.configs.SetLoggingConfig(&gc); err != nil {
		s.log.Error("failed to update logging config", zap.String("guild", guildID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update config")
		return
	}
	respondJSON(w, http.StatusOK, &gc)
}

func (s *Server) getWelcomeConfig(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	wc, ok := s.configs.WelcomeConfig(guildID)
	if !ok {
		wc = database.NewWelcomeConfig(guildID)
	}
	respondJSON(w, http.StatusOK, wc)
}

func (s *Server) putWelcomeConfig(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")

	var wc database.WelcomeConfig
	if err := json.NewDecoder(r.Body).Decode(&wc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid welcome config")
		return
	}
	if wc.GuildID == "" {
		wc.GuildID = guildID
	}
	if wc.GuildID != guildID {
		respondError(w, http.StatusBadRequest, "guild id mismatch")
		return
	}
	if wc.Message == "" {
		wc.Message = database.DefaultWelcomeMessage
	}

	if err := s.configs.SetWelcomeConfig(&wc); err != nil {
		s.log.Error("failed to update welcome config", zap.String("guild", guildID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update config")
		return
	}
	respondJSON(w, http.StatusOK, &wc)
}

func (s *Server) getAutoRoleConfig(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	ac, ok := s.configs.AutoRoleConfig(guildID)
	if !ok {
		ac = &database.AutoRoleConfig{GuildID: guildID}
	}
	respondJSON(w, http.StatusOK, ac)
}

func (s *Server) putAutoRoleConfig(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")

	var ac database.AutoRoleConfig
	if err := json.NewDecoder(r.Body).Decode(&ac); err != nil {
		respondError(w, http.StatusBadRequest, "invalid autorole config")
		return
	}
	if ac.GuildID == "" {
		ac.GuildID = guildID
	}
	if ac.GuildID != guildID {
		respondError(w, http.StatusBadRequest, "guild id mismatch")
		return
	}

	// duplicates are a boundary error, not something the join flow dedupes
	seen := make(map[string]struct{}, len(ac.RoleIDs))
	for _, rid := range ac.RoleIDs {
		if _, ok := seen[rid]; ok {
			respondError(w, http.StatusBadRequest, "duplicate role id")
			return
		}
		seen[rid] = struct{}{}
	}

	if err := s.configs.SetAutoRoleConfig(&ac); err != nil {
		s.log.Error("failed to update autorole config", zap.String("guild", guildID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update config")
		return
	}
	respondJSON(w, http.StatusOK, &ac)
}

func (s *Server) getChannels(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	channels, err := s.db.GetChannels(guildID)
	if err != nil {
		s.log.Error("failed to get channels", zap.String("guild", guildID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get channels")
		return
	}
	if channels == nil {
		channels = []*database.Channel{}
	}
	respondJSON(w, http.StatusOK, channels)
}

type previewRequest struct {
	Username   string                 `json:"username"`
	ServerName string                 `json:"server_name"`
	Config     database.WelcomeConfig `json:"config"`
}

func (s *Server) postWelcomePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid preview request")
		return
	}
	if req.Username == "" {
		req.Username = "username"
	}
	if req.ServerName == "" {
		req.ServerName = "server"
	}

	img, err := s.renderer.Render(req.Username, req.ServerName, render.Options{
		Background:   req.Config.Background,
		CustomSource: req.Config.CustomBackground,
		TextColor:    req.Config.TextColor,
	})
	if err != nil {
		s.log.Error("failed to render preview", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to render preview")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
