package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/command"
	"github.com/hamed0406/sitecheck/internal/domain"
	apimw "github.com/hamed0406/sitecheck/internal/httpapi/middleware"
	"github.com/hamed0406/sitecheck/internal/notify"
	"github.com/hamed0406/sitecheck/internal/report"
)

type Server struct {
	Logger   *zap.Logger
	Commands *command.Handler
	Sessions *report.Sessions

	// Notifier receives rendered pages when a request asks for it; nil disables.
	Notifier notify.Notifier
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

func NewServer(l *zap.Logger, h *command.Handler, sessions *report.Sessions, n notify.Notifier) *Server {
	return &Server{Logger: l, Commands: h, Sessions: sessions, Notifier: n}
}

// Router wires middleware and routes. rpm/burst rate-limit the /api routes per client.
func (s *Server) Router(rpm, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apimw.AccessLog(s.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.metricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(rpm, burst))
		r.Post("/check", s.handleCheck)
		r.Post("/command", s.handleCommand)
		r.Get("/sessions/{id}", s.handleSession)
		r.Post("/sessions/{id}/{action}", s.handleNavigate)
	})
	return r
}

func (s *Server) metricsHandler() http.Handler {
	if s.Gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})
}

type checkPayload struct {
	Sites   []string `json:"sites"`
	Options []string `json:"options"`
	Notify  bool     `json:"notify"`
}

type commandPayload struct {
	Text   string `json:"text"`
	Notify bool   `json:"notify"`
}

// checkResponse is the body of a successful check or command.
type checkResponse struct {
	SessionID string              `json:"session_id,omitempty"`
	Options   []string            `json:"options"`
	Reports   []domain.SiteReport `json:"reports"`
	Pages     []report.Page       `json:"pages"`
	Page      report.Page         `json:"page"`
	Controls  report.Controls     `json:"controls"`
}

type pageResponse struct {
	SessionID string          `json:"session_id"`
	Page      report.Page     `json:"page"`
	Controls  report.Controls `json:"controls"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var p checkPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	// same token rules as the command line: options may carry leading dashes
	args := make([]string, 0, len(p.Sites)+len(p.Options))
	for _, site := range p.Sites {
		if site = strings.TrimSpace(site); site != "" {
			args = append(args, site)
		}
	}
	for _, o := range p.Options {
		args = append(args, "-"+strings.TrimLeft(strings.TrimSpace(o), "-"))
	}

	res, err := s.Commands.Check(r.Context(), args)
	s.respond(w, r, res, err, p.Notify)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var p commandPayload
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "bad payload")
			return
		}
	} else {
		body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad payload")
			return
		}
		p.Text = string(body)
	}

	res, err := s.Commands.Execute(r.Context(), p.Text)
	if err == nil && res.Help {
		writeJSON(w, http.StatusOK, map[string]string{"help": res.Text})
		return
	}
	s.respond(w, r, res, err, p.Notify)
}

// respond maps command outcomes to HTTP: input errors are 400, batch
// failures 500; success opens a navigation session over the pages.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, res command.Result, err error, notifyPages bool) {
	var ie *command.InputError
	var be *command.BatchError
	switch {
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Message)
		return
	case errors.As(err, &be):
		writeError(w, http.StatusInternalServerError, be.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, command.Truncate(err.Error(), command.MaxErrorLen))
		return
	}

	out := checkResponse{
		Options: res.Options,
		Reports: res.Reports,
		Pages:   res.Pages,
	}
	id, nav, err := s.Sessions.Open(res.Pages)
	if err == nil {
		out.SessionID = id
		out.Page = nav.Current()
		out.Controls = nav.Controls()
	}

	if notifyPages && s.Notifier != nil {
		if err := notify.PublishPages(context.WithoutCancel(r.Context()), s.Notifier, res.Pages); err != nil {
			s.Logger.Warn("notify_failed", zap.Error(err))
		}
	}

	s.Logger.Info("check_served",
		zap.String("session_id", out.SessionID),
		zap.Int("sites", len(res.Reports)),
		zap.Int("pages", len(res.Pages)),
		zap.Strings("options", res.Options),
	)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	nav, ok := s.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found or expired")
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{SessionID: id, Page: nav.Current(), Controls: nav.Controls()})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action, ok := report.ParseAction(chi.URLParam(r, "action"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}
	nav, ok := s.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found or expired")
		return
	}
	page, err := nav.Do(action)
	switch {
	case errors.Is(err, report.ErrExpired):
		writeError(w, http.StatusGone, err.Error())
		return
	case errors.Is(err, report.ErrDisabled):
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{SessionID: id, Page: page, Controls: nav.Controls()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
