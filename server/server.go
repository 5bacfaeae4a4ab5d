// Package server exposes the web flashcard pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/pipeline"
	"github.com/ByLCY/factzy/store"
)

// Generator is implemented by *pipeline.Pipeline.
type Generator interface {
	Web(ctx context.Context, topic string, opts pipeline.WebOptions) ([]pipeline.Card, error)
}

// History is implemented by *store.Store.
type History interface {
	List(ctx context.Context, q store.Query) ([]store.Record, error)
}

// Options wires a Server. History may be nil, in which case /api/history answers 501.
type Options struct {
	Generator Generator
	History   History
	OutputDir string
	Logger    *log.Logger
}

// Server serves the card form, the generation API and the rendered images.
type Server struct {
	gen       Generator
	history   History
	outputDir string
	logger    *log.Logger

	// 各次生成共用输出目录与文件名，需串行执行
	mu sync.Mutex
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		gen:       opts.Generator,
		history:   opts.History,
		outputDir: opts.OutputDir,
		logger:    logger,
	}
}

// Router returns an http.Handler with registered routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", s.handleIndex)
	r.Post("/", s.handleIndexSubmit)
	r.Post("/api/flashcards", s.handleGenerate)
	r.Get("/api/history", s.handleHistory)
	r.Get("/cards/{name}", s.handleCard)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "took", time.Since(start).Round(time.Millisecond))
	})
}

type generateRequest struct {
	Topic string `json:"topic"`
}

type cardJSON struct {
	Index     int    `json:"index"`
	URL       string `json:"url"`
	Truncated bool   `json:"truncated"`
}

type generateResponse struct {
	Topic   string     `json:"topic"`
	Subject string     `json:"subject"`
	Cards   []cardJSON `json:"cards"`
}

type errorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad json body"))
		return
	}
	resp, err := s.generate(r.Context(), req.Topic)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) generate(ctx context.Context, topic string) (generateResponse, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return generateResponse{}, errors.New(errors.ErrCodeInvalidInput, "topic is required")
	}
	if s.gen == nil {
		return generateResponse{}, errors.New(errors.ErrCodeUnsupported, "card generation is not configured")
	}

	s.mu.Lock()
	cards, err := s.gen.Web(ctx, topic, pipeline.WebOptions{PerSentence: true})
	s.mu.Unlock()
	if err != nil {
		return generateResponse{}, err
	}

	resp := generateResponse{Topic: topic, Cards: make([]cardJSON, 0, len(cards))}
	for _, c := range cards {
		resp.Subject = c.Subject
		resp.Cards = append(resp.Cards, cardJSON{
			Index:     c.Index,
			URL:       cardURL(c.Path),
			Truncated: c.Truncated,
		})
	}
	s.logger.Info("generated cards", "topic", topic, "subject", resp.Subject, "count", len(resp.Cards))
	return resp, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "history is not configured"))
		return
	}
	q := store.Query{Subject: strings.TrimSpace(r.URL.Query().Get("subject"))}
	if k := strings.TrimSpace(r.URL.Query().Get("kind")); k != "" {
		q.Kind = store.Kind(k)
	}
	if ls := strings.TrimSpace(r.URL.Query().Get("limit")); ls != "" {
		n, err := strconv.Atoi(ls)
		if err != nil || n <= 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "bad limit %q", ls))
			return
		}
		q.Limit = n
	}
	recs, err := s.history.List(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !validCardName(name) {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "bad card name"))
		return
	}
	path := filepath.Join(s.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "card %s not found", name))
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, path)
}

// validCardName 只接受单个路径元素，拒绝分隔符与 .. 片段。
func validCardName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return filepath.Base(name) == name
}

func cardURL(path string) string {
	return "/cards/" + url.PathEscape(filepath.Base(path))
}

type indexPage struct {
	Topic   string
	Error   string
	Subject string
	Cards   []cardJSON
	Recent  []store.Record
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, indexPage{}, http.StatusOK)
}

func (s *Server) handleIndexSubmit(w http.ResponseWriter, r *http.Request) {
	page := indexPage{Topic: strings.TrimSpace(r.FormValue("topic"))}
	status := http.StatusOK
	resp, err := s.generate(r.Context(), page.Topic)
	if err != nil {
		s.logger.Warn("generate failed", "topic", page.Topic, "err", err)
		page.Error = errors.UserMessage(err)
		if errors.Is(err, errors.ErrCodeNotFound) {
			page.Error = "No content found for this topic."
		}
		status = errors.HTTPStatus(err)
	} else {
		page.Subject = resp.Subject
		page.Cards = resp.Cards
	}
	s.renderIndex(w, r, page, status)
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, page indexPage, status int) {
	if s.history != nil && len(page.Cards) == 0 {
		recent, err := s.history.List(r.Context(), store.Query{Kind: store.KindWeb, Limit: 12})
		if err != nil {
			s.logger.Warn("list history failed", "err", err)
		}
		page.Recent = recent
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, page); err != nil {
		s.logger.Error("render index", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Code: errors.GetCode(err), Error: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"cardURL": cardURL,
}).Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>FACTZY - Facts made Easy</title>
<style>
body { font-family: sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; }
.card { margin: 1rem 0; }
.card img { width: 100%; border: 1px solid #ddd; }
.error { color: #b33; }
.note { color: #888; font-size: 0.9em; }
</style>
</head>
<body>
<h1>FACTZY - Facts made Easy</h1>
<p>Your effortless flashcard companion. Turns web content into bite-sized flashcards.</p>
<form method="post" action="/">
  <input type="text" name="topic" value="{{.Topic}}" placeholder="Enter a topic" required>
  <button type="submit">Generate Flashcards</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Cards}}
<h2>Flashcards{{if .Subject}} ({{.Subject}}){{end}}</h2>
{{range .Cards}}
<div class="card">
  <img src="{{.URL}}" alt="Flashcard {{.Index}}">
  <div>Flashcard {{.Index}}{{if .Truncated}} <span class="note">(text cut off)</span>{{end}}</div>
</div>
{{end}}
{{else if .Recent}}
<h2>Recent flashcards</h2>
{{range .Recent}}
<div class="card">
  <img src="{{cardURL .Path}}" alt="{{.Subject}} flashcard {{.Index}}">
  <div>{{.Subject}} / {{.Source}} #{{.Index}}</div>
</div>
{{end}}
{{end}}
</body>
</html>
`))
