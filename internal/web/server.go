// Package web serves the bank as an HTML form application plus a small JSON API.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/session-bank-ledger/internal/session"
)

const sessionCookie = "bank_session"

//go:embed templates/page.html
var templateFS embed.FS

type Server struct {
	svc      *session.Service
	logger   *zap.Logger
	validate *validator.Validate
	page     *template.Template
}

func NewServer(svc *session.Service, logger *zap.Logger, currency string) *Server {
	funcs := template.FuncMap{
		"amount": func(d decimal.Decimal) string { return FormatAmount(d, currency) },
	}

	return &Server{
		svc:      svc,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		page:     template.Must(template.New("page.html").Funcs(funcs).ParseFS(templateFS, "templates/page.html")),
	}
}

// Router wires every endpoint behind the request logger.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /{$}", s.show)
	mux.HandleFunc("POST /{$}", s.action)
	mux.HandleFunc("GET /api/session", s.sessionJSON)

	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
