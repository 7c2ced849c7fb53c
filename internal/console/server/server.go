package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/loyalty-ordering/internal/console/handler"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"github.com/xela07ax/loyalty-ordering/internal/infra/auth"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Проверка RS256 токенов операторов
	authValidator auth.TokenValidator

	authHandler   *handler.AuthHandler   // /auth/token
	policyHandler *handler.PolicyHandler // /v1/policies
	auditHandler  *handler.AuditHandler  // /v1/audit
}

// NewConsoleServer инициализирует сервер админки со всеми зависимостями
func NewConsoleServer(
	logger *zap.Logger,
	validator auth.TokenValidator,
	authH *handler.AuthHandler,
	policyH *handler.PolicyHandler,
	auditH *handler.AuditHandler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:        chi.NewRouter(),
		logger:        logger.Named("console-api"),
		authValidator: validator,
		authHandler:   authH,
		policyHandler: policyH,
		auditHandler:  auditH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Публичные роуты
	r.Group(func(r chi.Router) {
		r.Post("/auth/token", s.authHandler.Login)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// Защищенный периметр: RS256 токен оператора
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))

		r.Route("/v1/policies", func(r chi.Router) {
			r.Get("/", s.policyHandler.List)
			r.With(auth.RequireRole(domain.RoleAdmin)).Post("/", s.policyHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.policyHandler.Get)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(domain.RoleAdmin))
					r.Put("/", s.policyHandler.Update)
					r.Delete("/", s.policyHandler.Delete)
					r.Post("/pause", s.policyHandler.Pause)   // Kill switch
					r.Post("/resume", s.policyHandler.Resume) // Снятие паузы
				})
			})
		})

		r.Get("/v1/audit", s.auditHandler.GetLogs)
		r.Get("/v1/audit/stats", s.auditHandler.GetStats)
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
