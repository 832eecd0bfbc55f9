package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/taskhive/taskhive/model"
)

// AuthTokenCookie carries the bearer token between requests.
const AuthTokenCookie = "auth-token"

type Config struct {
	TokenKey      []byte
	TokenDuration time.Duration
}

type Server struct {
	app    *fiber.App
	cfg    Config
	users  *model.UserStore
	tasks  *model.TaskStore
	logger Logger
}

type Option func(*Server)

func WithLogger(l Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer wires the routes. Login and logoff are open; everything
// under /api/rpc goes through the auth middleware.
func NewServer(cfg Config, users *model.UserStore, tasks *model.TaskStore, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		users:  users,
		tasks:  tasks,
		logger: defLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler:          s.ErrorHandler,
		DisableStartupMessage: true,
	})

	api := s.app.Group("/api")
	api.Post("/login", s.handleLogin)
	api.Post("/logoff", s.handleLogoff)
	api.Post("/rpc", s.RequireAuth(), s.handleRPC)

	return s
}

// App exposes the underlying fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("listening on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
