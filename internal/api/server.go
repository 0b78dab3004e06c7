// Package api serves the bot's small HTTP surface: liveness, status and the
// GitHub deploy webhook.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// GuildCounter reports how many guilds the bot is in.
type GuildCounter interface {
	GuildCount() int
}

// Redeployer pulls new code and schedules a restart.
type Redeployer interface {
	Redeploy(ctx context.Context) (string, error)
}

// Server exposes the HTTP endpoints.
type Server struct {
	guilds     GuildCounter
	redeployer Redeployer
	secret     []byte
	startedAt  time.Time
	now        func() time.Time
	logger     *slog.Logger
	server     *http.Server
	listener   net.Listener
}

// NewServer creates a Server. An empty secret rejects every webhook call.
func NewServer(guilds GuildCounter, redeployer Redeployer, secret string, startedAt time.Time, logger *slog.Logger) *Server {
	return &Server{
		guilds:     guilds,
		redeployer: redeployer,
		secret:     []byte(secret),
		startedAt:  startedAt,
		now:        time.Now,
		logger:     logger,
	}
}

type statusResponse struct {
	Status    string  `json:"status"`
	Uptime    float64 `json:"uptime"`
	Timestamp string  `json:"timestamp"`
	Guilds    int     `json:"guilds"`
}

// Handler returns the routed endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /github-deploy", s.handleGitHubDeploy)
	return mux
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	s.logger.Info("api server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "Bot is running!")
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	guilds := 0
	if s.guilds != nil {
		guilds = s.guilds.GuildCount()
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:    "Bot is running!",
		Uptime:    now.Sub(s.startedAt).Seconds(),
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Guilds:    guilds,
	})
}
