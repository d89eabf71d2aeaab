// Package server exposes the slash-command HTTP endpoint and a health
// probe. Slash commands arrive as form-encoded POSTs signed with the
// Slack signing secret; replies are ephemeral JSON messages.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/pprof"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	logx "ctfnotice/pkg/logx"
)

// Commander handles one slash-command invocation and returns the reply text.
type Commander interface {
	Handle(ctx context.Context, text string) (string, error)
}

// Config holds the resolved server settings.
type Config struct {
	Addr          string
	SigningSecret string // empty disables signature verification
	DebugPprof    bool
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
}

type Server struct {
	cfg Config
	cmd Commander
	log logx.Logger
	srv *http.Server
	now func() time.Time
}

// maxBodyBytes bounds the slash-command form payload.
const maxBodyBytes = 64 << 10

func New(cfg Config, cmd Commander, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8787"
	}
	s := &Server{
		cfg: cfg,
		cmd: cmd,
		log: log,
		now: time.Now,
	}
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/slack", s.handleSlash).Methods(http.MethodPost)
	if cfg.DebugPprof {
		r.HandleFunc("/debug/pprof/", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start runs the listener in a goroutine. Errors other than a clean
// shutdown are reported on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", logx.String("addr", s.cfg.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ctfnotice\n")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "OK")
}

func (s *Server) handleSlash(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if s.cfg.SigningSecret != "" {
		err := verifySignature(
			s.cfg.SigningSecret,
			r.Header.Get("X-Slack-Request-Timestamp"),
			r.Header.Get("X-Slack-Signature"),
			body,
			s.now(),
		)
		if err != nil {
			s.log.Warn("rejected slash command", logx.Err(err), logx.String("remote", r.RemoteAddr))
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	text := form.Get("text")
	s.log.Info("slash command",
		logx.String("command", form.Get("command")),
		logx.String("user", form.Get("user_name")),
		logx.String("text", text),
	)

	reply, err := s.cmd.Handle(r.Context(), text)
	if err != nil {
		s.log.Error("command failed", logx.Err(err))
		reply = "⚠️ 内部エラーが発生しました。しばらくしてからもう一度お試しください。"
	}
	writeEphemeral(w, reply)
}

func writeEphemeral(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]string{
		"response_type": "ephemeral",
		"text":          text,
	})
}
