// Package server starts programming sessions over HTTP and reports their
// outcome.
//
//	POST /session/{action}   run a session (write, read, erase)
//	GET  /status             last outcome and whether a session is running
//	GET  /devices            supported parts
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gentam/hvsp"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// ErrBusy is returned by Do while another session holds the target.
var ErrBusy = errors.New("session in progress")

// Runner runs one session. *hvsp.Programmer is a Runner.
type Runner interface {
	Run(action hvsp.Action) (*hvsp.Outcome, error)
}

type Server struct {
	http   *http.Server
	runner Runner
	log    *slog.Logger

	sessionMutex sync.Mutex // held for the duration of a session

	statusMutex sync.Mutex // for access to the fields below
	busy        bool
	sessions    int
	last        *hvsp.Outcome
	lastErr     error
	lastAt      time.Time
}

// New returns a server listening on addr. Requests are logged to accessLog
// in the Apache combined format.
func New(addr string, runner Runner, logger *slog.Logger, accessLog io.Writer) *Server {
	s := &Server{
		runner: runner,
		log:    logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/session/{action}", s.Session).Methods("POST")
	r.HandleFunc("/status", s.Status).Methods("GET")
	r.HandleFunc("/devices", s.Devices).Methods("GET")

	var h http.Handler = r
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	h = handlers.CombinedLoggingHandler(accessLog, h)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) Run() error {
	return s.http.ListenAndServe()
}

func (s *Server) Close() error {
	return s.http.Close()
}

// Do runs one session unless another one is in progress. Triggers other
// than HTTP go through Do as well so that sessions never overlap.
func (s *Server) Do(action hvsp.Action) (*hvsp.Outcome, error) {
	if !s.sessionMutex.TryLock() {
		return nil, ErrBusy
	}
	defer s.sessionMutex.Unlock()

	s.setBusy(true)
	s.log.Info("session started", "action", action)
	out, err := s.runner.Run(action)
	if err != nil {
		s.log.Error("session failed", "action", action, "err", err)
	}

	s.statusMutex.Lock()
	s.busy = false
	s.sessions++
	s.last, s.lastErr, s.lastAt = out, err, time.Now()
	s.statusMutex.Unlock()
	return out, err
}

func (s *Server) setBusy(b bool) {
	s.statusMutex.Lock()
	s.busy = b
	s.statusMutex.Unlock()
}

type sessionReply struct {
	Outcome *hvsp.Outcome `json:"outcome"`
	Error   string        `json:"error,omitempty"`
}

func (s *Server) Session(w http.ResponseWriter, r *http.Request) {
	action, err := hvsp.ParseAction(mux.Vars(r)["action"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	out, err := s.Do(action)
	if errors.Is(err, ErrBusy) {
		respondError(w, http.StatusConflict, err)
		return
	}
	reply := sessionReply{Outcome: out}
	code := http.StatusOK
	if err != nil {
		reply.Error = err.Error()
		code = http.StatusInternalServerError
	}
	s.respond(w, code, reply)
}

type statusReply struct {
	Busy     bool          `json:"busy"`
	Sessions int           `json:"sessions"`
	Last     *hvsp.Outcome `json:"last,omitempty"`
	LastErr  string        `json:"last_error,omitempty"`
	LastAt   *time.Time    `json:"last_at,omitempty"`
}

func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	s.statusMutex.Lock()
	reply := statusReply{Busy: s.busy, Sessions: s.sessions, Last: s.last}
	if s.lastErr != nil {
		reply.LastErr = s.lastErr.Error()
	}
	if !s.lastAt.IsZero() {
		at := s.lastAt
		reply.LastAt = &at
	}
	s.statusMutex.Unlock()

	s.respond(w, http.StatusOK, reply)
}

func (s *Server) Devices(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, hvsp.KnownDevices())
}

func (s *Server) respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to write reply", "err", err)
	}
}

func respondError(w http.ResponseWriter, code int, err error) {
	type jsonError struct {
		Error string `json:"error"`
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(jsonError{
		Error: err.Error(),
	})
}
