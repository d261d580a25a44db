package relay

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"versus/internal/domain"
)

// DefaultMailboxLimit caps queued envelopes per user.
const DefaultMailboxLimit = 1024

// Server is an in-memory mailbox relay. All state is lost on exit.
type Server struct {
	mu        sync.Mutex
	mailboxes map[domain.Username][]domain.Envelope
	limit     int
	log       *logrus.Entry
	mux       *http.ServeMux
}

// NewServer returns a relay handler. limit <= 0 selects DefaultMailboxLimit.
func NewServer(limit int, log *logrus.Entry) *Server {
	if limit <= 0 {
		limit = DefaultMailboxLimit
	}
	if log == nil {
		log = logrus.WithField("component", "relay")
	}
	s := &Server{
		mailboxes: make(map[domain.Username][]domain.Envelope),
		limit:     limit,
		log:       log,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /msg/{user}", s.handleEnqueue)
	s.mux.HandleFunc("GET /msg/{user}", s.handleFetch)
	s.mux.HandleFunc("POST /msg/{user}/ack", s.handleAck)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return s
}

// ServeHTTP routes the request and writes one access-log line.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.log.WithFields(logrus.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"remote":   r.RemoteAddr,
		"status":   rec.status,
		"bytes":    rec.bytes,
		"duration": time.Since(start).String(),
	}).Debug("Relay request")
}

// Pending returns how many envelopes wait for user.
func (s *Server) Pending(user domain.Username) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mailboxes[user])
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	user := domain.Username(r.PathValue("user"))

	var env domain.Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes)).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if env.To != "" && env.To != user {
		http.Error(w, "recipient mismatch", http.StatusBadRequest)
		return
	}
	env.To = user
	if env.Timestamp == 0 {
		env.Timestamp = time.Now().Unix()
	}

	s.mu.Lock()
	if len(s.mailboxes[user]) >= s.limit {
		s.mu.Unlock()
		http.Error(w, "mailbox full", http.StatusInsufficientStorage)
		return
	}
	s.mailboxes[user] = append(s.mailboxes[user], env)
	s.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	user := domain.Username(r.PathValue("user"))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	s.mu.Lock()
	queued := s.mailboxes[user]
	if limit == 0 || limit > len(queued) {
		limit = len(queued)
	}
	out := make([]domain.Envelope, limit)
	copy(out, queued[:limit])
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	user := domain.Username(r.PathValue("user"))

	var body ackRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Count < 0 {
		http.Error(w, "bad ack", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	queued := s.mailboxes[user]
	if body.Count >= len(queued) {
		delete(s.mailboxes, user)
	} else {
		s.mailboxes[user] = append([]domain.Envelope(nil), queued[body.Count:]...)
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

const maxEnvelopeBytes = 4 << 20

type ackRequest struct {
	Count int `json:"count"`
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
