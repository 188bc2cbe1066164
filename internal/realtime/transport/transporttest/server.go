// Package transporttest provides an in-process realtime server speaking
// both the websocket and the polling transport, for tests.
package transporttest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/yndnr/dinekit-go/internal/realtime/transport"
)

// Server is a fake realtime endpoint.
type Server struct {
	*httptest.Server

	// Token is the accepted bearer token. Empty accepts any token.
	Token string

	mu           sync.Mutex
	streamOff    bool
	received     map[string][]transport.Frame
	streams      map[string][]*websocket.Conn
	queues       map[string][]transport.Frame // keyed by sid
	sessions     map[string]string            // sid -> namespace
	nextSID      int
	handshakes   map[string]int
	pollWait     time.Duration
	streamAccept chan string
}

// NewServer starts a server. Close it with Close.
func NewServer() *Server {
	s := &Server{
		received:     make(map[string][]transport.Frame),
		streams:      make(map[string][]*websocket.Conn),
		queues:       make(map[string][]transport.Frame),
		sessions:     make(map[string]string),
		handshakes:   make(map[string]int),
		pollWait:     50 * time.Millisecond,
		streamAccept: make(chan string, 16),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// DisableStream makes websocket upgrades fail with 503 so clients fall
// back to polling.
func (s *Server) DisableStream() {
	s.mu.Lock()
	s.streamOff = true
	s.mu.Unlock()
}

// StreamAccepted delivers the namespace of each accepted websocket.
func (s *Server) StreamAccepted() <-chan string {
	return s.streamAccept
}

// Received returns the frames clients sent to ns.
func (s *Server) Received(ns string) []transport.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transport.Frame(nil), s.received[ns]...)
}

// Handshakes returns the number of polling sessions opened on ns.
func (s *Server) Handshakes(ns string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshakes[ns]
}

// Broadcast sends f to every client connected to ns.
func (s *Server) Broadcast(ctx context.Context, ns string, f transport.Frame) {
	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.streams[ns]...)
	for sid, sns := range s.sessions {
		if sns == ns {
			s.queues[sid] = append(s.queues[sid], f)
		}
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = wsjson.Write(ctx, c, f)
	}
}

// DropStreams closes every websocket, forcing clients to reconnect.
func (s *Server) DropStreams() {
	s.mu.Lock()
	var conns []*websocket.Conn
	for ns, cs := range s.streams {
		conns = append(conns, cs...)
		delete(s.streams, ns)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "restart")
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.Token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+s.Token
}

// split returns the namespace and the transport action of a request path.
func split(path string) (ns, action string) {
	i := strings.LastIndex(path, "/")
	ns, action = path[:i], path[i+1:]
	if ns == "" {
		ns = "/"
	}
	return ns, action
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	ns, action := split(r.URL.Path)
	switch action {
	case "ws":
		s.serveStream(w, r, ns)
	case "handshake":
		s.serveHandshake(w, ns)
	case "poll":
		s.servePoll(w, r)
	case "emit":
		s.serveEmit(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) record(ns string, f transport.Frame) {
	s.mu.Lock()
	s.received[ns] = append(s.received[ns], f)
	s.mu.Unlock()
}

func (s *Server) serveStream(w http.ResponseWriter, r *http.Request, ns string) {
	s.mu.Lock()
	off := s.streamOff
	s.mu.Unlock()
	if off {
		http.Error(w, "stream disabled", http.StatusServiceUnavailable)
		return
	}

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.streams[ns] = append(s.streams[ns], c)
	s.mu.Unlock()
	select {
	case s.streamAccept <- ns:
	default:
	}

	ctx := r.Context()
	for {
		var f transport.Frame
		if err := wsjson.Read(ctx, c, &f); err != nil {
			s.removeStream(ns, c)
			return
		}
		s.record(ns, f)
	}
}

func (s *Server) removeStream(ns string, c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := s.streams[ns]
	for i, sc := range conns {
		if sc == c {
			s.streams[ns] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
}

func (s *Server) serveHandshake(w http.ResponseWriter, ns string) {
	s.mu.Lock()
	s.nextSID++
	sid := "sid-" + strconv.Itoa(s.nextSID)
	s.sessions[sid] = ns
	s.handshakes[ns]++
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"sid": sid})
}

func (s *Server) servePoll(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("sid")
	deadline := time.After(s.pollWait)
	for {
		s.mu.Lock()
		_, known := s.sessions[sid]
		frames := s.queues[sid]
		delete(s.queues, sid)
		s.mu.Unlock()

		if !known {
			http.Error(w, "unknown session", http.StatusGone)
			return
		}
		if len(frames) > 0 {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(frames)
			return
		}
		select {
		case <-r.Context().Done():
			return
		case <-deadline:
			w.WriteHeader(http.StatusNoContent)
			return
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (s *Server) serveEmit(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("sid")
	s.mu.Lock()
	ns, known := s.sessions[sid]
	s.mu.Unlock()
	if !known {
		http.Error(w, "unknown session", http.StatusGone)
		return
	}

	var f transport.Frame
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.record(ns, f)
	w.WriteHeader(http.StatusNoContent)
}

// Close drops open streams and shuts the server down.
func (s *Server) Close() {
	s.DropStreams()
	s.Server.Close()
}
