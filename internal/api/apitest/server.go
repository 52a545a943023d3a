// Package apitest runs an in-memory RetroQuest backend for tests.
//
// It implements the REST routes the client uses, issues HS256 tokens on login, pushes
// change events over a WebSocket hub and serves the CSV export.
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"retroquest-cli/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

type team struct {
	name     string
	password string

	thoughts    []model.Thought
	actionItems []model.ActionItem
	columns     []model.Column
	boards      []model.Board
}

type failure struct {
	method string
	prefix string
	status int
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	teams    map[string]*team
	nextID   int64
	secret   []byte
	failures []failure
	requests []string

	hub *hub
	now func() time.Time
}

// New starts a backend and closes it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		teams:  map[string]*team{},
		nextID: 1,
		secret: []byte("apitest-secret"),
		hub:    newHub(),
		now:    time.Now,
	}
	go s.hub.run()
	s.Server = httptest.NewServer(s.routes())
	tb.Cleanup(func() {
		s.hub.stop()
		s.Server.Close()
	})
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recordAndFail)

	r.HandleFunc("/api/team/login", s.handleLogin).Methods(http.MethodPost)

	t := r.PathPrefix("/api/team/{teamId}").Subrouter()
	t.Use(s.auth)
	t.HandleFunc("/name", s.handleTeamName).Methods(http.MethodGet)
	t.HandleFunc("/thoughts", s.handleListThoughts).Methods(http.MethodGet)
	t.HandleFunc("/thought", s.handleCreateThought).Methods(http.MethodPost)
	t.HandleFunc("/thought/{id:[0-9]+}/heart", s.handleHeartThought).Methods(http.MethodPut)
	t.HandleFunc("/thought/{id:[0-9]+}/discuss", s.handleDiscussThought).Methods(http.MethodPut)
	t.HandleFunc("/thought/{id:[0-9]+}/message", s.handleEditThought).Methods(http.MethodPut)
	t.HandleFunc("/thought/{id:[0-9]+}", s.handleDeleteThought).Methods(http.MethodDelete)
	t.HandleFunc("/action-item", s.handleListActionItems).Methods(http.MethodGet)
	t.HandleFunc("/action-item", s.handleCreateActionItem).Methods(http.MethodPost)
	t.HandleFunc("/action-item/{id:[0-9]+}/{field:completed|task|assignee|archived}", s.handleUpdateActionItem).Methods(http.MethodPut)
	t.HandleFunc("/action-item/{id:[0-9]+}", s.handleDeleteActionItem).Methods(http.MethodDelete)
	t.HandleFunc("/columns", s.handleListColumns).Methods(http.MethodGet)
	t.HandleFunc("/column/{id:[0-9]+}/title", s.handleRenameColumn).Methods(http.MethodPut)
	t.HandleFunc("/end-retro", s.handleEndRetro).Methods(http.MethodPut)
	t.HandleFunc("/boards", s.handleListBoards).Methods(http.MethodGet)
	t.HandleFunc("/board/{id:[0-9]+}", s.handleDeleteBoard).Methods(http.MethodDelete)
	t.HandleFunc("/csv", s.handleCSV).Methods(http.MethodGet)
	t.HandleFunc("/socket", s.handleSocket)
	return r
}

// AddTeam registers a team with the default columns and returns its id.
func (s *Server) AddTeam(name, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := model.TeamID(name)
	tm := &team{name: name, password: password}
	for _, topic := range model.BoardTopics {
		tm.columns = append(tm.columns, model.Column{ID: s.nextID, Topic: topic, Title: topic.DefaultTitle()})
		s.nextID++
	}
	s.teams[id] = tm
	return id
}

// Token issues a valid token for teamID.
func (s *Server) Token(teamID string) string {
	return s.signToken(teamID, s.now().Add(48*time.Hour))
}

// ExpiredToken issues a token whose exp is already in the past.
func (s *Server) ExpiredToken(teamID string) string {
	return s.signToken(teamID, s.now().Add(-time.Hour))
}

func (s *Server) signToken(teamID string, exp time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   teamID,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(s.now()),
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return signed
}

// FailNext makes the next request with method whose path starts with prefix return status.
func (s *Server) FailNext(method, prefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, prefix: prefix, status: status})
}

// Requests returns "METHOD /path" for every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) Thoughts(teamID string) []model.Thought {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tm := s.teams[teamID]; tm != nil {
		return append([]model.Thought(nil), tm.thoughts...)
	}
	return nil
}

func (s *Server) ActionItems(teamID string) []model.ActionItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tm := s.teams[teamID]; tm != nil {
		return append([]model.ActionItem(nil), tm.actionItems...)
	}
	return nil
}

func (s *Server) Boards(teamID string) []model.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tm := s.teams[teamID]; tm != nil {
		return append([]model.Board(nil), tm.boards...)
	}
	return nil
}

// SeedThought stores a thought directly (no event is pushed).
func (s *Server) SeedThought(teamID string, th model.Thought) model.Thought {
	s.mu.Lock()
	defer s.mu.Unlock()
	tm := s.teams[teamID]
	th.ID = s.nextID
	s.nextID++
	tm.thoughts = append(tm.thoughts, th)
	return th
}

// SeedActionItem stores an action item directly (no event is pushed).
func (s *Server) SeedActionItem(teamID string, a model.ActionItem) model.ActionItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	tm := s.teams[teamID]
	a.ID = s.nextID
	s.nextID++
	tm.actionItems = append(tm.actionItems, a)
	return a
}

// Push broadcasts an arbitrary event to the team's socket subscribers.
func (s *Server) Push(teamID, typ, action string, payload any) {
	s.hub.broadcast(teamID, event{Type: typ, Action: action, Payload: payload})
}

// Subscribers reports how many sockets are connected for teamID.
func (s *Server) Subscribers(teamID string) int {
	return s.hub.count(teamID)
}

func (s *Server) recordAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		for i, f := range s.failures {
			if f.method == r.Method && strings.HasPrefix(r.URL.Path, f.prefix) {
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				s.mu.Unlock()
				http.Error(w, "injected failure", f.status)
				return
			}
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenString = strings.TrimPrefix(h, "Bearer ")
		} else if c, err := r.Cookie("token"); err == nil {
			tokenString = c.Value
		}
		if tokenString == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		tok, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		})
		if err != nil || !tok.Valid {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		sub, _ := tok.Claims.GetSubject()
		teamID := mux.Vars(r)["teamId"]
		if sub != teamID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		s.mu.Lock()
		_, ok := s.teams[teamID]
		s.mu.Unlock()
		if !ok {
			http.Error(w, "team not found", http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request format")
	}
	return nil
}
