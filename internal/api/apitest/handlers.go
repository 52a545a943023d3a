package apitest

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"retroquest-cli/internal/model"

	"github.com/gorilla/mux"
)

const (
	eventThought     = "thought"
	eventActionItem  = "action-item"
	eventColumnTitle = "column-title"
	eventEndRetro    = "end-retro"
)

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// withTeam runs fn under the lock with the request's team.
func (s *Server) withTeam(r *http.Request, fn func(id string, tm *team)) {
	id := mux.Vars(r)["teamId"]
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(id, s.teams[id])
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := model.TeamID(req.Name)
	s.mu.Lock()
	tm, ok := s.teams[id]
	s.mu.Unlock()
	if !ok || tm.password != req.Password {
		http.Error(w, "incorrect team name or password", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(s.Token(id)))
}

func (s *Server) handleTeamName(w http.ResponseWriter, r *http.Request) {
	s.withTeam(r, func(_ string, tm *team) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(tm.name))
	})
}

func (s *Server) handleListThoughts(w http.ResponseWriter, r *http.Request) {
	s.withTeam(r, func(_ string, tm *team) {
		out := append([]model.Thought{}, tm.thoughts...)
		writeJSON(w, http.StatusOK, out)
	})
}

func (s *Server) handleCreateThought(w http.ResponseWriter, r *http.Request) {
	var th model.Thought
	if err := decodeBody(r, &th); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, ok := model.ParseTopic(string(th.Topic)); !ok || th.Topic == model.TopicAction {
		http.Error(w, "unknown topic", http.StatusBadRequest)
		return
	}
	s.withTeam(r, func(id string, tm *team) {
		th.ID = s.nextID
		s.nextID++
		for _, c := range tm.columns {
			if c.Topic == th.Topic {
				th.ColumnID = c.ID
			}
		}
		tm.thoughts = append(tm.thoughts, th)
		s.hub.broadcast(id, event{Type: eventThought, Action: "put", Payload: th})
		writeJSON(w, http.StatusCreated, th)
	})
}

func (s *Server) updateThought(w http.ResponseWriter, r *http.Request, mutate func(*model.Thought)) {
	id := pathID(r)
	s.withTeam(r, func(teamID string, tm *team) {
		for i := range tm.thoughts {
			if tm.thoughts[i].ID == id {
				mutate(&tm.thoughts[i])
				s.hub.broadcast(teamID, event{Type: eventThought, Action: "put", Payload: tm.thoughts[i]})
				writeJSON(w, http.StatusOK, tm.thoughts[i])
				return
			}
		}
		http.Error(w, "thought not found", http.StatusNotFound)
	})
}

func (s *Server) handleHeartThought(w http.ResponseWriter, r *http.Request) {
	s.updateThought(w, r, func(th *model.Thought) { th.Hearts++ })
}

func (s *Server) handleDiscussThought(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Discussed bool `json:"discussed"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.updateThought(w, r, func(th *model.Thought) { th.Discussed = req.Discussed })
}

func (s *Server) handleEditThought(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.updateThought(w, r, func(th *model.Thought) { th.Message = req.Message })
}

func (s *Server) handleDeleteThought(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.withTeam(r, func(teamID string, tm *team) {
		for i := range tm.thoughts {
			if tm.thoughts[i].ID == id {
				removed := tm.thoughts[i]
				tm.thoughts = append(tm.thoughts[:i], tm.thoughts[i+1:]...)
				s.hub.broadcast(teamID, event{Type: eventThought, Action: "delete", Payload: removed})
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		http.Error(w, "thought not found", http.StatusNotFound)
	})
}

func (s *Server) handleListActionItems(w http.ResponseWriter, r *http.Request) {
	archived := r.URL.Query().Get("archived") == "true"
	s.withTeam(r, func(_ string, tm *team) {
		out := []model.ActionItem{}
		for _, a := range tm.actionItems {
			if a.Archived == archived {
				out = append(out, a)
			}
		}
		writeJSON(w, http.StatusOK, out)
	})
}

func (s *Server) handleCreateActionItem(w http.ResponseWriter, r *http.Request) {
	var a model.ActionItem
	if err := decodeBody(r, &a); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.withTeam(r, func(teamID string, tm *team) {
		a.ID = s.nextID
		s.nextID++
		if a.DateCreated.IsZero() {
			a.DateCreated = model.NewDate(s.now())
		}
		tm.actionItems = append(tm.actionItems, a)
		s.hub.broadcast(teamID, event{Type: eventActionItem, Action: "put", Payload: a})
		writeJSON(w, http.StatusCreated, a)
	})
}

func (s *Server) handleUpdateActionItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Completed bool   `json:"completed"`
		Task      string `json:"task"`
		Assignee  string `json:"assignee"`
		Archived  bool   `json:"archived"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	field := mux.Vars(r)["field"]
	id := pathID(r)
	s.withTeam(r, func(teamID string, tm *team) {
		for i := range tm.actionItems {
			a := &tm.actionItems[i]
			if a.ID != id {
				continue
			}
			switch field {
			case "completed":
				a.Completed = req.Completed
			case "task":
				a.Task = req.Task
			case "assignee":
				a.Assignee = req.Assignee
			case "archived":
				a.Archived = req.Archived
			}
			s.hub.broadcast(teamID, event{Type: eventActionItem, Action: "put", Payload: *a})
			writeJSON(w, http.StatusOK, *a)
			return
		}
		http.Error(w, "action item not found", http.StatusNotFound)
	})
}

func (s *Server) handleDeleteActionItem(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.withTeam(r, func(teamID string, tm *team) {
		for i := range tm.actionItems {
			if tm.actionItems[i].ID == id {
				removed := tm.actionItems[i]
				tm.actionItems = append(tm.actionItems[:i], tm.actionItems[i+1:]...)
				s.hub.broadcast(teamID, event{Type: eventActionItem, Action: "delete", Payload: removed})
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		http.Error(w, "action item not found", http.StatusNotFound)
	})
}

func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	s.withTeam(r, func(_ string, tm *team) {
		writeJSON(w, http.StatusOK, append([]model.Column{}, tm.columns...))
	})
}

func (s *Server) handleRenameColumn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := pathID(r)
	s.withTeam(r, func(teamID string, tm *team) {
		for i := range tm.columns {
			if tm.columns[i].ID == id {
				tm.columns[i].Title = req.Title
				s.hub.broadcast(teamID, event{Type: eventColumnTitle, Action: "put", Payload: tm.columns[i]})
				writeJSON(w, http.StatusOK, tm.columns[i])
				return
			}
		}
		http.Error(w, "column not found", http.StatusNotFound)
	})
}

func (s *Server) handleEndRetro(w http.ResponseWriter, r *http.Request) {
	s.withTeam(r, func(teamID string, tm *team) {
		board := model.Board{
			ID:          s.nextID,
			TeamID:      teamID,
			DateCreated: model.NewDate(s.now()),
			Thoughts:    tm.thoughts,
		}
		s.nextID++
		tm.boards = append(tm.boards, board)
		tm.thoughts = nil
		for i := range tm.actionItems {
			if tm.actionItems[i].Completed {
				tm.actionItems[i].Archived = true
			}
		}
		s.hub.broadcast(teamID, event{Type: eventEndRetro, Action: "put", Payload: map[string]any{}})
		w.WriteHeader(http.StatusOK)
	})
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	pageIndex, _ := strconv.Atoi(r.URL.Query().Get("pageIndex"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize <= 0 {
		pageSize = 30
	}
	s.withTeam(r, func(_ string, tm *team) {
		boards := append([]model.Board{}, tm.boards...)
		sort.SliceStable(boards, func(i, j int) bool { return boards[i].ID > boards[j].ID })
		start := pageIndex * pageSize
		if start > len(boards) {
			start = len(boards)
		}
		end := start + pageSize
		if end > len(boards) {
			end = len(boards)
		}
		writeJSON(w, http.StatusOK, boards[start:end])
	})
}

func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.withTeam(r, func(_ string, tm *team) {
		for i := range tm.boards {
			if tm.boards[i].ID == id {
				tm.boards = append(tm.boards[:i], tm.boards[i+1:]...)
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		http.Error(w, "board not found", http.StatusNotFound)
	})
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	s.withTeam(r, func(_ string, tm *team) {
		var buf bytes.Buffer
		cw := csv.NewWriter(&buf)
		cw.UseCRLF = true
		_ = cw.Write([]string{"Column", "Message", "Likes", "Completed", "Assigned To"})
		titles := map[model.Topic]string{}
		for _, c := range tm.columns {
			titles[c.Topic] = c.Title
		}
		for _, th := range tm.thoughts {
			_ = cw.Write([]string{titles[th.Topic], th.Message, strconv.Itoa(th.Hearts), yesNo(th.Discussed), ""})
		}
		for _, a := range tm.actionItems {
			if a.Archived {
				continue
			}
			_ = cw.Write([]string{titles[model.TopicAction], a.Task, "", yesNo(a.Completed), strings.TrimSpace(a.Assignee)})
		}
		cw.Flush()
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+tm.name+`-board.csv"`)
		_, _ = w.Write(buf.Bytes())
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
