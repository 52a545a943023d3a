package apitest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

type event struct {
	Type    string `json:"type"`
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

type subscriber struct {
	teamID string
	conn   *websocket.Conn
	send   chan []byte
}

type teamMessage struct {
	teamID string
	data   []byte
}

type countReq struct {
	teamID string
	reply  chan int
}

// hub fans team events out to connected sockets. All bookkeeping happens on the run
// goroutine.
type hub struct {
	subs       map[*subscriber]bool
	register   chan *subscriber
	unregister chan *subscriber
	messages   chan teamMessage
	counts     chan countReq
	done       chan struct{}
}

func newHub() *hub {
	return &hub{
		subs:       map[*subscriber]bool{},
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		messages:   make(chan teamMessage, 64),
		counts:     make(chan countReq),
		done:       make(chan struct{}),
	}
}

func (h *hub) run() {
	for {
		select {
		case <-h.done:
			for s := range h.subs {
				close(s.send)
				delete(h.subs, s)
			}
			return
		case s := <-h.register:
			h.subs[s] = true
		case s := <-h.unregister:
			if h.subs[s] {
				delete(h.subs, s)
				close(s.send)
			}
		case m := <-h.messages:
			for s := range h.subs {
				if s.teamID != m.teamID {
					continue
				}
				select {
				case s.send <- m.data:
				default:
					// Slow consumer; drop it.
					close(s.send)
					delete(h.subs, s)
				}
			}
		case req := <-h.counts:
			n := 0
			for s := range h.subs {
				if s.teamID == req.teamID {
					n++
				}
			}
			req.reply <- n
		}
	}
}

func (h *hub) stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

func (h *hub) broadcast(teamID string, ev event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case h.messages <- teamMessage{teamID: teamID, data: b}:
	case <-h.done:
	}
}

func (h *hub) count(teamID string) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- countReq{teamID: teamID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := &subscriber{teamID: mux.Vars(r)["teamId"], conn: conn, send: make(chan []byte, 32)}
	select {
	case s.hub.register <- sub:
	case <-s.hub.done:
		_ = conn.Close()
		return
	}

	go func() {
		defer conn.Close()
		for msg := range sub.send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}()

	// Drain reads so close frames are processed; the client never sends data.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	select {
	case s.hub.unregister <- sub:
	case <-s.hub.done:
	}
}
