package state

import (
	"log/slog"
	"sync"
)

// Store serializes dispatches so the board, the realtime subscriber and CLI commands
// can share one State.
type Store struct {
	mu sync.RWMutex
	st State
}

func NewStore() *Store {
	return &Store{st: Reduce(State{}, ModalClosed{})}
}

func (s *Store) Dispatch(actions ...Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range actions {
		s.st = Reduce(s.st, a)
		slog.Debug("state dispatch", "action", actionName(a))
	}
}

// Snapshot returns a copy that the caller may keep.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.clone()
}

func actionName(a Action) string {
	switch a.(type) {
	case Loaded:
		return "loaded"
	case ThoughtSaved:
		return "thought.saved"
	case ThoughtUpdated:
		return "thought.updated"
	case ThoughtRemoved:
		return "thought.removed"
	case ActionItemSaved:
		return "action_item.saved"
	case ActionItemUpdated:
		return "action_item.updated"
	case ActionItemRemoved:
		return "action_item.removed"
	case ColumnRetitled:
		return "column.retitled"
	case RetroEnded:
		return "retro.ended"
	case ModalOpened:
		return "modal.opened"
	case ModalClosed:
		return "modal.closed"
	case SortToggled:
		return "sort.toggled"
	case SortRestored:
		return "sort.restored"
	case FailureAdded:
		return "failure.added"
	case FailurePersisted:
		return "failure.persisted"
	case FailureDismissed:
		return "failure.dismissed"
	default:
		return "unknown"
	}
}
