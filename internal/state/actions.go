package state

import (
	"retroquest-cli/internal/model"
	"retroquest-cli/internal/realtime"
)

// Action is a state change. The set is closed; Reduce handles every variant.
type Action interface{ isAction() }

// Loaded replaces the board with a fresh server snapshot.
type Loaded struct {
	TeamName    string
	Thoughts    []model.Thought
	ActionItems []model.ActionItem
	Columns     []model.Column
}

// ThoughtSaved inserts or replaces a thought (create responses and pushed events).
type ThoughtSaved struct{ Thought model.Thought }

// ThoughtUpdated replaces a thought only if it is still on the board.
type ThoughtUpdated struct{ Thought model.Thought }

type ThoughtRemoved struct{ ID int64 }

type ActionItemSaved struct{ ActionItem model.ActionItem }

// ActionItemUpdated replaces an action item only if it is still on the board.
type ActionItemUpdated struct{ ActionItem model.ActionItem }

type ActionItemRemoved struct{ ID int64 }

type ColumnRetitled struct{ Column model.Column }

// RetroEnded clears thoughts and drops completed action items (the server archived them).
type RetroEnded struct{}

type ModalOpened struct{ Key string }
type ModalClosed struct{}

type SortToggled struct{ Topic model.Topic }

// SortRestored seeds the sort toggles from persisted UI state.
type SortRestored struct{ SortByVotes map[model.Topic]bool }

type FailureAdded struct{ Failure Failure }

// FailurePersisted records the outbox id of a failure.
type FailurePersisted struct {
	ID       string
	OutboxID string
}

type FailureDismissed struct{ ID string }

func (Loaded) isAction()            {}
func (ThoughtSaved) isAction()      {}
func (ThoughtUpdated) isAction()    {}
func (ThoughtRemoved) isAction()    {}
func (ActionItemSaved) isAction()   {}
func (ActionItemUpdated) isAction() {}
func (ActionItemRemoved) isAction() {}
func (ColumnRetitled) isAction()    {}
func (RetroEnded) isAction()        {}
func (ModalOpened) isAction()       {}
func (ModalClosed) isAction()       {}
func (SortToggled) isAction()       {}
func (SortRestored) isAction()      {}
func (FailureAdded) isAction()      {}
func (FailurePersisted) isAction()  {}
func (FailureDismissed) isAction()  {}

// Reduce returns the state after applying a. st is not modified.
func Reduce(st State, a Action) State {
	out := st.clone()
	switch a := a.(type) {
	case Loaded:
		out.Loaded = true
		if a.TeamName != "" {
			out.TeamName = a.TeamName
		}
		out.Thoughts = append([]model.Thought(nil), a.Thoughts...)
		out.ActionItems = out.ActionItems[:0]
		for _, it := range a.ActionItems {
			if !it.Archived {
				out.ActionItems = append(out.ActionItems, it)
			}
		}
		out.Columns = map[model.Topic]model.Column{}
		for _, c := range a.Columns {
			out.Columns[c.Topic] = c
		}
	case ThoughtSaved:
		out.Thoughts = upsertThought(out.Thoughts, a.Thought, true)
	case ThoughtUpdated:
		out.Thoughts = upsertThought(out.Thoughts, a.Thought, false)
	case ThoughtRemoved:
		out.Thoughts = removeThought(out.Thoughts, a.ID)
	case ActionItemSaved:
		out.ActionItems = upsertActionItem(out.ActionItems, a.ActionItem, true)
	case ActionItemUpdated:
		out.ActionItems = upsertActionItem(out.ActionItems, a.ActionItem, false)
	case ActionItemRemoved:
		out.ActionItems = removeActionItem(out.ActionItems, a.ID)
	case ColumnRetitled:
		out.Columns[a.Column.Topic] = a.Column
	case RetroEnded:
		out.Thoughts = nil
		kept := out.ActionItems[:0]
		for _, it := range out.ActionItems {
			if !it.Completed {
				kept = append(kept, it)
			}
		}
		out.ActionItems = kept
	case ModalOpened:
		if _, ok := out.Find(a.Key); ok {
			out.ModalKey = a.Key
		}
	case ModalClosed:
		out.ModalKey = ""
	case SortToggled:
		out.SortByVotes[a.Topic] = !out.SortByVotes[a.Topic]
	case SortRestored:
		out.SortByVotes = map[model.Topic]bool{}
		for k, v := range a.SortByVotes {
			if v {
				out.SortByVotes[k] = true
			}
		}
	case FailureAdded:
		out.Failures = append(out.Failures, a.Failure)
	case FailurePersisted:
		for i := range out.Failures {
			if out.Failures[i].ID == a.ID {
				out.Failures[i].OutboxID = a.OutboxID
			}
		}
	case FailureDismissed:
		kept := out.Failures[:0]
		for _, f := range out.Failures {
			if f.ID != a.ID {
				kept = append(kept, f)
			}
		}
		out.Failures = kept
	}

	// The modal follows its entry; if the entry is gone, so is the modal.
	if out.ModalKey != "" {
		if _, ok := out.Find(out.ModalKey); !ok {
			out.ModalKey = ""
		}
	}
	return out
}

func upsertThought(list []model.Thought, th model.Thought, insert bool) []model.Thought {
	for i := range list {
		if list[i].ID == th.ID {
			list[i] = th
			return list
		}
	}
	if insert {
		list = append(list, th)
	}
	return list
}

func removeThought(list []model.Thought, id int64) []model.Thought {
	kept := list[:0]
	for _, th := range list {
		if th.ID != id {
			kept = append(kept, th)
		}
	}
	return kept
}

// Archived action items leave the active board.
func upsertActionItem(list []model.ActionItem, it model.ActionItem, insert bool) []model.ActionItem {
	if it.Archived {
		return removeActionItem(list, it.ID)
	}
	for i := range list {
		if list[i].ID == it.ID {
			list[i] = it
			return list
		}
	}
	if insert {
		list = append(list, it)
	}
	return list
}

func removeActionItem(list []model.ActionItem, id int64) []model.ActionItem {
	kept := list[:0]
	for _, it := range list {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	return kept
}

// FromEvent maps a pushed event onto the matching action. Pushed puts upsert, so an
// entry created by another participant appears on this board too.
func FromEvent(ev realtime.Event) (Action, bool) {
	switch ev.Kind {
	case realtime.KindThought:
		if ev.Thought == nil {
			return nil, false
		}
		if ev.Action == realtime.ActionDelete {
			return ThoughtRemoved{ID: ev.Thought.ID}, true
		}
		return ThoughtSaved{Thought: *ev.Thought}, true
	case realtime.KindActionItem:
		if ev.ActionItem == nil {
			return nil, false
		}
		if ev.Action == realtime.ActionDelete {
			return ActionItemRemoved{ID: ev.ActionItem.ID}, true
		}
		return ActionItemSaved{ActionItem: *ev.ActionItem}, true
	case realtime.KindColumnTitle:
		if ev.Column == nil {
			return nil, false
		}
		return ColumnRetitled{Column: *ev.Column}, true
	case realtime.KindEndRetro:
		return RetroEnded{}, true
	default:
		return nil, false
	}
}
