// Package state holds the board's application state: a single value changed only by
// Reduce, plus selectors the views read from.
package state

import (
	"retroquest-cli/internal/api"
	"retroquest-cli/internal/model"
)

// Failure is a mutation that did not reach the server. Request is replayable via
// api.Client.Send; OutboxID is set once the failure was persisted.
type Failure struct {
	ID       string
	Message  string
	Request  *api.Request
	OutboxID string
}

type State struct {
	Loaded   bool
	TeamName string

	// Thoughts and ActionItems are kept in arrival order.
	Thoughts    []model.Thought
	ActionItems []model.ActionItem
	Columns     map[model.Topic]model.Column

	// ModalKey is the model.EntryKey of the entry shown enlarged, or "".
	ModalKey string

	SortByVotes map[model.Topic]bool
	Failures    []Failure
}

func (st State) clone() State {
	out := st
	out.Thoughts = append([]model.Thought(nil), st.Thoughts...)
	out.ActionItems = append([]model.ActionItem(nil), st.ActionItems...)
	out.Columns = make(map[model.Topic]model.Column, len(st.Columns))
	for k, v := range st.Columns {
		out.Columns[k] = v
	}
	out.SortByVotes = make(map[model.Topic]bool, len(st.SortByVotes))
	for k, v := range st.SortByVotes {
		out.SortByVotes[k] = v
	}
	out.Failures = append([]Failure(nil), st.Failures...)
	return out
}

// ThoughtsFor returns the topic's thoughts for display: active first, resolved last,
// arrival order inside each group unless the column sorts by votes.
func (st State) ThoughtsFor(topic model.Topic) []model.Thought {
	var in []model.Thought
	for _, th := range st.Thoughts {
		if th.Topic == topic {
			in = append(in, th)
		}
	}
	if st.SortByVotes[topic] {
		return model.SortByVotes(in)
	}
	return model.Partition(in)
}

// ActionItemsForBoard returns the active board's action items, completed last.
func (st State) ActionItemsForBoard() []model.ActionItem {
	return model.Partition(st.ActionItems)
}

// Entries returns the column's entries in display order.
func (st State) Entries(topic model.Topic) []model.ColumnEntry {
	var out []model.ColumnEntry
	if topic == model.TopicAction {
		for _, a := range st.ActionItemsForBoard() {
			out = append(out, a)
		}
		return out
	}
	for _, th := range st.ThoughtsFor(topic) {
		out = append(out, th)
	}
	return out
}

// Counts returns (active, resolved) for the column.
func (st State) Counts(topic model.Topic) (int, int) {
	if topic == model.TopicAction {
		return model.CountResolved(st.ActionItems)
	}
	var in []model.Thought
	for _, th := range st.Thoughts {
		if th.Topic == topic {
			in = append(in, th)
		}
	}
	return model.CountResolved(in)
}

func (st State) ColumnTitle(topic model.Topic) string {
	if c, ok := st.Columns[topic]; ok && c.Title != "" {
		return c.Title
	}
	return topic.DefaultTitle()
}

func (st State) ModalOpen() bool { return st.ModalKey != "" }

// ModalEntry returns the entry currently shown in the modal.
func (st State) ModalEntry() (model.ColumnEntry, bool) {
	if st.ModalKey == "" {
		return nil, false
	}
	return st.Find(st.ModalKey)
}

// Find looks an entry up by model.EntryKey.
func (st State) Find(key string) (model.ColumnEntry, bool) {
	for _, th := range st.Thoughts {
		if model.EntryKey(th) == key {
			return th, true
		}
	}
	for _, a := range st.ActionItems {
		if model.EntryKey(a) == key {
			return a, true
		}
	}
	return nil, false
}

func (st State) Thought(id int64) (model.Thought, bool) {
	for _, th := range st.Thoughts {
		if th.ID == id {
			return th, true
		}
	}
	return model.Thought{}, false
}

func (st State) ActionItem(id int64) (model.ActionItem, bool) {
	for _, a := range st.ActionItems {
		if a.ID == id {
			return a, true
		}
	}
	return model.ActionItem{}, false
}
