package model

import (
	"sort"
	"strconv"
)

type EntryKind string

const (
	EntryThought    EntryKind = "thought"
	EntryActionItem EntryKind = "action-item"
)

// ColumnEntry is a single row of a board column: a Thought or an ActionItem.
type ColumnEntry interface {
	EntryID() int64
	EntryText() string
	// Resolved reports whether the entry is discussed (thought) or completed (action item).
	Resolved() bool
	Kind() EntryKind
}

func (t Thought) EntryID() int64    { return t.ID }
func (t Thought) EntryText() string { return t.Message }
func (t Thought) Resolved() bool    { return t.Discussed }
func (t Thought) Kind() EntryKind   { return EntryThought }

func (a ActionItem) EntryID() int64    { return a.ID }
func (a ActionItem) EntryText() string { return a.Task }
func (a ActionItem) Resolved() bool    { return a.Completed }
func (a ActionItem) Kind() EntryKind   { return EntryActionItem }

// EntryKey is a board-unique key for an entry (ids are only unique per kind).
func EntryKey(e ColumnEntry) string {
	return string(e.Kind()) + ":" + strconv.FormatInt(e.EntryID(), 10)
}

// Partition returns entries with all active entries first, then all resolved ones.
// Relative order inside each group is preserved. The input slice is not modified.
func Partition[E ColumnEntry](entries []E) []E {
	out := make([]E, 0, len(entries))
	for _, e := range entries {
		if !e.Resolved() {
			out = append(out, e)
		}
	}
	for _, e := range entries {
		if e.Resolved() {
			out = append(out, e)
		}
	}
	return out
}

// SortByVotes partitions thoughts like Partition and orders each group by hearts,
// most first. Ties keep their arrival order.
func SortByVotes(thoughts []Thought) []Thought {
	out := Partition(thoughts)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Discussed != out[j].Discussed {
			return !out[i].Discussed
		}
		return out[i].Hearts > out[j].Hearts
	})
	return out
}

// CountResolved returns (active, resolved) counts.
func CountResolved[E ColumnEntry](entries []E) (int, int) {
	active, resolved := 0, 0
	for _, e := range entries {
		if e.Resolved() {
			resolved++
		} else {
			active++
		}
	}
	return active, resolved
}
