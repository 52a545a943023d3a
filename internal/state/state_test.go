package state

import (
	"reflect"
	"sync"
	"testing"

	"retroquest-cli/internal/model"
	"retroquest-cli/internal/realtime"
)

func ids[E model.ColumnEntry](entries []E) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.EntryID())
	}
	return out
}

func seeded() State {
	return Reduce(State{}, Loaded{
		TeamName: "Team Awesome",
		Thoughts: []model.Thought{
			{ID: 1, Topic: model.TopicHappy, Hearts: 1},
			{ID: 2, Topic: model.TopicHappy, Hearts: 5, Discussed: true},
			{ID: 3, Topic: model.TopicHappy, Hearts: 3},
			{ID: 4, Topic: model.TopicConfused},
		},
		ActionItems: []model.ActionItem{
			{ID: 10, Task: "a", Completed: true},
			{ID: 11, Task: "b"},
			{ID: 12, Task: "c", Archived: true},
		},
		Columns: []model.Column{{ID: 100, Topic: model.TopicHappy, Title: "Yay"}},
	})
}

func TestThoughtsFor_PartitionsAndPreservesArrival(t *testing.T) {
	st := seeded()
	if got := ids(st.ThoughtsFor(model.TopicHappy)); !reflect.DeepEqual(got, []int64{1, 3, 2}) {
		t.Fatalf("expected [1 3 2], got %v", got)
	}
	// Stored order is untouched.
	if got := ids(st.Thoughts); !reflect.DeepEqual(got, []int64{1, 2, 3, 4}) {
		t.Fatalf("stored order changed: %v", got)
	}
}

func TestSortToggle_IsReversible(t *testing.T) {
	st := Reduce(seeded(), SortToggled{Topic: model.TopicHappy})
	if got := ids(st.ThoughtsFor(model.TopicHappy)); !reflect.DeepEqual(got, []int64{3, 1, 2}) {
		t.Fatalf("expected vote order [3 1 2], got %v", got)
	}
	st = Reduce(st, SortToggled{Topic: model.TopicHappy})
	if got := ids(st.ThoughtsFor(model.TopicHappy)); !reflect.DeepEqual(got, []int64{1, 3, 2}) {
		t.Fatalf("expected arrival order back, got %v", got)
	}
}

func TestLoaded_DropsArchivedActionItems(t *testing.T) {
	st := seeded()
	if got := ids(st.ActionItemsForBoard()); !reflect.DeepEqual(got, []int64{11, 10}) {
		t.Fatalf("expected [11 10], got %v", got)
	}
	active, resolved := st.Counts(model.TopicAction)
	if active != 1 || resolved != 1 {
		t.Fatalf("unexpected counts %d/%d", active, resolved)
	}
	if st.ColumnTitle(model.TopicHappy) != "Yay" || st.ColumnTitle(model.TopicUnhappy) != "Sad" {
		t.Fatalf("unexpected titles %q %q", st.ColumnTitle(model.TopicHappy), st.ColumnTitle(model.TopicUnhappy))
	}
}

func TestUpdated_NeverResurrectsRemovedEntries(t *testing.T) {
	st := Reduce(seeded(), ThoughtRemoved{ID: 1})
	st = Reduce(st, ThoughtUpdated{Thought: model.Thought{ID: 1, Topic: model.TopicHappy, Message: "late"}})
	if _, ok := st.Thought(1); ok {
		t.Fatalf("expected late update to be dropped")
	}

	st = Reduce(st, ThoughtSaved{Thought: model.Thought{ID: 9, Topic: model.TopicHappy}})
	if got := ids(st.ThoughtsFor(model.TopicHappy)); !reflect.DeepEqual(got, []int64{3, 9, 2}) {
		t.Fatalf("expected created thought at end of active group, got %v", got)
	}

	st = Reduce(st, ActionItemRemoved{ID: 11})
	st = Reduce(st, ActionItemUpdated{ActionItem: model.ActionItem{ID: 11, Task: "late"}})
	if _, ok := st.ActionItem(11); ok {
		t.Fatalf("expected late action-item update to be dropped")
	}
}

func TestArchivedUpdateLeavesBoard(t *testing.T) {
	st := Reduce(seeded(), ActionItemUpdated{ActionItem: model.ActionItem{ID: 10, Completed: true, Archived: true}})
	if _, ok := st.ActionItem(10); ok {
		t.Fatalf("expected archived item to leave the board")
	}
}

func TestRetroEnded(t *testing.T) {
	st := Reduce(seeded(), RetroEnded{})
	if len(st.Thoughts) != 0 {
		t.Fatalf("expected thoughts cleared, got %d", len(st.Thoughts))
	}
	if got := ids(st.ActionItems); !reflect.DeepEqual(got, []int64{11}) {
		t.Fatalf("expected only open action items, got %v", got)
	}
}

func TestModalFollowsEntry(t *testing.T) {
	key := model.EntryKey(model.Thought{ID: 3})
	st := Reduce(seeded(), ModalOpened{Key: key})
	if !st.ModalOpen() {
		t.Fatalf("expected modal open")
	}
	st = Reduce(st, ThoughtUpdated{Thought: model.Thought{ID: 3, Topic: model.TopicHappy, Message: "new"}})
	e, ok := st.ModalEntry()
	if !ok || e.EntryText() != "new" {
		t.Fatalf("expected modal to show updated entry, got %#v", e)
	}
	st = Reduce(st, ThoughtRemoved{ID: 3})
	if st.ModalOpen() {
		t.Fatalf("expected modal to close when its entry is removed")
	}
	st = Reduce(st, ModalOpened{Key: "thought:999"})
	if st.ModalOpen() {
		t.Fatalf("expected unknown entry not to open the modal")
	}
}

func TestFailures(t *testing.T) {
	st := Reduce(State{}, FailureAdded{Failure: Failure{ID: "f1", Message: "boom"}})
	st = Reduce(st, FailurePersisted{ID: "f1", OutboxID: "ob-1"})
	if len(st.Failures) != 1 || st.Failures[0].OutboxID != "ob-1" {
		t.Fatalf("unexpected failures: %#v", st.Failures)
	}
	st = Reduce(st, FailureDismissed{ID: "f1"})
	if len(st.Failures) != 0 {
		t.Fatalf("expected failure dismissed")
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	before := seeded()
	snapshot := before.clone()
	_ = Reduce(before, ThoughtRemoved{ID: 1})
	_ = Reduce(before, SortToggled{Topic: model.TopicHappy})
	if !reflect.DeepEqual(before, snapshot) {
		t.Fatalf("Reduce mutated its input")
	}
}

func TestFromEvent(t *testing.T) {
	th := model.Thought{ID: 5}
	a, ok := FromEvent(realtime.Event{Kind: realtime.KindThought, Action: realtime.ActionDelete, Thought: &th})
	if !ok || a != (ThoughtRemoved{ID: 5}) {
		t.Fatalf("unexpected action %#v", a)
	}
	a, ok = FromEvent(realtime.Event{Kind: realtime.KindEndRetro, Action: realtime.ActionPut})
	if !ok || a != (RetroEnded{}) {
		t.Fatalf("unexpected action %#v", a)
	}
	if _, ok := FromEvent(realtime.Event{Kind: realtime.KindActionItem}); ok {
		t.Fatalf("expected payload-less event to be ignored")
	}
}

func TestStore_ConcurrentDispatchAndSnapshot(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Dispatch(ThoughtSaved{Thought: model.Thought{ID: id, Topic: model.TopicHappy}})
			_ = s.Snapshot()
		}(int64(i))
	}
	wg.Wait()

	snap := s.Snapshot()
	if len(snap.Thoughts) != 8 {
		t.Fatalf("expected 8 thoughts, got %d", len(snap.Thoughts))
	}
	snap.Thoughts = nil
	if got := s.Snapshot(); len(got.Thoughts) != 8 {
		t.Fatalf("expected snapshot to be a copy, got %d thoughts", len(got.Thoughts))
	}
}
