package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	o, err := OpenOutbox(context.Background(), filepath.Join(t.TempDir(), "outbox.sqlite"))
	if err != nil {
		t.Fatalf("OpenOutbox: %v", err)
	}
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestOutbox_RecordListDelete(t *testing.T) {
	ctx := context.Background()
	o := openTestOutbox(t)

	tick := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	o.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	first, err := o.Record(ctx, Mutation{TeamID: "team-a", Method: "PUT", Path: "/api/team/team-a/thought/1/heart", LastError: "boom"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == "" || first.Attempts != 1 {
		t.Fatalf("unexpected record: %#v", first)
	}
	second, err := o.Record(ctx, Mutation{TeamID: "team-a", Method: "POST", Path: "/api/team/team-a/thought", Body: []byte(`{"message":"hi"}`)})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := o.Record(ctx, Mutation{TeamID: "team-b", Method: "DELETE", Path: "/api/team/team-b/thought/9"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	list, err := o.List(ctx, "team-a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("expected two team-a mutations oldest first, got %#v", list)
	}
	if string(list[1].Body) != `{"message":"hi"}` || list[0].LastError != "boom" {
		t.Fatalf("fields not preserved: %#v", list)
	}

	if err := o.MarkFailed(ctx, first.ID, "still down"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	list, _ = o.List(ctx, "team-a")
	if list[0].Attempts != 2 || list[0].LastError != "still down" {
		t.Fatalf("expected attempt bump, got %#v", list[0])
	}

	if err := o.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := o.Delete(ctx, first.ID); !errors.Is(err, ErrMutationNotFound) {
		t.Fatalf("expected ErrMutationNotFound, got %v", err)
	}

	n, err := o.Clear(ctx, "team-a")
	if err != nil || n != 1 {
		t.Fatalf("Clear: n=%d err=%v", n, err)
	}
	rest, _ := o.List(ctx, "team-b")
	if len(rest) != 1 {
		t.Fatalf("expected team-b untouched, got %d", len(rest))
	}
}

func TestOutbox_RecordRequiresRequest(t *testing.T) {
	o := openTestOutbox(t)
	if _, err := o.Record(context.Background(), Mutation{TeamID: "team-a"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestOutbox_ReopenKeepsRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "outbox.sqlite")

	o, err := OpenOutbox(ctx, path)
	if err != nil {
		t.Fatalf("OpenOutbox: %v", err)
	}
	if _, err := o.Record(ctx, Mutation{TeamID: "t", Method: "PUT", Path: "/x"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	o2, err := OpenOutbox(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer o2.Close()
	list, err := o2.List(ctx, "t")
	if err != nil || len(list) != 1 {
		t.Fatalf("expected persisted row, got %d (err=%v)", len(list), err)
	}
}
