package cli

import (
	"strings"
	"testing"

	"retroquest-cli/internal/model"
)

func TestThoughtsLifecycle(t *testing.T) {
	srv, teamID := loggedIn(t)

	a := mustObject(t, "thoughts", "add", "happy", "Pairing", "went", "great")
	if a["message"] != "Pairing went great" || a["topic"] != "happy" {
		t.Fatalf("unexpected thought: %v", a)
	}
	b := mustObject(t, "thoughts", "add", "sad", "Red build")
	if b["topic"] != "unhappy" {
		t.Fatalf("expected sad to map to unhappy, got %v", b["topic"])
	}
	aID, bID := idOf(t, a), idOf(t, b)

	mustObject(t, "thoughts", "heart", bID)
	mustObject(t, "thoughts", "edit", aID, "Pairing went really well")
	d := mustObject(t, "thoughts", "discuss", aID)
	if d["discussed"] != true {
		t.Fatalf("expected discussed, got %v", d)
	}

	list := mustList(t, "thoughts", "list", "--topic", "unhappy")
	if len(list) != 1 || list[0].(map[string]any)["hearts"] != float64(1) {
		t.Fatalf("unexpected unhappy list: %v", list)
	}

	mustObject(t, "thoughts", "delete", bID)
	got := srv.Thoughts(teamID)
	if len(got) != 1 || got[0].Message != "Pairing went really well" || !got[0].Discussed {
		t.Fatalf("unexpected server thoughts: %+v", got)
	}
}

func TestThoughtsList_ActiveBeforeDiscussed(t *testing.T) {
	srv, teamID := loggedIn(t)
	first := srv.SeedThought(teamID, model.Thought{Topic: model.TopicHappy, Message: "one", Discussed: true})
	second := srv.SeedThought(teamID, model.Thought{Topic: model.TopicHappy, Message: "two"})
	third := srv.SeedThought(teamID, model.Thought{Topic: model.TopicHappy, Message: "three", Hearts: 3})

	var ids []int64
	for _, it := range mustList(t, "thoughts", "list") {
		ids = append(ids, int64(it.(map[string]any)["id"].(float64)))
	}
	if len(ids) != 3 || ids[0] != second.ID || ids[1] != third.ID || ids[2] != first.ID {
		t.Fatalf("expected [%d %d %d], got %v", second.ID, third.ID, first.ID, ids)
	}

	ids = nil
	for _, it := range mustList(t, "thoughts", "list", "--by-votes") {
		ids = append(ids, int64(it.(map[string]any)["id"].(float64)))
	}
	if ids[0] != third.ID || ids[2] != first.ID {
		t.Fatalf("expected hearts order with discussed last, got %v", ids)
	}
}

func TestThoughtsAdd_Validation(t *testing.T) {
	srv, _ := loggedIn(t)

	cases := [][]string{
		{"thoughts", "add", "happy", "   "},
		{"thoughts", "add", "happy", strings.Repeat("x", model.MaxMessageLength+1)},
		{"thoughts", "add", "grumpy", "hi"},
		{"thoughts", "add", "action", "hi"},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, args); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}
	for _, r := range srv.Requests() {
		if strings.HasPrefix(r, "POST") {
			t.Fatalf("expected no create request, got %v", srv.Requests())
		}
	}
}

func TestThoughtsDelete_UnknownIsNotFound(t *testing.T) {
	loggedIn(t)

	_, _, err := runCLI(t, []string{"thoughts", "delete", "999"})
	if _, ok := err.(notFoundError); !ok {
		t.Fatalf("expected notFoundError, got %T %v", err, err)
	}
}

func TestActionsLifecycle(t *testing.T) {
	srv, teamID := loggedIn(t)

	a := mustObject(t, "actions", "add", "Increase Code Coverage @Bob")
	if a["task"] != "Increase Code Coverage" || a["assignee"] != "Bob" {
		t.Fatalf("unexpected action item: %v", a)
	}
	id := idOf(t, a)

	o := mustObject(t, "actions", "add", "Update the wiki", "--assignee", "Carol")
	if o["assignee"] != "Carol" {
		t.Fatalf("expected --assignee to win, got %v", o["assignee"])
	}

	mustObject(t, "actions", "assign", id, "Bob,", "Alice")
	mustObject(t, "actions", "edit", id, "Increase coverage to 80%")
	c := mustObject(t, "actions", "complete", id)
	if c["completed"] != true {
		t.Fatalf("expected completed, got %v", c)
	}

	list := mustList(t, "actions", "list")
	if len(list) != 2 || list[1].(map[string]any)["completed"] != true {
		t.Fatalf("expected completed item last, got %v", list)
	}

	mustObject(t, "actions", "archive", id)
	if got := mustList(t, "actions", "list"); len(got) != 1 {
		t.Fatalf("expected archived item to leave the board, got %v", got)
	}
	if got := mustList(t, "actions", "list", "--archived"); len(got) != 1 {
		t.Fatalf("expected one archived item, got %v", got)
	}

	mustObject(t, "actions", "delete", idOf(t, o))
	items := srv.ActionItems(teamID)
	if len(items) != 1 || items[0].Task != "Increase coverage to 80%" || items[0].Assignee != "Bob, Alice" {
		t.Fatalf("unexpected server items: %+v", items)
	}
}

func TestColumnsRename(t *testing.T) {
	loggedIn(t)

	c := mustObject(t, "columns", "rename", "happy", "Yay!")
	if c["title"] != "Yay!" {
		t.Fatalf("unexpected column: %v", c)
	}
	for _, col := range mustList(t, "columns", "list") {
		m := col.(map[string]any)
		if m["topic"] == "happy" && m["title"] != "Yay!" {
			t.Fatalf("expected renamed column, got %v", m)
		}
	}

	if _, _, err := runCLI(t, []string{"columns", "rename", "happy", strings.Repeat("x", model.MaxColumnTitleLength+1)}); err == nil {
		t.Fatalf("expected over-long title to fail")
	}
	if _, _, err := runCLI(t, []string{"columns", "rename", "nope", "x"}); err == nil {
		t.Fatalf("expected unknown column to fail")
	}
}

func TestRetroEndAndArchives(t *testing.T) {
	srv, teamID := loggedIn(t)
	mustObject(t, "thoughts", "add", "happy", "Shipped it")

	if _, _, err := runCLI(t, []string{"retro", "end"}); err == nil {
		t.Fatalf("expected retro end without --yes to fail")
	}
	if len(srv.Boards(teamID)) != 0 {
		t.Fatalf("expected no board before confirmation")
	}

	mustObject(t, "retro", "end", "--yes")
	if got := mustList(t, "thoughts", "list"); len(got) != 0 {
		t.Fatalf("expected empty board after ending, got %v", got)
	}

	boards := mustList(t, "archives", "list")
	if len(boards) != 1 {
		t.Fatalf("expected one archived board, got %v", boards)
	}
	id := idOf(t, boards[0].(map[string]any))

	b := mustObject(t, "archives", "show", id)
	thoughts, _ := b["thoughts"].([]any)
	if len(thoughts) != 1 {
		t.Fatalf("expected archived thought, got %v", b)
	}

	stdout, _, err := runCLI(t, []string{"archives", "show", id, "--markdown"})
	if err != nil || !strings.Contains(string(stdout), "Shipped") {
		t.Fatalf("expected rendered board, err=%v out=%q", err, string(stdout))
	}

	mustObject(t, "archives", "delete", id)
	if len(srv.Boards(teamID)) != 0 {
		t.Fatalf("expected board deleted")
	}
	if _, _, err := runCLI(t, []string{"archives", "show", id}); err == nil {
		t.Fatalf("expected deleted board to be not found")
	}
}

func TestTableFormat(t *testing.T) {
	srv, teamID := loggedIn(t)
	srv.SeedThought(teamID, model.Thought{Topic: model.TopicConfused, Message: "Why is CI slow?"})

	stdout, stderr, err := runCLI(t, []string{"--format", "table", "thoughts", "list"})
	if err != nil {
		t.Fatalf("thoughts list: %v\n%s", err, stderr)
	}
	for _, want := range []string{"MESSAGE", "Why is CI slow?", "confused"} {
		if !strings.Contains(string(stdout), want) {
			t.Fatalf("expected %q in table output:\n%s", want, stdout)
		}
	}
}

func TestDocs(t *testing.T) {
	t.Setenv("RETROQUEST_CONFIG_DIR", t.TempDir())

	topics := mustList(t, "docs")
	if len(topics) == 0 {
		t.Fatalf("expected topics")
	}
	d := mustObject(t, "docs", "keys")
	if md, _ := d["markdown"].(string); !strings.Contains(md, "@") {
		t.Fatalf("expected keys markdown, got %q", md)
	}
	stdout, _, err := runCLI(t, []string{"docs", "keys", "--raw"})
	if err != nil || !strings.HasPrefix(strings.TrimSpace(string(stdout)), "#") {
		t.Fatalf("expected raw markdown, err=%v out=%q", err, stdout)
	}
	if _, _, err := runCLI(t, []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected unknown topic to fail")
	}
}
