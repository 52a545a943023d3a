package model

import (
	"errors"
	"strings"
	"testing"
)

func TestParseActionItemInput_SingleAssignee(t *testing.T) {
	task, assignee := ParseActionItemInput("Increase Code Coverage @Bob")
	if task != "Increase Code Coverage" {
		t.Fatalf("expected task %q, got %q", "Increase Code Coverage", task)
	}
	if assignee != "Bob" {
		t.Fatalf("expected assignee Bob, got %q", assignee)
	}
}

func TestParseActionItemInput_MultipleAndNone(t *testing.T) {
	task, assignee := ParseActionItemInput("  Pair on CI @Bob   @Alice ")
	if task != "Pair on CI" || assignee != "Bob, Alice" {
		t.Fatalf("unexpected parse: task=%q assignee=%q", task, assignee)
	}

	task, assignee = ParseActionItemInput("Email @ the team")
	if task != "Email @ the team" || assignee != "" {
		t.Fatalf("expected a lone @ to stay in the task, got task=%q assignee=%q", task, assignee)
	}
}

func TestParseActionItemInput_TruncatesAssignee(t *testing.T) {
	long := strings.Repeat("x", MaxAssigneeLength+20)
	_, assignee := ParseActionItemInput("Task @" + long)
	if len(assignee) != MaxAssigneeLength {
		t.Fatalf("expected assignee truncated to %d, got %d", MaxAssigneeLength, len(assignee))
	}
}

func TestValidateTeamName(t *testing.T) {
	var fe *FieldError
	if err := ValidateTeamName("  "); !errors.As(err, &fe) || fe.Field != "name" {
		t.Fatalf("expected name field error for blank, got %v", err)
	}
	if err := ValidateTeamName("team!"); err == nil {
		t.Fatalf("expected special characters to be rejected")
	}
	if err := ValidateTeamName("Team Awesome 2"); err != nil {
		t.Fatalf("expected valid name, got %v", err)
	}
	if err := ValidatePassword(""); !errors.As(err, &fe) || fe.Field != "password" {
		t.Fatalf("expected password field error, got %v", err)
	}
}

func TestTeamID_RoundTrip(t *testing.T) {
	if got := TeamID("  Team   Awesome "); got != "team-awesome" {
		t.Fatalf("expected team-awesome, got %q", got)
	}
	if got := TeamNameFromID("team-awesome"); got != "team awesome" {
		t.Fatalf("expected %q, got %q", "team awesome", got)
	}
}
