package model

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Text limits enforced by the editors. Thresholds are how close to the limit the
// remaining-character countdown starts warning.
const (
	MaxMessageLength      = 255
	MaxAssigneeLength     = 50
	MaxColumnTitleLength  = 16
	MessageWarnThreshold  = 50
	AssigneeWarnThreshold = 10
	TitleWarnThreshold    = 5
)

// ParseActionItemInput splits "task @assignee" input. Every "@name" token becomes an
// assignee (joined with ", "); the remaining words form the task.
//
//	"Increase Code Coverage @Bob"      => task "Increase Code Coverage", assignee "Bob"
//	"Pair on CI @Bob @Alice"           => task "Pair on CI", assignee "Bob, Alice"
func ParseActionItemInput(s string) (task string, assignee string) {
	var words, assignees []string
	for _, f := range strings.Fields(s) {
		if strings.HasPrefix(f, "@") && len(f) > 1 {
			assignees = append(assignees, strings.TrimPrefix(f, "@"))
			continue
		}
		words = append(words, f)
	}
	task = strings.Join(words, " ")
	assignee = TruncateRunes(strings.Join(assignees, ", "), MaxAssigneeLength)
	return task, assignee
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// FieldError is a validation failure tied to a single form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var teamNamePattern = regexp.MustCompile(`^[A-Za-z0-9 ]+$`)

// ValidateTeamName reports a field error for blank names or names with special characters.
func ValidateTeamName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &FieldError{Field: "name", Message: "Please enter a team name."}
	}
	if !teamNamePattern.MatchString(name) {
		return &FieldError{Field: "name", Message: "Names must not contain special characters."}
	}
	return nil
}

func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return &FieldError{Field: "password", Message: "Please enter a password."}
	}
	return nil
}

// TeamID converts a display name into the id used in API paths ("Team Awesome" => "team-awesome").
func TeamID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// TeamNameFromID is the best-effort inverse of TeamID, used to pre-fill the login form.
func TeamNameFromID(id string) string {
	return strings.Join(strings.Split(strings.TrimSpace(id), "-"), " ")
}
