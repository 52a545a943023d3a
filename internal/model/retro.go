package model

import (
	"strings"
	"time"
)

type Topic string

const (
	TopicHappy    Topic = "happy"
	TopicConfused Topic = "confused"
	TopicUnhappy  Topic = "unhappy"
	TopicAction   Topic = "action"
)

// ThoughtTopics are the mood columns, in board order.
var ThoughtTopics = []Topic{TopicHappy, TopicConfused, TopicUnhappy}

// BoardTopics is every column shown on the board, in order.
var BoardTopics = []Topic{TopicHappy, TopicConfused, TopicUnhappy, TopicAction}

func ParseTopic(s string) (Topic, bool) {
	switch Topic(strings.ToLower(strings.TrimSpace(s))) {
	case TopicHappy:
		return TopicHappy, true
	case TopicConfused:
		return TopicConfused, true
	case TopicUnhappy, "sad":
		return TopicUnhappy, true
	case TopicAction, "actions", "action-item":
		return TopicAction, true
	default:
		return "", false
	}
}

// DefaultTitle is the column title used before the server reports one.
func (t Topic) DefaultTitle() string {
	switch t {
	case TopicHappy:
		return "Happy"
	case TopicConfused:
		return "Confused"
	case TopicUnhappy:
		return "Sad"
	case TopicAction:
		return "Action Items"
	default:
		return string(t)
	}
}

type Thought struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	Hearts    int    `json:"hearts"`
	Discussed bool   `json:"discussed"`
	Topic     Topic  `json:"topic"`
	ColumnID  int64  `json:"columnId,omitempty"`
	BoardID   *int64 `json:"boardId,omitempty"`
}

type ActionItem struct {
	ID          int64  `json:"id"`
	Task        string `json:"task"`
	Assignee    string `json:"assignee,omitempty"`
	Completed   bool   `json:"completed"`
	DateCreated Date   `json:"dateCreated"`
	Archived    bool   `json:"archived"`
}

type Column struct {
	ID    int64  `json:"id"`
	Topic Topic  `json:"topic"`
	Title string `json:"title"`
}

// Board is an archived retro.
type Board struct {
	ID          int64     `json:"id"`
	TeamID      string    `json:"teamId"`
	DateCreated Date      `json:"dateCreated"`
	Thoughts    []Thought `json:"thoughts"`
}

const dateLayout = "2006-01-02"

// Date is a calendar day encoded as "YYYY-MM-DD".
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func Today() Date { return NewDate(time.Now()) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		// Some servers send full timestamps.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	*d = NewDate(t)
	return nil
}
