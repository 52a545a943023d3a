package cli

import (
	"strconv"
	"time"

	"retroquest-cli/internal/docs"
	"retroquest-cli/internal/model"
	"retroquest-cli/internal/store"
)

// Listings marshal as plain JSON arrays and render as tables for --format table.

type thoughtListing []model.Thought

func (l thoughtListing) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, th := range l {
		rows = append(rows, []string{
			strconv.FormatInt(th.ID, 10),
			string(th.Topic),
			th.Message,
			strconv.Itoa(th.Hearts),
			yesNo(th.Discussed),
		})
	}
	return []string{"ID", "COLUMN", "MESSAGE", "HEARTS", "DISCUSSED"}, rows
}

type actionItemListing []model.ActionItem

func (l actionItemListing) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, a := range l {
		rows = append(rows, []string{
			strconv.FormatInt(a.ID, 10),
			a.Task,
			a.Assignee,
			a.DateCreated.String(),
			yesNo(a.Completed),
			yesNo(a.Archived),
		})
	}
	return []string{"ID", "TASK", "ASSIGNEE", "CREATED", "COMPLETED", "ARCHIVED"}, rows
}

type columnListing []model.Column

func (l columnListing) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		rows = append(rows, []string{strconv.FormatInt(c.ID, 10), string(c.Topic), c.Title})
	}
	return []string{"ID", "TOPIC", "TITLE"}, rows
}

type boardListing []model.Board

func (l boardListing) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, b := range l {
		rows = append(rows, []string{strconv.FormatInt(b.ID, 10), b.DateCreated.String(), strconv.Itoa(len(b.Thoughts))})
	}
	return []string{"ID", "DATE", "THOUGHTS"}, rows
}

type mutationListing []store.Mutation

func (l mutationListing) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, m := range l {
		rows = append(rows, []string{
			m.ID,
			m.Method + " " + m.Path,
			strconv.Itoa(m.Attempts),
			m.UpdatedAt.Format(time.RFC3339),
			m.LastError,
		})
	}
	return []string{"ID", "REQUEST", "ATTEMPTS", "UPDATED", "LAST ERROR"}, rows
}

type topicListing []docs.Topic

func (l topicListing) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, t := range l {
		rows = append(rows, []string{t.Name, t.Title})
	}
	return []string{"TOPIC", "TITLE"}, rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
