// Package store keeps the client's local state under ~/.retroquest: config.json, a
// per-team tui_state.json and the SQLite outbox of failed mutations.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Store is a per-team directory (~/.retroquest/teams/<team>).
type Store struct {
	Dir string
}

func NormalizeTeamID(team string) (string, error) {
	team = strings.TrimSpace(team)
	if team == "" {
		return "", errors.New("team is empty")
	}
	if strings.ContainsAny(team, `/\`) || team == "." || team == ".." {
		return "", errors.New("team id must not contain path separators")
	}
	return team, nil
}

func TeamDir(team string) (string, error) {
	team, err := NormalizeTeamID(team)
	if err != nil {
		return "", err
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "teams", team), nil
}

func ForTeam(team string) (Store, error) {
	dir, err := TeamDir(team)
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: dir}, nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}
