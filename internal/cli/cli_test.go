package cli

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"retroquest-cli/internal/api/apitest"
	"retroquest-cli/internal/store"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// loggedIn isolates config.json and stores a valid token for a fresh apitest team.
func loggedIn(t *testing.T) (*apitest.Server, string) {
	t.Helper()
	t.Setenv("RETROQUEST_CONFIG_DIR", t.TempDir())
	t.Setenv("RETROQUEST_SERVER", "")
	t.Setenv("RETROQUEST_TEAM", "")
	t.Setenv("RETROQUEST_FORMAT", "")

	srv := apitest.New(t)
	teamID := srv.AddTeam("Team Awesome", "password1")
	if err := store.SaveConfig(&store.Config{Server: srv.URL, Team: teamID, Token: srv.Token(teamID)}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	return srv, teamID
}

// mustData runs a command that must succeed and returns the envelope's data value.
func mustData(t *testing.T, args ...string) any {
	t.Helper()
	stdout, stderr, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("command failed: retroquest %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, string(stderr), string(stdout))
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, string(stdout), args)
	}
	data, ok := env["data"]
	if !ok {
		t.Fatalf("expected JSON envelope to contain data key; got: %v\nstdout:\n%s", env, string(stdout))
	}
	return data
}

func mustObject(t *testing.T, args ...string) map[string]any {
	t.Helper()
	m, ok := mustData(t, args...).(map[string]any)
	if !ok {
		t.Fatalf("expected object data for %v", args)
	}
	return m
}

func mustList(t *testing.T, args ...string) []any {
	t.Helper()
	l, ok := mustData(t, args...).([]any)
	if !ok {
		t.Fatalf("expected list data for %v", args)
	}
	return l
}

func idOf(t *testing.T, m map[string]any) string {
	t.Helper()
	id, ok := m["id"].(float64)
	if !ok {
		t.Fatalf("expected numeric id in %v", m)
	}
	return strconv.FormatInt(int64(id), 10)
}
