package cli

import (
	"os"
	"path/filepath"
	"testing"

	"retroquest-cli/internal/model"
)

const csvHeader = "Column,Message,Likes,Completed,Assigned To\r\n"

func TestCSVDownload_EmptyBoardIsHeaderOnly(t *testing.T) {
	loggedIn(t)
	out := filepath.Join(t.TempDir(), "board.csv")

	data := mustObject(t, "csv", "download", "--out", out)
	if data["path"] != out {
		t.Fatalf("expected path %q, got %v", out, data["path"])
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if string(b) != csvHeader {
		t.Fatalf("expected exactly the header row, got %q", string(b))
	}
	if data["bytes"] != float64(len(csvHeader)) {
		t.Fatalf("expected bytes=%d, got %v", len(csvHeader), data["bytes"])
	}
}

func TestCSVDownload_StdoutIsVerbatim(t *testing.T) {
	srv, teamID := loggedIn(t)
	srv.SeedThought(teamID, model.Thought{Topic: model.TopicHappy, Message: "Pairing, all week", Hearts: 2})

	stdout, stderr, err := runCLI(t, []string{"csv", "download", "--out", "-"})
	if err != nil {
		t.Fatalf("csv download: %v\nstderr:\n%s", err, stderr)
	}
	want := csvHeader + "Happy,\"Pairing, all week\",2,no,\r\n"
	if string(stdout) != want {
		t.Fatalf("expected server bytes unchanged\nwant %q\ngot  %q", want, string(stdout))
	}
}

func TestCSVFileName(t *testing.T) {
	now := mustParseDay(t, "2026-03-14")
	if got := csvFileName("team-awesome", now); got != "retroquest-team-awesome-2026-03-14.csv" {
		t.Fatalf("unexpected file name %q", got)
	}
}
