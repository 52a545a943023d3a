package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"retroquest-cli/internal/cli"
	"retroquest-cli/internal/model"
)

func isThoughtTopic(s string) bool {
	t, ok := model.ParseTopic(s)
	return ok && t != model.TopicAction
}

func rewriteTopicShortcutArgs(argv []string) []string {
	// Convenience: `retroquest happy "Pairing went great"` works like
	// `retroquest thoughts add happy "Pairing went great"`.
	//
	// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before
	// parsing. Persistent flags may come first, so look for the first positional token.
	if len(argv) < 3 {
		return argv
	}

	valueFlags := map[string]bool{
		"--server":    true,
		"--team":      true,
		"--format":    true,
		"--log-level": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}

		// First positional token; it needs a message after it.
		if isThoughtTopic(a) && i+1 < len(argv) {
			out := make([]string, 0, len(argv)+2)
			out = append(out, argv[:i]...)
			out = append(out, "thoughts", "add")
			out = append(out, argv[i:]...)
			return out
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteTopicShortcutArgs(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	cmd.SetArgs(os.Args[1:])
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
