package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"retroquest-cli/internal/api"
	"retroquest-cli/internal/model"
)

var errActionTopic = errors.New("action items have their own commands; use `retroquest actions add`")

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// notFoundOr maps a 404 to a notFoundError and returns other errors unchanged.
func notFoundOr(err error, kind, id string) error {
	var herr *api.HTTPError
	if errors.As(err, &herr) && herr.Status == 404 {
		return errNotFound(kind, id)
	}
	return err
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", kind, s)
	}
	return id, nil
}

func parseTopic(s string) (model.Topic, error) {
	t, ok := model.ParseTopic(s)
	if !ok {
		return "", fmt.Errorf("unknown column: %q (expected happy|confused|unhappy|action)", s)
	}
	return t, nil
}

// requireText rejects blank input and input over max runes.
func requireText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &model.FieldError{Field: field, Message: "must not be empty"}
	}
	if n := len([]rune(s)); n > max {
		return "", &model.FieldError{Field: field, Message: fmt.Sprintf("is %d characters; the limit is %d", n, max)}
	}
	return s, nil
}
