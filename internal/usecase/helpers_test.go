package usecase

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-dashboard/internal/domain"
)

func newTestLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// changesOf builds one commit change per file list.
func changesOf(files ...[]string) []domain.CommitChange {
	changes := make([]domain.CommitChange, 0, len(files))
	for _, f := range files {
		changes = append(changes, domain.CommitChange{Files: f})
	}
	return changes
}
