package usecase

import (
	"context"
	"fmt"

	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
)

// CurrentSession returns a session for login, asking GitHub for the
// authenticated user when login is empty.
func CurrentSession(ctx context.Context, viewer gateway.ViewerFetcher, login string) (domain.Session, error) {
	if login != "" {
		return domain.Session{Login: login}, nil
	}
	session, err := viewer.FetchViewer(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to resolve session user: %w", err)
	}
	if session.Login == "" {
		return domain.Session{}, ErrNoSession
	}
	return session, nil
}
