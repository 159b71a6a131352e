package tvdb

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// loginTimeout bounds a shared login, which outlives the caller that
// started it.
const loginTimeout = 30 * time.Second

// session owns the bearer token shared by every search on a provider.
type session struct {
	client *Client
	apiKey string
	logger zerolog.Logger

	mu    sync.RWMutex
	token string
	group singleflight.Group
}

func (s *session) current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ensure returns the current token, logging in first when there is none.
func (s *session) ensure(ctx context.Context) (string, error) {
	if tok := s.current(); tok != "" {
		return tok, nil
	}
	return s.login(ctx, "")
}

// login obtains a fresh token to replace stale. Concurrent callers share
// one login, and a caller whose stale token was already replaced gets the
// replacement without another round trip. Canceling ctx only abandons the
// wait; the shared login carries on for the other callers.
func (s *session) login(ctx context.Context, stale string) (string, error) {
	ch := s.group.DoChan("login", func() (any, error) {
		if tok := s.current(); tok != "" && tok != stale {
			return tok, nil
		}
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loginTimeout)
		defer cancel()
		tok, err := s.client.Login(lctx, s.apiKey)
		if err != nil {
			s.logger.Debug().Err(err).Msg("login failed")
			return "", err
		}
		s.mu.Lock()
		s.token = tok
		s.mu.Unlock()
		s.logger.Debug().Msg("logged in")
		return tok, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
