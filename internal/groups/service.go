// Package groups lists the WhatsApp groups visible to the instance. The
// provider is observed to hang silently and rate-limit aggressively under
// load, so the fetch carries its own ceiling and bounded retries: stop at
// first success, give up after maxAttempts.
package groups

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ybarkan/wagate/internal/events"
	"github.com/ybarkan/wagate/internal/greenapi"
	"github.com/ybarkan/wagate/internal/logging"
)

const (
	// fetchCeiling bounds the whole fetch including retries, distinct
	// from the transport timeout. The provider can hang without failing.
	fetchCeiling = 30 * time.Second

	maxAttempts = 3
)

// newBackOff is swapped in tests to avoid real sleeps.
var newBackOff func() backoff.BackOff = func() backoff.BackOff {
	return backoff.NewExponentialBackOff()
}

// ChatLister is the provider surface this service needs.
type ChatLister interface {
	GetChats(ctx context.Context) ([]greenapi.Chat, error)
}

// Service fetches and filters the group list.
type Service struct {
	client ChatLister
	log    *logging.Logger
}

// New creates a group listing service.
func New(client ChatLister, log *logging.Logger) *Service {
	return &Service{client: client, log: log.Sub("groups")}
}

// Fetch lists all groups, retrying rate-limited attempts with backoff.
// A non-rate-limit error stops immediately: retrying a broken request
// does not help and burns window budget.
func (s *Service) Fetch(ctx context.Context) ([]events.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchCeiling)
	defer cancel()

	var chats []greenapi.Chat

	bo := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxAttempts-1), ctx)
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		s.log.Debug().Int("attempt", attempt).Int("max", maxAttempts).Msg("fetching chats")

		var err error
		chats, err = s.client.GetChats(ctx)
		if err == nil {
			return nil
		}
		if greenapi.IsRateLimit(err) {
			s.log.Warn().Int("attempt", attempt).Msg("rate limited fetching chats, will retry")
			return err
		}
		return backoff.Permanent(err)
	}, bo)
	if err != nil {
		return nil, err
	}

	groups := Filter(chats)
	s.log.Info().Int("groups", len(groups)).Int("chats", len(chats)).Msg("group list fetched")
	return groups, nil
}

// Filter keeps group chats (ids containing "@g.us") and resolves display
// names: name, then subject, then a placeholder.
func Filter(chats []greenapi.Chat) []events.Group {
	groups := make([]events.Group, 0, len(chats))
	for _, chat := range chats {
		if !strings.Contains(chat.ID, "@g.us") {
			continue
		}
		name := chat.Name
		if name == "" {
			name = chat.Subject
		}
		if name == "" {
			name = "Unknown Group"
		}
		groups = append(groups, events.Group{ID: chat.ID, Name: name})
	}
	return groups
}
