package service

import (
	"context"
	"sync"

	"optionsync/internal/domain"
	"optionsync/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// PostSummaryState holds the summary of the mounted post
type PostSummaryState struct {
	postUUID string
	repo     repository.OptionRepository
	logger   *zap.Logger
	group    singleflight.Group

	mu      sync.RWMutex
	summary domain.PostSummary
}

// NewPostSummaryState creates the state seeded with initial
func NewPostSummaryState(initial domain.PostSummary, repo repository.OptionRepository, logger *zap.Logger) *PostSummaryState {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostSummaryState{
		postUUID: initial.PostUUID,
		repo:     repo,
		logger:   logger,
		summary:  initial,
	}
}

// Get returns a copy of the current summary
func (s *PostSummaryState) Get() domain.PostSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Set replaces the summary; a summary of another post is ignored
func (s *PostSummaryState) Set(summary domain.PostSummary) bool {
	if summary.PostUUID != s.postUUID {
		return false
	}
	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
	return true
}

// Apply takes the live counters of a pushed post update. Updates for other
// posts are ignored.
func (s *PostSummaryState) Apply(post domain.PostSummary) bool {
	if post.PostUUID != s.postUUID {
		s.logger.Debug("Ignoring post update for another post",
			zap.String("post_uuid", s.postUUID),
			zap.String("event_post_uuid", post.PostUUID))
		return false
	}
	s.mu.Lock()
	s.summary.TotalVotes = post.TotalVotes
	s.summary.OptionCount = post.OptionCount
	s.mu.Unlock()
	return true
}

// ConsumeFreeVote decrements the free vote allowance after a confirmed vote
func (s *PostSummaryState) ConsumeFreeVote() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary.FreeVotesRemaining > 0 {
		s.summary.FreeVotesRemaining--
	}
	return s.summary.FreeVotesRemaining
}

// Refresh re-fetches the summary. Concurrent calls share one request.
func (s *PostSummaryState) Refresh(ctx context.Context) (domain.PostSummary, error) {
	v, err, shared := s.group.Do(s.postUUID, func() (interface{}, error) {
		return s.repo.GetPost(ctx, s.postUUID)
	})
	if err != nil {
		s.logger.Warn("Failed to refresh post summary",
			zap.String("post_uuid", s.postUUID),
			zap.Error(err))
		return s.Get(), err
	}

	fresh := v.(*domain.PostSummary)
	s.Set(*fresh)
	s.logger.Debug("Post summary refreshed",
		zap.String("post_uuid", s.postUUID),
		zap.Int64("total_votes", fresh.TotalVotes),
		zap.Int("option_count", fresh.OptionCount),
		zap.Bool("shared", shared))
	return s.Get(), nil
}
