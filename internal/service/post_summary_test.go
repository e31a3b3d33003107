package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"optionsync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostSummaryState_Apply(t *testing.T) {
	state := NewPostSummaryState(domain.PostSummary{
		PostUUID:    testPostUUID,
		TotalVotes:  10,
		OptionCount: 3,
		VotePrice:   100,
	}, newFakeAPI(), nil)

	tests := []struct {
		name          string
		update        domain.PostSummary
		applied       bool
		expectedVotes int64
		expectedCount int
	}{
		{
			name:          "other post ignored",
			update:        domain.PostSummary{PostUUID: "another", TotalVotes: 99, OptionCount: 9},
			applied:       false,
			expectedVotes: 10,
			expectedCount: 3,
		},
		{
			name:          "matching post updates counters",
			update:        domain.PostSummary{PostUUID: testPostUUID, TotalVotes: 12, OptionCount: 4, VotePrice: 1},
			applied:       true,
			expectedVotes: 12,
			expectedCount: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.applied, state.Apply(tt.update))
			got := state.Get()
			assert.Equal(t, tt.expectedVotes, got.TotalVotes)
			assert.Equal(t, tt.expectedCount, got.OptionCount)
			assert.Equal(t, int64(100), got.VotePrice)
		})
	}
}

func TestPostSummaryState_RefreshCollapsesConcurrentCalls(t *testing.T) {
	api := newFakeAPI()
	release := make(chan struct{})
	api.getPost = func(ctx context.Context, postUUID string) (*domain.PostSummary, error) {
		<-release
		return &domain.PostSummary{PostUUID: postUUID, TotalVotes: 42, OptionCount: 5}, nil
	}
	state := NewPostSummaryState(domain.PostSummary{PostUUID: testPostUUID}, api, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := state.Refresh(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, int64(42), got.TotalVotes)
		}()
	}
	require.Eventually(t, func() bool { return api.count("GetPost") == 1 }, time.Second, time.Millisecond)
	// let the remaining callers join the in-flight request
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, api.count("GetPost"))
	assert.Equal(t, 5, state.Get().OptionCount)
}

func TestPostSummaryState_RefreshFailureKeepsSummary(t *testing.T) {
	api := newFakeAPI()
	api.getPost = func(ctx context.Context, postUUID string) (*domain.PostSummary, error) {
		return nil, errors.New("unreachable")
	}
	state := NewPostSummaryState(domain.PostSummary{PostUUID: testPostUUID, TotalVotes: 3}, api, nil)

	got, err := state.Refresh(context.Background())

	require.Error(t, err)
	assert.Equal(t, int64(3), got.TotalVotes)
}

func TestPostSummaryState_ConsumeFreeVote(t *testing.T) {
	state := NewPostSummaryState(domain.PostSummary{PostUUID: testPostUUID, FreeVotesRemaining: 1}, newFakeAPI(), nil)

	assert.Equal(t, 0, state.ConsumeFreeVote())
	assert.Equal(t, 0, state.ConsumeFreeVote())
}
