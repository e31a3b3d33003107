package service

import (
	"testing"

	"optionsync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(options []domain.Option) []int64 {
	out := make([]int64, len(options))
	for i, opt := range options {
		out[i] = opt.ID
	}
	return out
}

func highestIDs(options []domain.Option) []int64 {
	var out []int64
	for _, opt := range options {
		if opt.IsHighest {
			out = append(out, opt.ID)
		}
	}
	return out
}

func TestRank(t *testing.T) {
	viewer := &domain.User{ID: "viewer"}
	other := &domain.User{ID: "other"}
	rc := domain.RankContext{ViewerID: "viewer", PostAuthorID: "author"}

	tests := []struct {
		name          string
		rc            domain.RankContext
		input         []domain.Option
		expectedOrder []int64
		expectedTop   int64
	}{
		{
			name: "viewer option before crowd favourite which keeps the marker",
			rc:   rc,
			input: []domain.Option{
				{ID: 1, VoteCount: 10, Creator: viewer},
				{ID: 2, VoteCount: 50, Creator: other},
			},
			expectedOrder: []int64{1, 2},
			expectedTop:   2,
		},
		{
			name: "viewer-owned highest is pinned first",
			rc:   rc,
			input: []domain.Option{
				{ID: 1, VoteCount: 5, Creator: other, IsSupportedByMe: true},
				{ID: 2, VoteCount: 90, Creator: viewer},
				{ID: 3, VoteCount: 40, Creator: viewer},
			},
			expectedOrder: []int64{2, 3, 1},
			expectedTop:   2,
		},
		{
			name: "partitions mine, supported, subscriber, rest",
			rc:   rc,
			input: []domain.Option{
				{ID: 1, VoteCount: 100, Creator: other},
				{ID: 2, VoteCount: 1, Creator: other, IsCreatedBySubscriber: true},
				{ID: 3, VoteCount: 2, Creator: other, IsSupportedByMe: true},
				{ID: 4, VoteCount: 3, Creator: viewer},
				{ID: 5, VoteCount: 7, Creator: other, IsCreatedBySubscriber: true},
				{ID: 6, VoteCount: 60, Creator: other},
			},
			expectedOrder: []int64{4, 3, 5, 2, 1, 6},
			expectedTop:   1,
		},
		{
			name: "option in several partitions appears once at its first slot",
			rc:   rc,
			input: []domain.Option{
				{ID: 1, VoteCount: 3, Creator: viewer, IsSupportedByMe: true, IsCreatedBySubscriber: true},
				{ID: 2, VoteCount: 9, Creator: other, IsSupportedByMe: true},
			},
			expectedOrder: []int64{1, 2},
			expectedTop:   2,
		},
		{
			name: "tie on vote count goes to the lowest id",
			rc:   domain.RankContext{},
			input: []domain.Option{
				{ID: 9, VoteCount: 20},
				{ID: 4, VoteCount: 20},
				{ID: 7, VoteCount: 1},
			},
			expectedOrder: []int64{4, 9, 7},
			expectedTop:   4,
		},
		{
			name: "author owns options without creator",
			rc:   domain.RankContext{ViewerID: "author", PostAuthorID: "author"},
			input: []domain.Option{
				{ID: 1, VoteCount: 30, Creator: other},
				{ID: 2, VoteCount: 2},
			},
			expectedOrder: []int64{2, 1},
			expectedTop:   1,
		},
		{
			name: "anonymous viewer gets plain vote order",
			rc:   domain.RankContext{PostAuthorID: "author"},
			input: []domain.Option{
				{ID: 1, VoteCount: 1},
				{ID: 2, VoteCount: 3, Creator: other},
				{ID: 3, VoteCount: 2},
			},
			expectedOrder: []int64{2, 3, 1},
			expectedTop:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := Rank(tt.input, tt.rc)

			assert.Equal(t, tt.expectedOrder, ids(ranked))
			assert.Equal(t, []int64{tt.expectedTop}, highestIDs(ranked))
		})
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	input := []domain.Option{
		{ID: 1, VoteCount: 1, IsHighest: true},
		{ID: 2, VoteCount: 5},
	}

	ranked := Rank(input, domain.RankContext{})

	require.Len(t, ranked, 2)
	assert.True(t, input[0].IsHighest)
	assert.False(t, input[1].IsHighest)
	assert.Equal(t, int64(1), input[0].ID)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil, domain.RankContext{}))
}

func TestRank_IsDeterministic(t *testing.T) {
	input := []domain.Option{
		{ID: 3, VoteCount: 4},
		{ID: 1, VoteCount: 4},
		{ID: 2, VoteCount: 4, IsCreatedBySubscriber: true},
	}

	first := Rank(input, domain.RankContext{})
	for i := 0; i < 10; i++ {
		assert.Equal(t, ids(first), ids(Rank(first, domain.RankContext{})))
	}
}
