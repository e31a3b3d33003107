package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVoteIntent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		intent  VoteIntent
		wantErr error
	}{
		{
			name:   "existing option free vote",
			intent: VoteIntent{OptionID: 3, VotesCount: 1, Fulfillment: FulfillmentFree},
		},
		{
			name:   "new option card vote",
			intent: VoteIntent{NewOptionText: "Pineapple", VotesCount: 5, Fulfillment: FulfillmentCard},
		},
		{
			name:    "no target",
			intent:  VoteIntent{VotesCount: 1, Fulfillment: FulfillmentFree},
			wantErr: ErrIntentTargetMissing,
		},
		{
			name:    "both targets",
			intent:  VoteIntent{OptionID: 1, NewOptionText: "x", VotesCount: 1, Fulfillment: FulfillmentFree},
			wantErr: ErrIntentTargetAmbiguous,
		},
		{
			name:    "zero votes",
			intent:  VoteIntent{OptionID: 1, Fulfillment: FulfillmentBundle},
			wantErr: ErrIntentVotesCount,
		},
		{
			name:    "unknown fulfillment",
			intent:  VoteIntent{OptionID: 1, VotesCount: 1, Fulfillment: "crypto"},
			wantErr: ErrIntentFulfillment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intent.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestOption_IsCreatedBy(t *testing.T) {
	own := Option{ID: 1, Creator: &User{ID: "viewer"}}
	other := Option{ID: 2, Creator: &User{ID: "someone"}}
	authors := Option{ID: 3}

	assert.True(t, own.IsCreatedBy("viewer", "author"))
	assert.False(t, other.IsCreatedBy("viewer", "author"))
	assert.False(t, authors.IsCreatedBy("viewer", "author"))
	assert.True(t, authors.IsCreatedBy("author", "author"))
	assert.False(t, authors.IsCreatedBy("", ""))
}

func TestOption_CloneIsDeep(t *testing.T) {
	orig := Option{ID: 1, Creator: &User{ID: "a"}, FirstVoter: &User{ID: "b"}}
	cp := orig.Clone()
	cp.Creator.ID = "changed"
	cp.FirstVoter.ID = "changed"

	assert.Equal(t, "a", orig.Creator.ID)
	assert.Equal(t, "b", orig.FirstVoter.ID)
}
