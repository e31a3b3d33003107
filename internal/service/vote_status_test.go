package service

import (
	"errors"
	"testing"

	"optionsync/internal/domain"
	apperrors "optionsync/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		status   domain.VoteStatus
		expected error
	}{
		{domain.VoteStatusSuccess, nil},
		{domain.VoteStatusInsufficientFunds, ErrInsufficientFunds},
		{domain.VoteStatusCardNotFound, ErrCardNotFound},
		{domain.VoteStatusCardCannotBeUsed, ErrCardCannotBeUsed},
		{domain.VoteStatusContestCancelled, ErrContestCancelled},
		{domain.VoteStatusContestFinished, ErrContestFinished},
		{domain.VoteStatusContestNotStarted, ErrContestNotStarted},
		{domain.VoteStatusAlreadyVoted, ErrAlreadyVoted},
		{domain.VoteStatusVoteCountTooSmall, ErrVoteCountTooSmall},
		{domain.VoteStatusOptionCreationForbidden, ErrOptionCreationBlocked},
		{domain.VoteStatusUnknown, ErrVoteRejected},
		{domain.VoteStatus("SOMETHING_NEW"), ErrVoteRejected},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			err := StatusError(tt.status)
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.expected))
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeBusinessRule))
		})
	}
}
