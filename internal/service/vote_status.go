package service

import (
	"net/http"

	"optionsync/internal/domain"
	apperrors "optionsync/pkg/errors"
)

// Vote rejections reported by the server. Returned errors match these with
// errors.Is.
var (
	ErrInsufficientFunds     = apperrors.NewBusinessRuleError("INSUFFICIENT_FUNDS", "Not enough funds on the card")
	ErrCardNotFound          = apperrors.NewBusinessRuleError("CARD_NOT_FOUND", "No payment card on file")
	ErrCardCannotBeUsed      = apperrors.NewBusinessRuleError("CARD_CANNOT_BE_USED", "This card can't be used for the payment")
	ErrContestCancelled      = apperrors.NewBusinessRuleError("CONTEST_CANCELLED", "The decision was cancelled")
	ErrContestFinished       = apperrors.NewBusinessRuleError("CONTEST_FINISHED", "Voting has finished")
	ErrContestNotStarted     = apperrors.NewBusinessRuleError("CONTEST_NOT_STARTED", "Voting hasn't started yet")
	ErrAlreadyVoted          = apperrors.NewBusinessRuleError("ALREADY_VOTED", "You already voted")
	ErrVoteCountTooSmall     = apperrors.NewBusinessRuleError("VOTE_COUNT_TOO_SMALL", "Vote count is below the minimum")
	ErrOptionCreationBlocked = apperrors.NewBusinessRuleError("OPTION_CREATION_NOT_ALLOWED", "New options can't be added to this decision")
	ErrVoteRejected          = apperrors.NewBusinessRuleError("VOTE_REJECTED", "The vote couldn't be recorded")
)

// Client-side preconditions; no request is made when these are returned.
var (
	ErrNoFreeVotes           = &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Code: "NO_FREE_VOTES", Message: "No free votes left", StatusCode: http.StatusBadRequest}
	ErrFreeVoteInFlight      = &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Code: "FREE_VOTE_IN_FLIGHT", Message: "A free vote is already being sent", StatusCode: http.StatusBadRequest}
	ErrInsufficientBundle    = &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Code: "INSUFFICIENT_BUNDLE", Message: "Not enough bundle votes for this creator", StatusCode: http.StatusBadRequest}
	ErrSuggestionsDisabled   = &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Code: "SUGGESTIONS_DISABLED", Message: "This decision doesn't accept new options", StatusCode: http.StatusBadRequest}
	ErrInvalidVoteIntent     = &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Code: "INVALID_VOTE_INTENT", Message: "Vote request is incomplete", StatusCode: http.StatusBadRequest}
	ErrNoPendingCardPayment  = &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Code: "NO_PENDING_CARD_PAYMENT", Message: "No card payment to resume", StatusCode: http.StatusBadRequest}
	ErrCardPaymentMismatched = &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Code: "CARD_PAYMENT_OTHER_POST", Message: "The payment belongs to another decision", StatusCode: http.StatusBadRequest}
	ErrCardPaymentInFlight   = &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Code: "CARD_PAYMENT_IN_FLIGHT", Message: "This card payment is already being processed", StatusCode: http.StatusBadRequest}
)

var statusErrors = map[domain.VoteStatus]*apperrors.AppError{
	domain.VoteStatusInsufficientFunds:       ErrInsufficientFunds,
	domain.VoteStatusCardNotFound:            ErrCardNotFound,
	domain.VoteStatusCardCannotBeUsed:        ErrCardCannotBeUsed,
	domain.VoteStatusContestCancelled:        ErrContestCancelled,
	domain.VoteStatusContestFinished:         ErrContestFinished,
	domain.VoteStatusContestNotStarted:       ErrContestNotStarted,
	domain.VoteStatusAlreadyVoted:            ErrAlreadyVoted,
	domain.VoteStatusVoteCountTooSmall:       ErrVoteCountTooSmall,
	domain.VoteStatusOptionCreationForbidden: ErrOptionCreationBlocked,
}

// StatusError maps a vote status to its error; SUCCESS maps to nil and
// anything unrecognized to ErrVoteRejected.
func StatusError(status domain.VoteStatus) error {
	if status == domain.VoteStatusSuccess {
		return nil
	}
	if err, ok := statusErrors[status]; ok {
		return err
	}
	return ErrVoteRejected
}
