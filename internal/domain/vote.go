package domain

import "errors"

// Fulfillment selects how a vote is paid for
type Fulfillment string

const (
	FulfillmentFree   Fulfillment = "free"
	FulfillmentBundle Fulfillment = "bundle"
	FulfillmentCard   Fulfillment = "card"
)

// VoteStatus is the server verdict for a vote or finalize call
type VoteStatus string

const (
	VoteStatusSuccess                 VoteStatus = "SUCCESS"
	VoteStatusInsufficientFunds       VoteStatus = "INSUFFICIENT_FUNDS"
	VoteStatusCardNotFound            VoteStatus = "CARD_NOT_FOUND"
	VoteStatusCardCannotBeUsed        VoteStatus = "CARD_CANNOT_BE_USED"
	VoteStatusContestCancelled        VoteStatus = "MC_CANCELLED"
	VoteStatusContestFinished         VoteStatus = "MC_FINISHED"
	VoteStatusContestNotStarted       VoteStatus = "MC_NOT_STARTED"
	VoteStatusAlreadyVoted            VoteStatus = "ALREADY_VOTED"
	VoteStatusVoteCountTooSmall       VoteStatus = "MC_VOTE_COUNT_TOO_SMALL"
	VoteStatusOptionCreationForbidden VoteStatus = "NOT_ALLOWED_TO_CREATE_NEW_OPTION"
	VoteStatusUnknown                 VoteStatus = "UNKNOWN"
)

// VoteIntent is what the viewer asked for: one existing option or a new one
type VoteIntent struct {
	OptionID      int64       `json:"option_id,omitempty"`
	NewOptionText string      `json:"new_option_text,omitempty"`
	VotesCount    int         `json:"votes_count"`
	Fulfillment   Fulfillment `json:"fulfillment"`
}

var (
	ErrIntentTargetMissing   = errors.New("vote intent needs an option id or new option text")
	ErrIntentTargetAmbiguous = errors.New("vote intent can't carry both an option id and new option text")
	ErrIntentVotesCount      = errors.New("vote intent needs a positive votes count")
	ErrIntentFulfillment     = errors.New("unknown vote fulfillment")
)

// IsNewOption reports whether the intent creates a new option
func (v VoteIntent) IsNewOption() bool {
	return v.OptionID == 0 && v.NewOptionText != ""
}

// Validate checks the intent shape without any network side effect
func (v VoteIntent) Validate() error {
	switch {
	case v.OptionID == 0 && v.NewOptionText == "":
		return ErrIntentTargetMissing
	case v.OptionID != 0 && v.NewOptionText != "":
		return ErrIntentTargetAmbiguous
	case v.VotesCount <= 0:
		return ErrIntentVotesCount
	}
	switch v.Fulfillment {
	case FulfillmentFree, FulfillmentBundle, FulfillmentCard:
		return nil
	default:
		return ErrIntentFulfillment
	}
}

// VoteRequest is the wire payload of a free or bundle vote
type VoteRequest struct {
	PostUUID    string      `json:"post_uuid"`
	OptionID    int64       `json:"option_id,omitempty"`
	OptionText  string      `json:"option_text,omitempty"`
	VotesCount  int         `json:"votes_count"`
	Fulfillment Fulfillment `json:"fulfillment"`
	BundleUnits int         `json:"bundle_units,omitempty"`
}

// VoteResponse is returned by both vote and finalize calls
type VoteResponse struct {
	Status VoteStatus `json:"status"`
	Option *Option    `json:"option,omitempty"`
}

// PaymentBinding is the exact intent a setup intent handle was issued for
type PaymentBinding struct {
	PostUUID   string `json:"post_uuid"`
	OptionID   int64  `json:"option_id,omitempty"`
	OptionText string `json:"option_text,omitempty"`
	VotesCount int    `json:"votes_count"`
	Amount     int64  `json:"amount"`
	Fee        int64  `json:"fee"`
}

// SetupIntent is a payment authorization handle bound to a PaymentBinding
type SetupIntent struct {
	Handle  string         `json:"handle"`
	Binding PaymentBinding `json:"binding"`
}

// TextValidationStatus is the verdict of validateOptionText
type TextValidationStatus string

const (
	TextValid          TextValidationStatus = "OK"
	TextTooShort       TextValidationStatus = "TOO_SHORT"
	TextTooLong        TextValidationStatus = "TOO_LONG"
	TextInappropriate  TextValidationStatus = "INAPPROPRIATE"
	TextAttemptAtLink  TextValidationStatus = "ATTEMPT_AT_REDIRECTION"
	TextDuplicate      TextValidationStatus = "DUPLICATE"
	TextUnknownFailure TextValidationStatus = "UNKNOWN"
)
