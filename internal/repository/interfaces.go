package repository

import (
	"context"

	"optionsync/internal/domain"
)

// OptionRepository defines the read and moderation calls of the options API
type OptionRepository interface {
	// GetPost retrieves the post summary
	GetPost(ctx context.Context, postUUID string) (*domain.PostSummary, error)

	// FetchOptions retrieves one page of options; an empty pageToken asks for the first page
	FetchOptions(ctx context.Context, postUUID, pageToken string, limit int) (*domain.OptionsPage, error)

	// DeleteOption deletes an option
	DeleteOption(ctx context.Context, optionID int64) error

	// CanDeleteOption asks whether the viewer may delete an option
	CanDeleteOption(ctx context.Context, optionID int64) (bool, error)

	// ValidateOptionText checks a proposed new option text
	ValidateOptionText(ctx context.Context, postUUID, text string) (domain.TextValidationStatus, error)
}

// VoteRepository defines the vote and payment calls of the options API
type VoteRepository interface {
	// Vote submits a free or bundle vote
	Vote(ctx context.Context, req domain.VoteRequest) (*domain.VoteResponse, error)

	// CreateSetupIntent obtains a payment authorization handle bound to binding
	CreateSetupIntent(ctx context.Context, binding domain.PaymentBinding) (*domain.SetupIntent, error)

	// FinalizeCardVote charges the setup intent and records the vote
	FinalizeCardVote(ctx context.Context, handle string) (*domain.VoteResponse, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Options OptionRepository
	Votes   VoteRepository
}
