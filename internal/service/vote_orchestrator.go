package service

import (
	"context"
	"sync"

	"optionsync/internal/domain"
	"optionsync/internal/repository"
	apperrors "optionsync/pkg/errors"

	"go.uber.org/zap"
)

// VoteResult describes the outcome of a vote that did not fail
type VoteResult struct {
	// Option is the confirmed option state, nil when the server sent none
	Option *domain.Option
	// RedirectURL is set when the viewer was sent off-site to pay
	RedirectURL string
	// AlreadyFinalized is set when a card payment return was processed before
	AlreadyFinalized bool
}

// Redirected reports whether the vote is suspended on an off-site step
func (r *VoteResult) Redirected() bool {
	return r != nil && r.RedirectURL != ""
}

// VoteOrchestratorConfig holds the payment settings of the orchestrator
type VoteOrchestratorConfig struct {
	SignupPayURL  string
	ReturnBaseURL string
	FeeBps        int64
}

// VoteOrchestrator runs a vote intent through exactly one fulfillment path
// and writes the confirmed result back into the store
type VoteOrchestrator struct {
	postUUID  string
	cfg       VoteOrchestratorConfig
	store     *OptionStore
	summary   *PostSummaryState
	validator *OptionTextValidator
	votes     repository.VoteRepository
	bundles   BundleBalanceProvider
	navigator Navigator
	guard     FinalizeGuard
	logger    *zap.Logger

	mu           sync.Mutex
	viewer       domain.Viewer
	freeInFlight bool
	pending      *domain.SetupIntent
}

// VoteOrchestratorDeps groups the collaborators of a VoteOrchestrator
type VoteOrchestratorDeps struct {
	Store     *OptionStore
	Summary   *PostSummaryState
	Validator *OptionTextValidator
	Votes     repository.VoteRepository
	Bundles   BundleBalanceProvider
	Navigator Navigator
	Guard     FinalizeGuard
	Logger    *zap.Logger
}

// NewVoteOrchestrator creates an orchestrator for the post held by deps.Summary
func NewVoteOrchestrator(viewer domain.Viewer, cfg VoteOrchestratorConfig, deps VoteOrchestratorDeps) *VoteOrchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	guard := deps.Guard
	if guard == nil {
		guard = NewMemoryFinalizeGuard()
	}
	return &VoteOrchestrator{
		postUUID:  deps.Summary.Get().PostUUID,
		cfg:       cfg,
		store:     deps.Store,
		summary:   deps.Summary,
		validator: deps.Validator,
		votes:     deps.Votes,
		bundles:   deps.Bundles,
		navigator: deps.Navigator,
		guard:     guard,
		logger:    logger,
		viewer:    viewer,
	}
}

// SetViewer swaps the viewer, e.g. after sign-in
func (o *VoteOrchestrator) SetViewer(viewer domain.Viewer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.viewer = viewer
}

func (o *VoteOrchestrator) currentViewer() domain.Viewer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewer
}

// Vote checks the intent and submits it through its fulfillment path.
// New option texts are validated before any payment step.
func (o *VoteOrchestrator) Vote(ctx context.Context, intent domain.VoteIntent) (*VoteResult, error) {
	if err := intent.Validate(); err != nil {
		return nil, ErrInvalidVoteIntent.WithInternal(err)
	}

	if intent.IsNewOption() {
		if !o.summary.Get().IsSuggestionsAllowed {
			return nil, ErrSuggestionsDisabled
		}
		if o.validator != nil {
			if _, err := o.validator.ValidateNow(ctx, intent.NewOptionText); err != nil {
				return nil, err
			}
		}
	}

	log := o.logger.With(
		zap.String("post_uuid", o.postUUID),
		zap.String("fulfillment", string(intent.Fulfillment)),
		zap.Int64("option_id", intent.OptionID),
		zap.Int("votes_count", intent.VotesCount))

	var (
		result *VoteResult
		err    error
	)
	switch intent.Fulfillment {
	case domain.FulfillmentFree:
		result, err = o.voteFree(ctx, intent)
	case domain.FulfillmentBundle:
		result, err = o.voteBundle(ctx, intent)
	case domain.FulfillmentCard:
		result, err = o.voteCard(ctx, intent)
	}
	if err != nil {
		log.Info("Vote failed", zap.String("error_type", string(apperrors.TypeOf(err))), zap.Error(err))
		return nil, err
	}
	log.Info("Vote processed", zap.Bool("redirected", result.Redirected()))
	return result, nil
}

// FreeVotesRemaining returns the client-held free vote allowance
func (o *VoteOrchestrator) FreeVotesRemaining() int {
	return o.summary.Get().FreeVotesRemaining
}

func (o *VoteOrchestrator) voteFree(ctx context.Context, intent domain.VoteIntent) (*VoteResult, error) {
	o.mu.Lock()
	if o.freeInFlight {
		o.mu.Unlock()
		return nil, ErrFreeVoteInFlight
	}
	if o.summary.Get().FreeVotesRemaining <= 0 {
		o.mu.Unlock()
		return nil, ErrNoFreeVotes
	}
	o.freeInFlight = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.freeInFlight = false
		o.mu.Unlock()
	}()

	option, err := o.submit(ctx, o.voteRequest(intent, 0))
	if err != nil {
		return nil, err
	}
	o.summary.ConsumeFreeVote()
	return o.confirm(option, intent.OptionID, intent.VotesCount), nil
}

func (o *VoteOrchestrator) voteBundle(ctx context.Context, intent domain.VoteIntent) (*VoteResult, error) {
	if o.bundles == nil {
		return nil, ErrInsufficientBundle
	}
	balance, err := o.bundles.Balance(ctx, o.summary.Get().CreatorID)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to read bundle balance", err)
	}
	if balance < intent.VotesCount {
		return nil, ErrInsufficientBundle
	}

	option, err := o.submit(ctx, o.voteRequest(intent, intent.VotesCount))
	if err != nil {
		return nil, err
	}
	return o.confirm(option, intent.OptionID, intent.VotesCount), nil
}

func (o *VoteOrchestrator) voteRequest(intent domain.VoteIntent, bundleUnits int) domain.VoteRequest {
	return domain.VoteRequest{
		PostUUID:    o.postUUID,
		OptionID:    intent.OptionID,
		OptionText:  intent.NewOptionText,
		VotesCount:  intent.VotesCount,
		Fulfillment: intent.Fulfillment,
		BundleUnits: bundleUnits,
	}
}

// submit sends a free or bundle vote and maps the verdict
func (o *VoteOrchestrator) submit(ctx context.Context, req domain.VoteRequest) (*domain.Option, error) {
	resp, err := o.votes.Vote(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := StatusError(resp.Status); err != nil {
		return nil, err
	}
	return resp.Option, nil
}

// confirm writes a confirmed vote into the store. Without an option in the
// response the local copy is bumped instead; a new option without a response
// body arrives later through the realtime channel.
func (o *VoteOrchestrator) confirm(option *domain.Option, optionID int64, votesCount int) *VoteResult {
	var confirmed domain.Option
	switch {
	case option != nil:
		confirmed = option.Clone()
	case optionID != 0:
		current, ok := o.store.Get(optionID)
		if !ok {
			return &VoteResult{}
		}
		confirmed = current
		confirmed.VoteCount += int64(votesCount)
		if !confirmed.IsSupportedByMe {
			confirmed.SupporterCount++
		}
	default:
		return &VoteResult{}
	}

	confirmed.IsSupportedByMe = true
	o.store.UpsertLocal(confirmed)
	stored, ok := o.store.Get(confirmed.ID)
	if !ok {
		return &VoteResult{Option: &confirmed}
	}
	return &VoteResult{Option: &stored}
}
