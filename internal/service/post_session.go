package service

import (
	"context"
	"sync"
	"time"

	"optionsync/internal/domain"
	"optionsync/internal/realtime"
	"optionsync/internal/repository"
	apperrors "optionsync/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostSessionConfig tunes a mounted post view
type PostSessionConfig struct {
	PageSize           int
	ValidationDebounce time.Duration
	Payment            VoteOrchestratorConfig
}

// PostSessionDeps are the shared collaborators of every session
type PostSessionDeps struct {
	Repos     repository.Repositories
	Hub       *realtime.Hub
	Guard     FinalizeGuard
	Bundles   BundleBalanceProvider
	Navigator Navigator
	Logger    *zap.Logger
}

// PostSession is the mounted view of one post: its option list, pagination,
// permissions, validation, voting and realtime feed
type PostSession struct {
	postUUID     string
	repos        repository.Repositories
	store        *OptionStore
	summary      *PostSummaryState
	pager        *PaginationController
	gate         *PermissionGate
	validator    *OptionTextValidator
	orchestrator *VoteOrchestrator
	bridge       *RealtimeBridge
	logger       *zap.Logger
	closeOnce    sync.Once
}

// OpenPostSession loads the summary of postUUID and joins its realtime
// channel. A realtime failure is logged and the session works without it.
func OpenPostSession(ctx context.Context, postUUID string, viewer domain.Viewer, cfg PostSessionConfig, deps PostSessionDeps) (*PostSession, error) {
	if _, err := uuid.Parse(postUUID); err != nil {
		return nil, apperrors.NewValidationError("invalid post uuid", map[string]interface{}{"post_uuid": postUUID})
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("post_uuid", postUUID))

	post, err := deps.Repos.Options.GetPost(ctx, postUUID)
	if err != nil {
		return nil, err
	}
	if post.PostUUID == "" {
		post.PostUUID = postUUID
	}

	store := NewOptionStore(domain.RankContext{ViewerID: viewer.ID, PostAuthorID: post.AuthorID}, log.Named("store"))
	summary := NewPostSummaryState(*post, deps.Repos.Options, log.Named("summary"))
	validator := NewOptionTextValidator(postUUID, cfg.ValidationDebounce, deps.Repos.Options, log.Named("validator"))

	s := &PostSession{
		postUUID:  postUUID,
		repos:     deps.Repos,
		store:     store,
		summary:   summary,
		pager:     NewPaginationController(postUUID, cfg.PageSize, store, deps.Repos.Options, log.Named("pager")),
		gate:      NewPermissionGate(deps.Repos.Options, log.Named("permissions")),
		validator: validator,
		orchestrator: NewVoteOrchestrator(viewer, cfg.Payment, VoteOrchestratorDeps{
			Store:     store,
			Summary:   summary,
			Validator: validator,
			Votes:     deps.Repos.Votes,
			Bundles:   deps.Bundles,
			Navigator: deps.Navigator,
			Guard:     deps.Guard,
			Logger:    log.Named("votes"),
		}),
		bridge: NewRealtimeBridge(postUUID, store, summary, deps.Hub, log.Named("realtime")),
		logger: log,
	}

	if err := s.bridge.Mount(ctx); err != nil {
		log.Warn("Realtime updates unavailable", zap.Error(err))
	}

	log.Info("Post session opened",
		zap.Bool("authenticated", viewer.Authenticated),
		zap.Int("option_count", post.OptionCount))
	return s, nil
}

func (s *PostSession) PostUUID() string                { return s.postUUID }
func (s *PostSession) Store() *OptionStore             { return s.store }
func (s *PostSession) Summary() domain.PostSummary     { return s.summary.Get() }
func (s *PostSession) Pager() *PaginationController    { return s.pager }
func (s *PostSession) Permissions() *PermissionGate    { return s.gate }
func (s *PostSession) Validator() *OptionTextValidator { return s.validator }
func (s *PostSession) Orchestrator() *VoteOrchestrator { return s.orchestrator }
func (s *PostSession) Options() []domain.Option        { return s.store.Options() }

// SetViewer switches the viewer, e.g. after sign-in, and re-ranks the list
func (s *PostSession) SetViewer(viewer domain.Viewer) {
	s.orchestrator.SetViewer(viewer)
	s.store.SetRankContext(domain.RankContext{ViewerID: viewer.ID, PostAuthorID: s.summary.Get().AuthorID})
}

// LoadNextPage fetches the next page of options
func (s *PostSession) LoadNextPage(ctx context.Context) (bool, error) {
	return s.pager.FetchNextPage(ctx)
}

// Vote submits intent
func (s *PostSession) Vote(ctx context.Context, intent domain.VoteIntent) (*VoteResult, error) {
	return s.orchestrator.Vote(ctx, intent)
}

// DeleteOption deletes an option the viewer was confirmed to be allowed to
// delete. Without a confirmed permission no request is sent.
func (s *PostSession) DeleteOption(ctx context.Context, optionID int64) error {
	if !s.gate.CanDelete(optionID) {
		return apperrors.NewAuthorizationError("deleting this option is not allowed")
	}
	if err := s.repos.Options.DeleteOption(ctx, optionID); err != nil {
		s.logger.Warn("Failed to delete option", zap.Int64("option_id", optionID), zap.Error(err))
		return err
	}
	s.store.Remove(optionID)
	s.gate.Forget(optionID)
	s.logger.Info("Option deleted", zap.Int64("option_id", optionID))
	return nil
}

// Close leaves the realtime channel. It is safe to call more than once.
func (s *PostSession) Close() {
	s.closeOnce.Do(func() {
		s.bridge.Unmount()
		s.logger.Info("Post session closed")
	})
}
