package service

import (
	"context"
	"sync"

	"optionsync/internal/domain"
)

const testPostUUID = "0b7c6c1e-2f7a-4c55-9d1e-4c1f5b0f9a11"

// fakeAPI implements OptionRepository and VoteRepository with overridable
// hooks and per-method call counters
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	getPost            func(ctx context.Context, postUUID string) (*domain.PostSummary, error)
	fetchOptions       func(ctx context.Context, postUUID, pageToken string, limit int) (*domain.OptionsPage, error)
	deleteOption       func(ctx context.Context, optionID int64) error
	canDeleteOption    func(ctx context.Context, optionID int64) (bool, error)
	validateOptionText func(ctx context.Context, postUUID, text string) (domain.TextValidationStatus, error)
	vote               func(ctx context.Context, req domain.VoteRequest) (*domain.VoteResponse, error)
	createSetupIntent  func(ctx context.Context, binding domain.PaymentBinding) (*domain.SetupIntent, error)
	finalizeCardVote   func(ctx context.Context, handle string) (*domain.VoteResponse, error)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

func (f *fakeAPI) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeAPI) GetPost(ctx context.Context, postUUID string) (*domain.PostSummary, error) {
	f.record("GetPost")
	if f.getPost != nil {
		return f.getPost(ctx, postUUID)
	}
	return &domain.PostSummary{PostUUID: postUUID, AuthorID: "author"}, nil
}

func (f *fakeAPI) FetchOptions(ctx context.Context, postUUID, pageToken string, limit int) (*domain.OptionsPage, error) {
	f.record("FetchOptions")
	if f.fetchOptions != nil {
		return f.fetchOptions(ctx, postUUID, pageToken, limit)
	}
	return &domain.OptionsPage{}, nil
}

func (f *fakeAPI) DeleteOption(ctx context.Context, optionID int64) error {
	f.record("DeleteOption")
	if f.deleteOption != nil {
		return f.deleteOption(ctx, optionID)
	}
	return nil
}

func (f *fakeAPI) CanDeleteOption(ctx context.Context, optionID int64) (bool, error) {
	f.record("CanDeleteOption")
	if f.canDeleteOption != nil {
		return f.canDeleteOption(ctx, optionID)
	}
	return false, nil
}

func (f *fakeAPI) ValidateOptionText(ctx context.Context, postUUID, text string) (domain.TextValidationStatus, error) {
	f.record("ValidateOptionText")
	if f.validateOptionText != nil {
		return f.validateOptionText(ctx, postUUID, text)
	}
	return domain.TextValid, nil
}

func (f *fakeAPI) Vote(ctx context.Context, req domain.VoteRequest) (*domain.VoteResponse, error) {
	f.record("Vote")
	if f.vote != nil {
		return f.vote(ctx, req)
	}
	return &domain.VoteResponse{Status: domain.VoteStatusSuccess}, nil
}

func (f *fakeAPI) CreateSetupIntent(ctx context.Context, binding domain.PaymentBinding) (*domain.SetupIntent, error) {
	f.record("CreateSetupIntent")
	if f.createSetupIntent != nil {
		return f.createSetupIntent(ctx, binding)
	}
	return &domain.SetupIntent{Handle: "seti_default", Binding: binding}, nil
}

func (f *fakeAPI) FinalizeCardVote(ctx context.Context, handle string) (*domain.VoteResponse, error) {
	f.record("FinalizeCardVote")
	if f.finalizeCardVote != nil {
		return f.finalizeCardVote(ctx, handle)
	}
	return &domain.VoteResponse{Status: domain.VoteStatusSuccess}, nil
}
