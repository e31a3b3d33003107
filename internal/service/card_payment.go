package service

import (
	"context"
	"net/url"

	"optionsync/internal/domain"
	apperrors "optionsync/pkg/errors"

	"go.uber.org/zap"
)

// Query parameters of the payment redirect round trip
const (
	ParamSetupIntent = "setup_intent"
	ParamReturnURL   = "return_url"
	ParamPost        = "post"
)

// CardFee returns the processing fee for amount, rounded up to the next minor
// unit
func CardFee(amount, feeBps int64) int64 {
	if amount <= 0 || feeBps <= 0 {
		return 0
	}
	return (amount*feeBps + 9999) / 10000
}

// PaymentBindingFor derives the binding a card payment for intent needs
func (o *VoteOrchestrator) PaymentBindingFor(intent domain.VoteIntent) domain.PaymentBinding {
	amount := o.summary.Get().VotePrice * int64(intent.VotesCount)
	return domain.PaymentBinding{
		PostUUID:   o.postUUID,
		OptionID:   intent.OptionID,
		OptionText: intent.NewOptionText,
		VotesCount: intent.VotesCount,
		Amount:     amount,
		Fee:        CardFee(amount, o.cfg.FeeBps),
	}
}

// PendingSetupIntent returns the setup intent of an unfinished card payment
func (o *VoteOrchestrator) PendingSetupIntent() (domain.SetupIntent, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return domain.SetupIntent{}, false
	}
	return *o.pending, true
}

// ReturnURL is where the payment provider sends the viewer back to. It carries
// everything needed to resume the payment.
func (o *VoteOrchestrator) ReturnURL(handle string) string {
	u, err := url.Parse(o.cfg.ReturnBaseURL)
	if err != nil {
		u = &url.URL{Path: o.cfg.ReturnBaseURL}
	}
	q := u.Query()
	q.Set(ParamSetupIntent, handle)
	q.Set(ParamPost, o.postUUID)
	u.RawQuery = q.Encode()
	return u.String()
}

// SignupPayURL is the off-site sign-up-and-pay page for handle
func (o *VoteOrchestrator) SignupPayURL(handle string) string {
	u, err := url.Parse(o.cfg.SignupPayURL)
	if err != nil {
		u = &url.URL{Path: o.cfg.SignupPayURL}
	}
	q := u.Query()
	q.Set(ParamSetupIntent, handle)
	q.Set(ParamReturnURL, o.ReturnURL(handle))
	u.RawQuery = q.Encode()
	return u.String()
}

func (o *VoteOrchestrator) voteCard(ctx context.Context, intent domain.VoteIntent) (*VoteResult, error) {
	setup, err := o.setupIntentFor(ctx, o.PaymentBindingFor(intent))
	if err != nil {
		return nil, err
	}

	if !o.currentViewer().Authenticated {
		target := o.SignupPayURL(setup.Handle)
		if o.navigator != nil {
			if err := o.navigator.Navigate(ctx, target); err != nil {
				return nil, apperrors.NewInternalError("failed to open payment page", err)
			}
		}
		o.logger.Info("Card vote suspended for sign-up and payment",
			zap.String("post_uuid", o.postUUID))
		return &VoteResult{RedirectURL: target}, nil
	}

	return o.finalize(ctx, setup.Handle, false)
}

// setupIntentFor reuses the pending setup intent when it was issued for the
// same binding and obtains a new one otherwise
func (o *VoteOrchestrator) setupIntentFor(ctx context.Context, binding domain.PaymentBinding) (domain.SetupIntent, error) {
	o.mu.Lock()
	if o.pending != nil && o.pending.Binding == binding {
		reused := *o.pending
		o.mu.Unlock()
		return reused, nil
	}
	o.mu.Unlock()

	created, err := o.votes.CreateSetupIntent(ctx, binding)
	if err != nil {
		return domain.SetupIntent{}, err
	}
	if created.Handle == "" {
		return domain.SetupIntent{}, apperrors.NewExternalError("payment API returned an empty setup intent", nil)
	}
	created.Binding = binding

	o.mu.Lock()
	o.pending = created
	o.mu.Unlock()

	o.logger.Debug("Setup intent obtained",
		zap.String("post_uuid", o.postUUID),
		zap.Int64("amount", binding.Amount),
		zap.Int64("fee", binding.Fee))
	return *created, nil
}

// ResumeFromReturnURL completes a card payment when the viewer comes back
// from the payment page. It returns rawURL with the payment parameters
// removed once the handle was consumed. Processing the same URL again does
// not charge twice.
func (o *VoteOrchestrator) ResumeFromReturnURL(ctx context.Context, rawURL string) (string, *VoteResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, nil, apperrors.NewValidationError("malformed return URL", map[string]interface{}{"url": rawURL})
	}
	q := u.Query()
	handle := q.Get(ParamSetupIntent)
	if handle == "" {
		return rawURL, nil, ErrNoPendingCardPayment
	}
	if post := q.Get(ParamPost); post != "" && post != o.postUUID {
		return rawURL, nil, ErrCardPaymentMismatched
	}
	if !o.currentViewer().Authenticated {
		return rawURL, nil, apperrors.NewAuthenticationError("sign in to complete the payment")
	}

	result, err := o.finalize(ctx, handle, true)
	if err != nil && apperrors.IsType(err, apperrors.ErrorTypeExternal) {
		return rawURL, nil, err
	}

	q.Del(ParamSetupIntent)
	q.Del(ParamPost)
	u.RawQuery = q.Encode()
	return u.String(), result, err
}

// finalize charges handle at most once. Transient failures release the claim
// so the same handle can be finalized again; any other failure drops the
// pending setup intent so the next attempt obtains a fresh one. A claimed
// handle counts as finalized only when resuming from the return URL.
func (o *VoteOrchestrator) finalize(ctx context.Context, handle string, resumed bool) (*VoteResult, error) {
	acquired, err := o.guard.TryAcquire(ctx, handle)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to claim payment", err)
	}
	if !acquired {
		if !resumed {
			o.logger.Warn("Setup intent already claimed", zap.String("post_uuid", o.postUUID))
			return nil, ErrCardPaymentInFlight
		}
		o.logger.Debug("Setup intent already finalized", zap.String("post_uuid", o.postUUID))
		return &VoteResult{AlreadyFinalized: true}, nil
	}

	binding := o.bindingOf(handle)

	resp, err := o.votes.FinalizeCardVote(ctx, handle)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeExternal) {
			if relErr := o.guard.Release(ctx, handle); relErr != nil {
				o.logger.Warn("Failed to release payment claim", zap.Error(relErr))
			}
		} else {
			o.clearPending(handle)
		}
		return nil, err
	}

	o.clearPending(handle)
	if err := StatusError(resp.Status); err != nil {
		return nil, err
	}

	o.logger.Info("Card vote finalized",
		zap.String("post_uuid", o.postUUID),
		zap.Int64("amount", binding.Amount))
	return o.confirm(resp.Option, binding.OptionID, binding.VotesCount), nil
}

func (o *VoteOrchestrator) bindingOf(handle string) domain.PaymentBinding {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending != nil && o.pending.Handle == handle {
		return o.pending.Binding
	}
	return domain.PaymentBinding{PostUUID: o.postUUID}
}

func (o *VoteOrchestrator) clearPending(handle string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending != nil && o.pending.Handle == handle {
		o.pending = nil
	}
}
