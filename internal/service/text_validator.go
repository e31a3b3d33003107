package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"optionsync/internal/domain"
	"optionsync/internal/repository"
	apperrors "optionsync/pkg/errors"

	"go.uber.org/zap"
)

// DefaultValidationDebounce is the pause after the last keystroke before text
// is sent for validation
const DefaultValidationDebounce = 300 * time.Millisecond

// ErrValidationSuperseded is returned to a validation that lost to a newer one
var ErrValidationSuperseded = errors.New("text validation superseded by a newer request")

// OptionTextValidator validates proposed new option texts against the API.
// Only the most recently issued validation reports a result.
type OptionTextValidator struct {
	repo     repository.OptionRepository
	postUUID string
	debounce time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewOptionTextValidator creates a validator for texts proposed on postUUID
func NewOptionTextValidator(postUUID string, debounce time.Duration, repo repository.OptionRepository, logger *zap.Logger) *OptionTextValidator {
	if debounce < 0 {
		debounce = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptionTextValidator{
		repo:     repo,
		postUUID: postUUID,
		debounce: debounce,
		logger:   logger,
	}
}

// Validate waits for the debounce interval and validates text. A call made
// while another is pending cancels the earlier one, which then returns
// ErrValidationSuperseded.
func (v *OptionTextValidator) Validate(ctx context.Context, text string) (domain.TextValidationStatus, error) {
	return v.run(ctx, text, v.debounce)
}

// ValidateNow validates text without waiting, e.g. on submission
func (v *OptionTextValidator) ValidateNow(ctx context.Context, text string) (domain.TextValidationStatus, error) {
	return v.run(ctx, text, 0)
}

func (v *OptionTextValidator) run(ctx context.Context, text string, delay time.Duration) (domain.TextValidationStatus, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.seq++
	seq := v.seq
	v.cancel = cancel
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		if v.seq == seq {
			v.cancel = nil
		}
		v.mu.Unlock()
	}()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.TextTooShort, rejection(domain.TextTooShort)
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-runCtx.Done():
			timer.Stop()
			if !v.isLatest(seq) {
				return "", ErrValidationSuperseded
			}
			return "", runCtx.Err()
		}
	}

	status, err := v.repo.ValidateOptionText(runCtx, v.postUUID, trimmed)
	if !v.isLatest(seq) {
		return "", ErrValidationSuperseded
	}
	if err != nil {
		v.logger.Warn("Option text validation failed",
			zap.String("post_uuid", v.postUUID),
			zap.Error(err))
		return domain.TextUnknownFailure, err
	}
	if status != domain.TextValid {
		v.logger.Debug("Option text rejected",
			zap.String("post_uuid", v.postUUID),
			zap.String("status", string(status)))
		return status, rejection(status)
	}
	return status, nil
}

func (v *OptionTextValidator) isLatest(seq uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seq == seq
}

func rejection(status domain.TextValidationStatus) *apperrors.AppError {
	return apperrors.NewValidationError(textRejectionMessage(status), map[string]interface{}{
		"status": string(status),
	})
}

func textRejectionMessage(status domain.TextValidationStatus) string {
	switch status {
	case domain.TextTooShort:
		return "Option text is too short"
	case domain.TextTooLong:
		return "Option text is too long"
	case domain.TextInappropriate:
		return "Option text contains inappropriate content"
	case domain.TextAttemptAtLink:
		return "Option text must not contain links or contact details"
	case domain.TextDuplicate:
		return "An option with this text already exists"
	default:
		return "Option text could not be accepted"
	}
}

// TextStatusOf extracts the validation status carried by a rejection error
func TextStatusOf(err error) (domain.TextValidationStatus, bool) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypeValidation {
		return "", false
	}
	s, ok := appErr.Details["status"].(string)
	if !ok {
		return "", false
	}
	return domain.TextValidationStatus(s), true
}
