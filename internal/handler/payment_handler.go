package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"optionsync/internal/container"
	"optionsync/internal/domain"
	"optionsync/internal/middleware"
	"optionsync/internal/service"
	"optionsync/pkg/errors"
)

// PaymentHandler completes card votes when the payment provider sends the
// viewer back
type PaymentHandler struct {
	container *container.Container
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(container *container.Container) *PaymentHandler {
	return &PaymentHandler{
		container: container,
	}
}

// PaymentReturnResponse is the body of a processed payment return
type PaymentReturnResponse struct {
	Status    string         `json:"status"`
	ReturnURL string         `json:"return_url"`
	Option    *domain.Option `json:"option,omitempty"`
}

// Return handles GET /payment/return
func (h *PaymentHandler) Return(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger().WithField("request_id", middleware.RequestIDFromContext(r.Context()))

	postUUID := r.URL.Query().Get(service.ParamPost)
	if postUUID == "" {
		h.writeErrorResponse(w, errors.NewValidationError("Missing post parameter", nil))
		return
	}

	session, ok := h.container.Session(postUUID)
	if !ok {
		h.writeErrorResponse(w, errors.NewNotFoundError("No open session for this post"))
		return
	}

	if viewer := middleware.ViewerFromContext(r.Context()); viewer.Authenticated {
		session.SetViewer(viewer)
	}

	cleaned, result, err := session.Orchestrator().ResumeFromReturnURL(r.Context(), r.URL.RequestURI())
	if err != nil {
		var appErr *errors.AppError
		if !stderrors.As(err, &appErr) {
			appErr = errors.NewInternalError("Failed to complete payment", err)
		}
		h.writeErrorResponse(w, appErr)
		return
	}

	response := PaymentReturnResponse{
		Status:    "finalized",
		ReturnURL: cleaned,
		Option:    result.Option,
	}
	if result.AlreadyFinalized {
		response.Status = "already_finalized"
	}

	logger.WithField("status", response.Status).Info("Payment return processed")
	h.writeJSON(w, http.StatusOK, response)
}

func (h *PaymentHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.container.GetLogger().WithError(err).Error("Failed to encode response")
	}
}

// writeErrorResponse writes an error response to the client
func (h *PaymentHandler) writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError) {
	logger := h.container.GetLogger()
	logger.WithError(appErr).Warn("Request error")

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Code = appErr.Code
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	h.writeJSON(w, appErr.StatusCode, response)
}
