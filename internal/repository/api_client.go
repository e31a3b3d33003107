package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"optionsync/internal/domain"
	apperrors "optionsync/pkg/errors"
	"optionsync/pkg/logger"

	"golang.org/x/oauth2"
)

// APIClient talks to the options HTTP API. It implements both OptionRepository
// and VoteRepository.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewAPIClient creates a client for baseURL. When accessToken is set every
// request carries it as a bearer token.
func NewAPIClient(baseURL, accessToken string, timeout time.Duration, log *logger.Logger) *APIClient {
	base := &http.Client{Timeout: timeout}
	httpClient := base
	if accessToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		}))
		httpClient.Timeout = timeout
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     log,
	}
}

type optionsResponse struct {
	Options       []domain.Option `json:"options"`
	NextPageToken string          `json:"next_page_token"`
}

type permissionResponse struct {
	CanDelete bool `json:"can_delete"`
}

type validateTextRequest struct {
	PostUUID string `json:"post_uuid"`
	Text     string `json:"text"`
}

type validateTextResponse struct {
	Status domain.TextValidationStatus `json:"status"`
}

type setupIntentResponse struct {
	Handle string `json:"handle"`
}

// GetPost retrieves the post summary
func (c *APIClient) GetPost(ctx context.Context, postUUID string) (*domain.PostSummary, error) {
	var post domain.PostSummary
	if err := c.do(ctx, http.MethodGet, "/v1/posts/"+url.PathEscape(postUUID), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// FetchOptions retrieves one page of options
func (c *APIClient) FetchOptions(ctx context.Context, postUUID, pageToken string, limit int) (*domain.OptionsPage, error) {
	query := url.Values{}
	if pageToken != "" {
		query.Set("page_token", pageToken)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/posts/" + url.PathEscape(postUUID) + "/options"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp optionsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Options == nil {
		resp.Options = []domain.Option{}
	}
	return &domain.OptionsPage{Options: resp.Options, NextPageToken: resp.NextPageToken}, nil
}

// DeleteOption deletes an option
func (c *APIClient) DeleteOption(ctx context.Context, optionID int64) error {
	return c.do(ctx, http.MethodDelete, "/v1/options/"+strconv.FormatInt(optionID, 10), nil, nil)
}

// CanDeleteOption asks whether the viewer may delete an option
func (c *APIClient) CanDeleteOption(ctx context.Context, optionID int64) (bool, error) {
	var resp permissionResponse
	path := "/v1/options/" + strconv.FormatInt(optionID, 10) + "/permissions"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.CanDelete, nil
}

// ValidateOptionText checks a proposed new option text
func (c *APIClient) ValidateOptionText(ctx context.Context, postUUID, text string) (domain.TextValidationStatus, error) {
	var resp validateTextResponse
	req := validateTextRequest{PostUUID: postUUID, Text: text}
	if err := c.do(ctx, http.MethodPost, "/v1/options/validate", req, &resp); err != nil {
		return "", err
	}
	if resp.Status == "" {
		return domain.TextUnknownFailure, nil
	}
	return resp.Status, nil
}

// Vote submits a free or bundle vote
func (c *APIClient) Vote(ctx context.Context, req domain.VoteRequest) (*domain.VoteResponse, error) {
	var resp domain.VoteResponse
	path := "/v1/posts/" + url.PathEscape(req.PostUUID) + "/votes"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateSetupIntent obtains a payment authorization handle
func (c *APIClient) CreateSetupIntent(ctx context.Context, binding domain.PaymentBinding) (*domain.SetupIntent, error) {
	var resp setupIntentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/payments/setup-intents", binding, &resp); err != nil {
		return nil, err
	}
	if resp.Handle == "" {
		return nil, apperrors.NewExternalError("payment provider returned an empty setup intent", nil)
	}
	return &domain.SetupIntent{Handle: resp.Handle, Binding: binding}, nil
}

// FinalizeCardVote charges the setup intent and records the vote
func (c *APIClient) FinalizeCardVote(ctx context.Context, handle string) (*domain.VoteResponse, error) {
	var resp domain.VoteResponse
	path := "/v1/payments/setup-intents/" + url.PathEscape(handle) + "/vote"
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do performs a JSON request and decodes a JSON response into out (if non-nil)
func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError("failed to encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.NewInternalError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"method": method,
			"path":   path,
		}).Warn("Options API request failed")
		return apperrors.NewExternalError("options API unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewExternalError("failed to read response body", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": resp.StatusCode,
		"duration":    time.Since(start).String(),
	}).Debug("Options API request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.NewExternalError("failed to parse options API response", err)
	}
	return nil
}

// statusError maps a non-2xx response to an AppError
func statusError(statusCode int, body []byte) *apperrors.AppError {
	message := fmt.Sprintf("options API returned status %d", statusCode)
	if snippet := strings.TrimSpace(string(body)); snippet != "" {
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		message = message + ": " + snippet
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return apperrors.NewAuthenticationError(message)
	case http.StatusForbidden:
		return apperrors.NewAuthorizationError(message)
	case http.StatusNotFound:
		return apperrors.NewNotFoundError(message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.NewValidationError(message, map[string]interface{}{"status_code": statusCode})
	default:
		return apperrors.NewExternalError(message, nil)
	}
}
