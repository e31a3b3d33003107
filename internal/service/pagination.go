package service

import (
	"context"
	"fmt"
	"sync"

	"optionsync/internal/repository"

	"go.uber.org/zap"
)

// DefaultPageSize is used when no page size is configured
const DefaultPageSize = 20

// PaginationController pages options of one post into an OptionStore. At most
// one fetch runs at a time and nothing is fetched after the last page.
type PaginationController struct {
	postUUID   string
	pageSize   int
	store      *OptionStore
	repo       repository.OptionRepository
	logger     *zap.Logger
	mu         sync.Mutex
	isFetching bool
}

// NewPaginationController creates a controller for postUUID
func NewPaginationController(postUUID string, pageSize int, store *OptionStore, repo repository.OptionRepository, logger *zap.Logger) *PaginationController {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaginationController{
		postUUID: postUUID,
		pageSize: pageSize,
		store:    store,
		repo:     repo,
		logger:   logger,
	}
}

// IsFetching reports whether a page request is in flight
func (c *PaginationController) IsFetching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isFetching
}

// NextPageToken returns the cursor the next fetch will use
func (c *PaginationController) NextPageToken() string {
	return c.store.NextPageToken()
}

// HasMore reports whether FetchNextPage would issue a request
func (c *PaginationController) HasMore() bool {
	return c.store.HasMore()
}

// FetchNextPage fetches and appends the next page. It returns (false, nil)
// without a request when a fetch is already running or the list is complete.
// On failure the cursor is left untouched so the call can be retried.
func (c *PaginationController) FetchNextPage(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.isFetching || !c.store.HasMore() {
		c.mu.Unlock()
		return false, nil
	}
	c.isFetching = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.isFetching = false
		c.mu.Unlock()
	}()

	gen := c.store.Generation()
	token := c.store.NextPageToken()

	page, err := c.repo.FetchOptions(ctx, c.postUUID, token, c.pageSize)
	if err != nil {
		c.logger.Warn("Failed to fetch options page",
			zap.String("post_uuid", c.postUUID),
			zap.Bool("first_page", token == ""),
			zap.Error(err))
		return false, fmt.Errorf("failed to fetch options page: %w", err)
	}

	if !c.store.appendPageFor(gen, page.Options, page.NextPageToken) {
		return false, nil
	}

	c.logger.Debug("Options page loaded",
		zap.String("post_uuid", c.postUUID),
		zap.Int("count", len(page.Options)),
		zap.Bool("has_more", page.NextPageToken != ""))
	return true, nil
}

// LoadAll fetches pages until the list is complete or maxPages pages were
// loaded. maxPages <= 0 means no limit.
func (c *PaginationController) LoadAll(ctx context.Context, maxPages int) (int, error) {
	loaded := 0
	for c.store.HasMore() && (maxPages <= 0 || loaded < maxPages) {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		fetched, err := c.FetchNextPage(ctx)
		if err != nil {
			return loaded, err
		}
		if !fetched {
			break
		}
		loaded++
	}
	return loaded, nil
}
