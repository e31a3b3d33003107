package service

import (
	"context"
	"testing"
	"time"

	"optionsync/internal/domain"
	"optionsync/internal/realtime"
	"optionsync/internal/repository"
	apperrors "optionsync/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSession(t *testing.T, api *fakeAPI, hub *realtime.Hub) *PostSession {
	t.Helper()
	if api.getPost == nil {
		api.getPost = func(ctx context.Context, postUUID string) (*domain.PostSummary, error) {
			return &domain.PostSummary{PostUUID: postUUID, AuthorID: "author", OptionCount: 2, FreeVotesRemaining: 1}, nil
		}
	}
	if api.fetchOptions == nil {
		api.fetchOptions = func(ctx context.Context, postUUID, pageToken string, limit int) (*domain.OptionsPage, error) {
			return &domain.OptionsPage{Options: []domain.Option{
				{ID: 1, Text: "Pizza", VoteCount: 10, Creator: &domain.User{ID: "viewer"}},
				{ID: 2, Text: "Sushi", VoteCount: 50, Creator: &domain.User{ID: "someone"}},
			}}, nil
		}
	}
	session, err := OpenPostSession(context.Background(), testPostUUID,
		domain.Viewer{ID: "viewer", Authenticated: true},
		PostSessionConfig{PageSize: 10},
		PostSessionDeps{
			Repos: repository.Repositories{Options: api, Votes: api},
			Hub:   hub,
		})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func TestOpenPostSession_RejectsInvalidUUID(t *testing.T) {
	api := newFakeAPI()

	_, err := OpenPostSession(context.Background(), "not-a-uuid", domain.Anonymous, PostSessionConfig{}, PostSessionDeps{
		Repos: repository.Repositories{Options: api, Votes: api},
	})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Equal(t, 0, api.count("GetPost"))
}

func TestPostSession_LoadsAndRanks(t *testing.T) {
	session := openTestSession(t, newFakeAPI(), nil)

	fetched, err := session.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.True(t, fetched)

	options := session.Options()
	assert.Equal(t, []int64{1, 2}, ids(options))
	assert.True(t, options[1].IsHighest)
	assert.False(t, session.Pager().HasMore())
}

func TestPostSession_DeleteRequiresPermission(t *testing.T) {
	api := newFakeAPI()
	allowed := false
	api.canDeleteOption = func(ctx context.Context, optionID int64) (bool, error) {
		return allowed, nil
	}
	session := openTestSession(t, api, nil)
	_, err := session.LoadNextPage(context.Background())
	require.NoError(t, err)

	err = session.DeleteOption(context.Background(), 1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAuthorization))

	session.Permissions().Check(context.Background(), 1)
	err = session.DeleteOption(context.Background(), 1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAuthorization))
	assert.Equal(t, 0, api.count("DeleteOption"))
	_, ok := session.Store().Get(1)
	assert.True(t, ok)

	allowed = true
	session.Permissions().Check(context.Background(), 1)
	require.NoError(t, session.DeleteOption(context.Background(), 1))
	assert.Equal(t, 1, api.count("DeleteOption"))
	_, ok = session.Store().Get(1)
	assert.False(t, ok)
	assert.Equal(t, PermissionUnknown, session.Permissions().State(1))
}

func TestPostSession_SetViewerReRanks(t *testing.T) {
	api := newFakeAPI()
	session := openTestSession(t, api, nil)
	_, err := session.LoadNextPage(context.Background())
	require.NoError(t, err)

	session.SetViewer(domain.Viewer{ID: "someone", Authenticated: true})

	assert.Equal(t, []int64{2, 1}, ids(session.Options()))
}

func TestPostSession_CloseLeavesChannel(t *testing.T) {
	hub := realtime.NewHub(&chanTransport{subs: make(map[string]chan []byte)}, nil)
	defer hub.Close()

	first := openTestSession(t, newFakeAPI(), hub)
	second := openTestSession(t, newFakeAPI(), hub)
	assert.Equal(t, 2, hub.Members(testPostUUID))

	first.Close()
	first.Close()
	assert.Equal(t, 1, hub.Members(testPostUUID))

	require.NoError(t, hub.Publish(context.Background(), domain.Event{
		Kind:     domain.EventPostUpdated,
		PostUUID: testPostUUID,
		Post:     &domain.PostSummary{PostUUID: testPostUUID, TotalVotes: 77, OptionCount: 2},
	}))
	require.Eventually(t, func() bool { return second.Summary().TotalVotes == 77 }, time.Second, 5*time.Millisecond)

	second.Close()
	assert.Equal(t, 0, hub.Members(testPostUUID))
}
