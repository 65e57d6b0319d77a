package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/models"
)

type fakeModerator struct {
	err   error
	calls int
}

func (f *fakeModerator) ReModerate(_ context.Context, _ models.Post) error {
	f.calls++
	return f.err
}

type fakeFanout struct {
	err error

	called    bool
	gotAuthor string
	gotName   string
	gotTitle  string
}

func (f *fakeFanout) NotifyNewPost(_ context.Context, authorID, authorName, postTitle string) error {
	f.called = true
	f.gotAuthor = authorID
	f.gotName = authorName
	f.gotTitle = postTitle
	return f.err
}

func TestPostHooksCreatedRunsFanout(t *testing.T) {
	moderator := &fakeModerator{}
	fanout := &fakeFanout{}
	hooks := PostHooks(moderator, fanout, zap.NewNop())

	post := models.Post{AuthorID: "u1", AuthorDisplayName: "Ana", Title: "nuevo post"}
	require.NoError(t, hooks.OnPostCreated(context.Background(), post))

	assert.Equal(t, 1, moderator.calls)
	require.True(t, fanout.called)
	assert.Equal(t, "u1", fanout.gotAuthor)
	assert.Equal(t, "Ana", fanout.gotName)
	assert.Equal(t, "nuevo post", fanout.gotTitle)
}

func TestPostHooksCreatedFansOutDespiteModerationFailure(t *testing.T) {
	moderator := &fakeModerator{err: errors.New("store unavailable")}
	fanout := &fakeFanout{}
	hooks := PostHooks(moderator, fanout, zap.NewNop())

	post := models.Post{AuthorID: "u1", AuthorDisplayName: "Ana", Title: "nuevo post"}
	require.NoError(t, hooks.OnPostCreated(context.Background(), post))

	assert.True(t, fanout.called, "a failed moderation re-check must not suppress the fan-out")
}

func TestPostHooksUpdatedSkipsUntouchedContent(t *testing.T) {
	moderator := &fakeModerator{}
	hooks := PostHooks(moderator, &fakeFanout{}, zap.NewNop())

	post := models.Post{Title: "t"}
	require.NoError(t, hooks.OnPostUpdated(context.Background(), post, []string{"likes", "updated_at"}))
	assert.Zero(t, moderator.calls)

	require.NoError(t, hooks.OnPostUpdated(context.Background(), post, []string{"content", "updated_at"}))
	assert.Equal(t, 1, moderator.calls)
}
