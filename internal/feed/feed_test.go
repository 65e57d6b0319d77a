package feed

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/repositories"
)

// scriptedStream is a hand-driven PostChangeStream.
type scriptedStream struct {
	ch chan []repositories.PostChange
}

func newScriptedStream() *scriptedStream {
	return &scriptedStream{ch: make(chan []repositories.PostChange)}
}

func (s *scriptedStream) Changes() <-chan []repositories.PostChange { return s.ch }
func (s *scriptedStream) Err() error                                { return nil }
func (s *scriptedStream) Close()                                    { close(s.ch) }

// send delivers a batch and waits until the feed's loop has picked it up.
func (s *scriptedStream) send(batch []repositories.PostChange) {
	s.ch <- batch
}

func added(id, authorID, title string, likes, dislikes int) repositories.PostChange {
	return repositories.PostChange{
		Kind:   repositories.ChangeAdded,
		PostID: id,
		Post: models.Post{
			AuthorID:          authorID,
			AuthorDisplayName: "Autor " + authorID,
			Title:             title,
			Likes:             make([]string, likes),
			Dislikes:          make([]string, dislikes),
		},
	}
}

func modified(id, authorID, title string, likes, dislikes int) repositories.PostChange {
	return repositories.PostChange{
		Kind:   repositories.ChangeModified,
		PostID: id,
		Post: models.Post{
			AuthorID: authorID,
			Title:    title,
			Likes:    make([]string, likes),
			Dislikes: make([]string, dislikes),
		},
		ChangedFields: []string{"likes", "dislikes", "updated_at"},
	}
}

func waitForEvents(t *testing.T, f *Feed, n int) []models.NotificationEvent {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.Events()) == n
	}, time.Second, 5*time.Millisecond)
	return f.Events()
}

func TestBaselineProducesNoEvents(t *testing.T) {
	stream := newScriptedStream()
	f := New("me", stream, WithTTLs(time.Minute, time.Minute))
	defer f.Close()

	stream.send([]repositories.PostChange{
		added("p1", "other", "historia vieja", 3, 1),
		added("p2", "me", "mi post", 0, 0),
	})

	// Give the loop a moment; nothing may appear.
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, f.Events(), "the initial snapshot never generates notifications")
}

func TestNewPostAfterBaseline(t *testing.T) {
	stream := newScriptedStream()
	f := New("me", stream, WithTTLs(time.Minute, time.Minute))
	defer f.Close()

	stream.send([]repositories.PostChange{added("p1", "other", "viejo", 0, 0)})
	stream.send([]repositories.PostChange{added("p2", "other", "recién publicado", 0, 0)})

	events := waitForEvents(t, f, 1)
	assert.Equal(t, models.NotificationNewPost, events[0].Kind)
	assert.Equal(t, "recién publicado", events[0].Title)
	assert.Equal(t, "Autor other", events[0].AuthorName)
}

func TestOwnPostsAreSilent(t *testing.T) {
	stream := newScriptedStream()
	f := New("me", stream, WithTTLs(time.Minute, time.Minute))
	defer f.Close()

	stream.send([]repositories.PostChange{})
	stream.send([]repositories.PostChange{added("p1", "me", "mi propio post", 0, 0)})

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, f.Events())
}

func TestReactionDeltas(t *testing.T) {
	stream := newScriptedStream()
	f := New("me", stream, WithTTLs(time.Minute, time.Minute))
	defer f.Close()

	stream.send([]repositories.PostChange{added("p1", "me", "mi post", 1, 0)})

	// One change bumping both counts fires two independent events.
	stream.send([]repositories.PostChange{modified("p1", "me", "mi post", 2, 1)})
	events := waitForEvents(t, f, 2)

	kinds := []models.NotificationKind{events[0].Kind, events[1].Kind}
	assert.ElementsMatch(t, []models.NotificationKind{models.NotificationLike, models.NotificationDislike}, kinds)
	for _, ev := range events {
		assert.Contains(t, ev.Title, `tu post: "mi post"`)
	}

	// A decrease (un-like) fires nothing.
	stream.send([]repositories.PostChange{modified("p1", "me", "mi post", 1, 1)})
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, f.Events(), 2)

	// The next increase diffs against the updated counts.
	stream.send([]repositories.PostChange{modified("p1", "me", "mi post", 2, 1)})
	events = waitForEvents(t, f, 3)
	assert.Equal(t, models.NotificationLike, events[0].Kind)
}

func TestForeignPostReactionsAreSilent(t *testing.T) {
	stream := newScriptedStream()
	f := New("me", stream, WithTTLs(time.Minute, time.Minute))
	defer f.Close()

	stream.send([]repositories.PostChange{added("p1", "other", "post ajeno", 0, 0)})

	// Likes on someone else's post never reach this user's feed.
	stream.send([]repositories.PostChange{modified("p1", "other", "post ajeno", 1, 0)})
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, f.Events())

	// The counts were still tracked: a later change with no further
	// increase stays silent too.
	stream.send([]repositories.PostChange{modified("p1", "other", "post ajeno", 1, 0)})
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, f.Events())
}

func TestVisibleCapAndOrdering(t *testing.T) {
	stream := newScriptedStream()
	f := New("me", stream, WithTTLs(time.Minute, time.Minute))
	defer f.Close()

	stream.send([]repositories.PostChange{})
	for i, title := range []string{"uno", "dos", "tres", "cuatro", "cinco"} {
		stream.send([]repositories.PostChange{added(string(rune('a'+i)), "other", title, 0, 0)})
	}
	events := waitForEvents(t, f, 5)

	// Newest first.
	assert.Equal(t, "cinco", events[0].Title)
	assert.Equal(t, "uno", events[4].Title)

	visible := f.Visible()
	require.Len(t, visible, DefaultDisplayLimit)
	assert.Equal(t, "cinco", visible[0].Title)
	assert.Equal(t, "tres", visible[2].Title)
}

func TestAutoExpiry(t *testing.T) {
	stream := newScriptedStream()
	f := New("me", stream, WithTTLs(30*time.Millisecond, 30*time.Millisecond))
	defer f.Close()

	stream.send([]repositories.PostChange{})
	stream.send([]repositories.PostChange{added("p1", "other", "fugaz", 0, 0)})
	waitForEvents(t, f, 1)

	require.Eventually(t, func() bool {
		return len(f.Events()) == 0
	}, time.Second, 5*time.Millisecond, "events expire on their own")
}

func TestDismissAndClear(t *testing.T) {
	stream := newScriptedStream()
	f := New("me", stream, WithTTLs(time.Minute, time.Minute))
	defer f.Close()

	stream.send([]repositories.PostChange{})
	stream.send([]repositories.PostChange{added("p1", "other", "uno", 0, 0)})
	stream.send([]repositories.PostChange{added("p2", "other", "dos", 0, 0)})
	events := waitForEvents(t, f, 2)

	f.Dismiss(events[0].ID)
	assert.Len(t, f.Events(), 1)

	f.Clear()
	assert.Empty(t, f.Events())
}

func TestSoundCue(t *testing.T) {
	stream := newScriptedStream()
	var cues atomic.Int32
	f := New("me", stream,
		WithTTLs(time.Minute, time.Minute),
		WithSound(func() { cues.Add(1) }))
	defer f.Close()

	stream.send([]repositories.PostChange{})
	stream.send([]repositories.PostChange{added("p1", "other", "uno", 0, 0)})
	waitForEvents(t, f, 1)

	require.Eventually(t, func() bool { return cues.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestCloseStopsDelivery(t *testing.T) {
	stream := newScriptedStream()
	f := New("me", stream, WithTTLs(time.Minute, time.Minute))

	stream.send([]repositories.PostChange{})
	stream.send([]repositories.PostChange{added("p1", "other", "uno", 0, 0)})
	waitForEvents(t, f, 1)

	f.Close()
	// The subscription channel is closed; the loop has exited and timers are stopped.
	assert.Len(t, f.Events(), 1, "already-fired events remain readable after Close")
}
