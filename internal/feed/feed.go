// Package feed maintains a client session's live notification feed: it
// watches the post change stream, synthesizes ephemeral "new post" and
// reaction events, and keeps them in one ordered, capped, auto-expiring list.
//
// The first batch a fresh subscription delivers is treated as a baseline:
// every post in it is recorded as already seen, with its current reaction
// counts, and produces no notifications. Only changes observed after that
// baseline become events.
package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/repositories"
)

const (
	// DefaultWindow is how many recent posts the subscription covers.
	DefaultWindow = 10
	// DefaultDisplayLimit caps how many events Visible returns.
	DefaultDisplayLimit = 3

	defaultPostTTL     = 5 * time.Second
	defaultReactionTTL = 4 * time.Second
)

type reactionCounts struct {
	likes    int
	dislikes int
}

// Option configures a Feed.
type Option func(*Feed)

// WithTTLs overrides the auto-expiry durations for new-post and reaction events.
func WithTTLs(post, reaction time.Duration) Option {
	return func(f *Feed) {
		f.postTTL = post
		f.reactionTTL = reaction
	}
}

// WithDisplayLimit overrides how many events Visible returns.
func WithDisplayLimit(n int) Option {
	return func(f *Feed) { f.displayLimit = n }
}

// WithSound registers a callback fired once per synthesized event, used for
// the audible cue.
func WithSound(fn func()) Option {
	return func(f *Feed) { f.playSound = fn }
}

// WithListener registers a callback invoked with every synthesized event as
// it is enqueued, in order. It runs on the stream-processing goroutine and
// must not block.
func WithListener(fn func(models.NotificationEvent)) Option {
	return func(f *Feed) { f.listener = fn }
}

// Feed is a per-session live notification feed. It is safe for concurrent
// use; stream processing runs on one goroutine, expiry timers on others.
type Feed struct {
	userID string
	stream repositories.PostChangeStream

	postTTL      time.Duration
	reactionTTL  time.Duration
	displayLimit int
	playSound    func()
	listener     func(models.NotificationEvent)

	mu        sync.Mutex
	baselined bool
	seen      map[string]struct{}
	counts    map[string]reactionCounts
	events    []models.NotificationEvent // newest first
	timers    map[string]*time.Timer
	closed    bool

	done chan struct{}
}

// New starts a feed for the given user over an already-open change
// subscription. The feed takes ownership of the stream and closes it on Close.
func New(userID string, stream repositories.PostChangeStream, opts ...Option) *Feed {
	f := &Feed{
		userID:       userID,
		stream:       stream,
		postTTL:      defaultPostTTL,
		reactionTTL:  defaultReactionTTL,
		displayLimit: DefaultDisplayLimit,
		seen:         map[string]struct{}{},
		counts:       map[string]reactionCounts{},
		timers:       map[string]*time.Timer{},
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	go f.run()
	return f
}

func (f *Feed) run() {
	defer close(f.done)
	for batch := range f.stream.Changes() {
		f.processBatch(batch)
	}
}

func (f *Feed) processBatch(batch []repositories.PostChange) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.baselined {
		for _, change := range batch {
			f.recordBaseline(change)
		}
		f.baselined = true
		return
	}

	for _, change := range batch {
		switch change.Kind {
		case repositories.ChangeAdded:
			f.onAdded(change)
		case repositories.ChangeModified:
			f.onModified(change)
		case repositories.ChangeRemoved:
			delete(f.seen, change.PostID)
			delete(f.counts, change.PostID)
		}
	}
}

func (f *Feed) recordBaseline(change repositories.PostChange) {
	if change.Kind == repositories.ChangeRemoved {
		return
	}
	f.seen[change.PostID] = struct{}{}
	f.counts[change.PostID] = reactionCounts{
		likes:    len(change.Post.Likes),
		dislikes: len(change.Post.Dislikes),
	}
}

func (f *Feed) onAdded(change repositories.PostChange) {
	post := change.Post
	_, known := f.seen[change.PostID]
	// Record the post either way so later modifications diff correctly.
	f.seen[change.PostID] = struct{}{}
	f.counts[change.PostID] = reactionCounts{likes: len(post.Likes), dislikes: len(post.Dislikes)}

	if known || post.AuthorID == f.userID {
		return
	}

	authorName := post.AuthorDisplayName
	if authorName == "" {
		authorName = "Usuario"
	}
	f.push(models.NotificationEvent{
		ID:         uuid.NewString(),
		Kind:       models.NotificationNewPost,
		AuthorName: authorName,
		Title:      post.Title,
		ImageURL:   post.ImageURL,
		CreatedAt:  post.CreatedAt,
		Timestamp:  time.Now(),
	}, f.postTTL)
}

func (f *Feed) onModified(change repositories.PostChange) {
	post := change.Post
	current := reactionCounts{likes: len(post.Likes), dislikes: len(post.Dislikes)}
	previous := f.counts[change.PostID]

	// Reaction events exist only for the session user's own posts; counts on
	// foreign posts are still tracked so a later diff stays correct.
	if post.AuthorID != f.userID {
		f.seen[change.PostID] = struct{}{}
		f.counts[change.PostID] = current
		return
	}

	// Both deltas may fire independently on one change.
	if current.likes > previous.likes {
		f.push(models.NotificationEvent{
			ID:         uuid.NewString(),
			Kind:       models.NotificationLike,
			AuthorName: "Nueva reacción",
			Title:      "Le gustó tu post: \"" + post.Title + "\"",
			ImageURL:   post.ImageURL,
			CreatedAt:  models.NowISO(),
			Timestamp:  time.Now(),
		}, f.reactionTTL)
	}
	if current.dislikes > previous.dislikes {
		f.push(models.NotificationEvent{
			ID:         uuid.NewString(),
			Kind:       models.NotificationDislike,
			AuthorName: "Nueva reacción",
			Title:      "No le gustó tu post: \"" + post.Title + "\"",
			ImageURL:   post.ImageURL,
			CreatedAt:  models.NowISO(),
			Timestamp:  time.Now(),
		}, f.reactionTTL)
	}

	f.seen[change.PostID] = struct{}{}
	f.counts[change.PostID] = current
}

// push enqueues an event at the front and arms its expiry timer.
// Caller holds f.mu.
func (f *Feed) push(event models.NotificationEvent, ttl time.Duration) {
	if f.closed {
		return
	}
	f.events = append([]models.NotificationEvent{event}, f.events...)
	f.timers[event.ID] = time.AfterFunc(ttl, func() {
		f.Dismiss(event.ID)
	})
	if f.listener != nil {
		f.listener(event)
	}
	if f.playSound != nil {
		go f.playSound()
	}
}

// Events returns every currently live event, newest first.
func (f *Feed) Events() []models.NotificationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.NotificationEvent, len(f.events))
	copy(out, f.events)
	return out
}

// Visible returns the newest events up to the display limit. Overflow events
// stay live but are not shown.
func (f *Feed) Visible() []models.NotificationEvent {
	events := f.Events()
	if len(events) > f.displayLimit {
		events = events[:f.displayLimit]
	}
	return events
}

// Dismiss removes one event, cancelling its expiry timer. Unknown ids are ignored.
func (f *Feed) Dismiss(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(id)
}

// Clear removes every live event.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.events {
		if t, ok := f.timers[ev.ID]; ok {
			t.Stop()
			delete(f.timers, ev.ID)
		}
	}
	f.events = nil
}

func (f *Feed) removeLocked(id string) {
	if t, ok := f.timers[id]; ok {
		t.Stop()
		delete(f.timers, id)
	}
	for i, ev := range f.events {
		if ev.ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return
		}
	}
}

// Close tears down the subscription and stops every pending expiry timer. No
// further events are synthesized after Close returns.
func (f *Feed) Close() {
	f.stream.Close()
	<-f.done

	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for id, t := range f.timers {
		t.Stop()
		delete(f.timers, id)
	}
}
