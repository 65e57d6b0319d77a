package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/models"
)

// ChangeKind labels a single post change-stream event.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// PostChange is one observed change to the posts collection. For modified
// events ChangedFields lists the top-level document fields the write touched;
// for removed events only PostID is set.
type PostChange struct {
	Kind          ChangeKind
	PostID        string
	Post          models.Post
	ChangedFields []string
}

// PostChangeStream is a cancellable subscription to post changes. Changes
// delivers batches in order; the channel is closed when the stream ends or
// Close is called. After the channel closes, Err reports why.
type PostChangeStream interface {
	Changes() <-chan []PostChange
	Err() error
	Close()
}

// PostWatcher opens live subscriptions on the posts collection.
type PostWatcher interface {
	// WatchPosts starts a change subscription. When window > 0 the first
	// batch delivered is a snapshot of the window most recent posts as
	// "added" events; consumers treat that batch as their baseline.
	WatchPosts(ctx context.Context, window int64) (PostChangeStream, error)
}

type mongoChangeStream struct {
	changes chan []PostChange
	cancel  context.CancelFunc
	errMu   chan struct{} // closed once err is set
	err     error
}

func (s *mongoChangeStream) Changes() <-chan []PostChange { return s.changes }

func (s *mongoChangeStream) Err() error {
	select {
	case <-s.errMu:
		return s.err
	default:
		return nil
	}
}

func (s *mongoChangeStream) Close() { s.cancel() }

func (s *mongoChangeStream) finish(err error) {
	s.err = err
	close(s.errMu)
	close(s.changes)
}

// changeEvent is the decoded shape of a MongoDB change stream document.
type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument      *models.Post `bson:"fullDocument"`
	UpdateDescription struct {
		UpdatedFields bson.M   `bson:"updatedFields"`
		RemovedFields []string `bson:"removedFields"`
	} `bson:"updateDescription"`
}

// WatchPosts opens a MongoDB change stream on the posts collection and adapts
// it to the PostChangeStream interface. Each stream event is delivered as a
// single-element batch; the optional initial snapshot arrives as one batch.
func (r *MongoPostRepository) WatchPosts(ctx context.Context, window int64) (PostChangeStream, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	cs, err := r.collection.Watch(streamCtx, bson.A{}, opts)
	if err != nil {
		cancel()
		return nil, err
	}

	out := &mongoChangeStream{
		changes: make(chan []PostChange),
		cancel:  cancel,
		errMu:   make(chan struct{}),
	}

	var snapshot []PostChange
	if window > 0 {
		posts, err := r.GetRecentPosts(streamCtx, window)
		if err != nil {
			cs.Close(streamCtx)
			cancel()
			return nil, err
		}
		snapshot = make([]PostChange, 0, len(posts))
		for _, p := range posts {
			snapshot = append(snapshot, PostChange{Kind: ChangeAdded, PostID: p.ID.Hex(), Post: p})
		}
	}

	go func() {
		defer cs.Close(context.Background())
		defer cancel()

		if snapshot != nil {
			select {
			case out.changes <- snapshot:
			case <-streamCtx.Done():
				out.finish(nil)
				return
			}
		}

		for cs.Next(streamCtx) {
			var ev changeEvent
			if err := cs.Decode(&ev); err != nil {
				zap.L().Warn("failed to decode post change event", zap.Error(err))
				continue
			}
			change, ok := ev.toPostChange()
			if !ok {
				continue
			}
			select {
			case out.changes <- []PostChange{change}:
			case <-streamCtx.Done():
				out.finish(nil)
				return
			}
		}

		if streamCtx.Err() != nil {
			out.finish(nil) // closed deliberately
			return
		}
		out.finish(cs.Err())
	}()

	return out, nil
}

func (ev changeEvent) toPostChange() (PostChange, bool) {
	id := ev.DocumentKey.ID.Hex()
	switch ev.OperationType {
	case "insert":
		if ev.FullDocument == nil {
			return PostChange{}, false
		}
		return PostChange{Kind: ChangeAdded, PostID: id, Post: *ev.FullDocument}, true
	case "update", "replace":
		if ev.FullDocument == nil {
			// Document deleted between the write and the updateLookup.
			return PostChange{}, false
		}
		fields := make([]string, 0, len(ev.UpdateDescription.UpdatedFields))
		for f := range ev.UpdateDescription.UpdatedFields {
			fields = append(fields, f)
		}
		fields = append(fields, ev.UpdateDescription.RemovedFields...)
		return PostChange{Kind: ChangeModified, PostID: id, Post: *ev.FullDocument, ChangedFields: fields}, true
	case "delete":
		return PostChange{Kind: ChangeRemoved, PostID: id}, true
	default:
		return PostChange{}, false
	}
}
