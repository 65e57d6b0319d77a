package posts

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/moderation"
	"github.com/miapp/redsocial/backend/internal/repositories"
)

// memPostRepo is an in-memory PostRepository. RunAtomic serializes through a
// mutex, standing in for the store's conflict-retry transaction.
type memPostRepo struct {
	mu               sync.Mutex
	posts            map[string]*models.Post
	moderationWrites int
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: map[string]*models.Post{}}
}

func (m *memPostRepo) CreatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	post.ID = primitive.NewObjectID()
	now := models.NowISO()
	post.CreatedAt = now
	post.UpdatedAt = now
	cp := *post
	m.posts[post.ID.Hex()] = &cp
	return nil
}

func (m *memPostRepo) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPostRepo) GetPostsByAuthor(_ context.Context, authorID string, _ int64) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Post
	for _, p := range m.posts {
		if p.AuthorID == authorID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPostRepo) GetRecentPosts(_ context.Context, _ int64) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Post
	for _, p := range m.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memPostRepo) UpdatePost(_ context.Context, id string, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return repositories.ErrPostNotFound
	}
	post.UpdatedAt = models.NowISO()
	cp := *post
	m.posts[id] = &cp
	return nil
}

func (m *memPostRepo) ApplyModeration(_ context.Context, id, title, content, moderatedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return repositories.ErrPostNotFound
	}
	p.Title = title
	p.Content = content
	p.Moderated = true
	p.ModeratedAt = moderatedAt
	p.UpdatedAt = models.NowISO()
	m.moderationWrites++
	return nil
}

func (m *memPostRepo) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return repositories.ErrPostNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *memPostRepo) RunAtomic(_ context.Context, id string, fn func(post *models.Post) error) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	cp := *p
	cp.Likes = append([]string{}, p.Likes...)
	cp.Dislikes = append([]string{}, p.Dislikes...)
	if err := fn(&cp); err != nil {
		return nil, err
	}
	cp.UpdatedAt = models.NowISO()
	m.posts[id] = &cp
	out := cp
	return &out, nil
}

// fakeImages records destroyed public ids.
type fakeImages struct {
	destroyed []string
	fail      bool
}

func (f *fakeImages) Destroy(_ context.Context, publicID string) error {
	if f.fail {
		return errors.New("image backend down")
	}
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

func newService(repo *memPostRepo, images ImageStore) *Service {
	return NewService(repo, moderation.DefaultConfig(), images, zap.NewNop())
}

func TestCreateModeratesSynchronously(t *testing.T) {
	repo := newMemPostRepo()
	svc := newService(repo, nil)

	post, err := svc.Create(context.Background(), "u1", "Ana", models.CreatePostRequest{
		Title:   "Hola idiota mundo",
		Content: "contenido limpio",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hola [REDACTED] mundo", post.Title)
	assert.Equal(t, "contenido limpio", post.Content)
	assert.True(t, post.Moderated)
	assert.NotEmpty(t, post.ModeratedAt)

	stored, err := repo.GetPostByID(context.Background(), post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Hola [REDACTED] mundo", stored.Title, "the redacted text is what got persisted")
}

func TestCreateCleanPostNotFlagged(t *testing.T) {
	repo := newMemPostRepo()
	svc := newService(repo, nil)

	post, err := svc.Create(context.Background(), "u1", "Ana", models.CreatePostRequest{
		Title:   "Hola mundo",
		Content: "todo tranquilo",
	})
	require.NoError(t, err)
	assert.False(t, post.Moderated)
	assert.Empty(t, post.ModeratedAt)
}

func TestUpdateEnforcesOwnershipAndModerates(t *testing.T) {
	repo := newMemPostRepo()
	svc := newService(repo, nil)

	post, err := svc.Create(context.Background(), "u1", "Ana", models.CreatePostRequest{Title: "t", Content: "c"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), post.ID.Hex(), "intruder", models.UpdatePostRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrNotOwner)

	updated, err := svc.Update(context.Background(), post.ID.Hex(), "u1", models.UpdatePostRequest{Title: "eres un tonto"})
	require.NoError(t, err)
	assert.Equal(t, "eres un [REDACTED]", updated.Title)
	assert.True(t, updated.Moderated)
}

func TestDeleteReleasesImage(t *testing.T) {
	repo := newMemPostRepo()
	images := &fakeImages{}
	svc := newService(repo, images)

	post, err := svc.Create(context.Background(), "u1", "Ana", models.CreatePostRequest{
		Title: "t", Content: "c", ImagePublicID: "posts/u1/abc",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), post.ID.Hex(), "u1"))
	assert.Equal(t, []string{"posts/u1/abc"}, images.destroyed)

	_, err = repo.GetPostByID(context.Background(), post.ID.Hex())
	assert.ErrorIs(t, err, repositories.ErrPostNotFound)
}

func TestDeleteSurvivesImageBackendFailure(t *testing.T) {
	repo := newMemPostRepo()
	images := &fakeImages{fail: true}
	svc := newService(repo, images)

	post, err := svc.Create(context.Background(), "u1", "Ana", models.CreatePostRequest{
		Title: "t", Content: "c", ImagePublicID: "posts/u1/abc",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), post.ID.Hex(), "u1"),
		"image release failure must not fail the delete")
}

func TestReactToggleAndExclusivity(t *testing.T) {
	repo := newMemPostRepo()
	svc := newService(repo, nil)
	ctx := context.Background()

	post, err := svc.Create(ctx, "owner", "Ana", models.CreatePostRequest{Title: "t", Content: "c"})
	require.NoError(t, err)
	id := post.ID.Hex()

	// like → liked
	p, err := svc.React(ctx, id, "u2", models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, p.Likes)
	assert.Empty(t, p.Dislikes)

	// like again → un-liked
	p, err = svc.React(ctx, id, "u2", models.ReactionLike)
	require.NoError(t, err)
	assert.Empty(t, p.Likes)
	assert.Empty(t, p.Dislikes)

	// like then dislike → moved to dislikes
	_, err = svc.React(ctx, id, "u2", models.ReactionLike)
	require.NoError(t, err)
	p, err = svc.React(ctx, id, "u2", models.ReactionDislike)
	require.NoError(t, err)
	assert.Empty(t, p.Likes)
	assert.Equal(t, []string{"u2"}, p.Dislikes)
}

func TestReactMissingPost(t *testing.T) {
	repo := newMemPostRepo()
	svc := newService(repo, nil)

	_, err := svc.React(context.Background(), primitive.NewObjectID().Hex(), "u2", models.ReactionLike)
	assert.ErrorIs(t, err, repositories.ErrPostNotFound)
}

func TestReactConcurrentUsersNoLostUpdate(t *testing.T) {
	repo := newMemPostRepo()
	svc := newService(repo, nil)
	ctx := context.Background()

	post, err := svc.Create(ctx, "owner", "Ana", models.CreatePostRequest{Title: "t", Content: "c"})
	require.NoError(t, err)
	id := post.ID.Hex()

	users := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := svc.React(ctx, id, uid, models.ReactionLike)
			assert.NoError(t, err)
		}(u)
	}
	wg.Wait()

	final, err := repo.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, users, final.Likes, "every user's reaction must be reflected")
	assert.Empty(t, final.Dislikes)
}

func TestReModerate(t *testing.T) {
	ctx := context.Background()

	t.Run("issues follow-up write when filter finds new content", func(t *testing.T) {
		repo := newMemPostRepo()
		svc := newService(repo, nil)

		post, err := svc.Create(ctx, "u1", "Ana", models.CreatePostRequest{Title: "t", Content: "c"})
		require.NoError(t, err)

		// Simulate a write that slipped past synchronous moderation.
		dirty := *post
		dirty.Title = "ahora sí idiota"
		require.NoError(t, repo.UpdatePost(ctx, post.ID.Hex(), &dirty))

		require.NoError(t, svc.ReModerate(ctx, dirty))

		stored, err := repo.GetPostByID(ctx, post.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, "ahora sí [REDACTED]", stored.Title)
		assert.True(t, stored.Moderated)
		assert.Equal(t, 1, repo.moderationWrites)
	})

	t.Run("clean after-state writes nothing", func(t *testing.T) {
		repo := newMemPostRepo()
		svc := newService(repo, nil)

		post, err := svc.Create(ctx, "u1", "Ana", models.CreatePostRequest{Title: "t", Content: "c"})
		require.NoError(t, err)

		require.NoError(t, svc.ReModerate(ctx, *post))
		assert.Equal(t, 0, repo.moderationWrites, "no change, no write")
	})

	t.Run("re-check of its own follow-up write is a no-op", func(t *testing.T) {
		repo := newMemPostRepo()
		svc := newService(repo, nil)

		post, err := svc.Create(ctx, "u1", "Ana", models.CreatePostRequest{Title: "t", Content: "c"})
		require.NoError(t, err)

		dirty := *post
		dirty.Content = "pura mierda"
		require.NoError(t, repo.UpdatePost(ctx, post.ID.Hex(), &dirty))
		require.NoError(t, svc.ReModerate(ctx, dirty))

		corrected, err := repo.GetPostByID(ctx, post.ID.Hex())
		require.NoError(t, err)

		// The corrected document flowing back through the trigger changes nothing.
		require.NoError(t, svc.ReModerate(ctx, *corrected))
		assert.Equal(t, 1, repo.moderationWrites, "the follow-up write must not loop")
	})
}
