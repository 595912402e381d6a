package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/pushsubscription"
	"taskpilot/pkg/cerr"
	"taskpilot/pkg/storage"
)

func newRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewYAMLRepository(local)
}

func sub(id, endpoint string) *pushsubscription.Subscription {
	return &pushsubscription.Subscription{
		ID:        id,
		Endpoint:  endpoint,
		P256dhKey: "p256dh",
		AuthKey:   "auth",
		CreatedAt: time.Now().UTC(),
	}
}

func TestYAMLRepositoryCreateGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sub("sub1", "https://push.example/1")))

	got, err := repo.Get(ctx, "sub1")
	require.NoError(t, err)
	assert.Equal(t, "https://push.example/1", got.Endpoint)
	assert.Equal(t, "p256dh", got.P256dhKey)

	err = repo.Create(ctx, sub("sub1", "https://push.example/1"))
	var cerrErr *cerr.Error
	require.ErrorAs(t, err, &cerrErr)
	assert.Equal(t, cerr.AlreadyExists, cerrErr.Code)
}

func TestYAMLRepositoryListAndDelete(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sub("a", "https://push.example/a")))
	require.NoError(t, repo.Create(ctx, sub("b", "https://push.example/b")))

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	require.NoError(t, repo.Delete(ctx, "a"))
	subs, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "b", subs[0].ID)
}

func TestYAMLRepositoryFindByEndpoint(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sub("a", "https://push.example/a")))

	got, err := repo.FindByEndpoint(ctx, "https://push.example/a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	_, err = repo.FindByEndpoint(ctx, "https://push.example/missing")
	var cerrErr *cerr.Error
	require.ErrorAs(t, err, &cerrErr)
	assert.Equal(t, cerr.NotFound, cerrErr.Code)

	require.NoError(t, repo.DeleteByEndpoint(ctx, "https://push.example/a"))
	_, err = repo.Get(ctx, "a")
	require.Error(t, err)
}
