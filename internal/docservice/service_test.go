package docservice

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lexis/internal/apperr"
	"github.com/starford/lexis/internal/cache"
	"github.com/starford/lexis/internal/keyword"
	"github.com/starford/lexis/internal/resolver"
	"github.com/starford/lexis/internal/stats"
	"github.com/starford/lexis/internal/storage"
	"github.com/starford/lexis/internal/testutil"
	"github.com/starford/lexis/internal/tree"
)

func newService(t *testing.T, withStats bool) (*Service, storage.Provider, *cache.Manager) {
	t.Helper()
	_, store := testutil.TestContent(t, testutil.Sample)

	cfg := cache.DevConfig()
	cfg.PersistToDisk = false
	cm, err := cache.New(cfg)
	require.NoError(t, err)

	var db *stats.DB
	if withStats {
		db, err = stats.Open(filepath.Join(t.TempDir(), "stats.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
	}

	rep := apperr.NewReporter(10, nil)
	trees := tree.NewBuilder(store, tree.WithCache(cm), tree.WithReporter(rep))
	indexer := keyword.NewIndexer(trees, cm)
	svc := NewService(Deps{
		Store:    store,
		Trees:    trees,
		Indexer:  indexer,
		Resolver: resolver.New(resolver.DefaultConfig(), indexer),
		Cache:    cm,
		Stats:    db,
		Reporter: rep,
	})
	return svc, store, cm
}

func TestKeywords_SortedWithAmbiguity(t *testing.T) {
	svc, _, _ := newService(t, false)
	items, err := svc.Keywords(context.Background(), false)
	require.NoError(t, err)

	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i-1].Keyword, items[i].Keyword)
	}
	var api *KeywordItem
	for i := range items {
		if items[i].Keyword == "api" {
			api = &items[i]
		}
	}
	require.NotNil(t, api)
	assert.True(t, api.IsAmbiguous)
	assert.Len(t, api.Documents, 2)
}

func TestResolveReferences_StoresReferrers(t *testing.T) {
	svc, _, _ := newService(t, true)
	ctx := context.Background()

	refs, err := svc.ResolveReferences(ctx, "/intro/", false)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "API", refs[0].Keyword)
	assert.True(t, refs[0].IsValid)
	assert.False(t, refs[2].IsValid)

	got, err := svc.Referrers(ctx, "  api ")
	require.NoError(t, err)
	assert.Equal(t, []string{"/intro"}, got)
}

func TestResolveReferences_NotFound(t *testing.T) {
	svc, _, _ := newService(t, false)
	_, err := svc.ResolveReferences(context.Background(), "/wiki/internal", false)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = svc.Source(context.Background(), "/wiki/internal", true)
	assert.NoError(t, err, "private page is readable when authenticated")
}

func TestDisabledStats(t *testing.T) {
	svc, _, _ := newService(t, false)
	ctx := context.Background()

	refs, err := svc.Referrers(ctx, "api")
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)

	top, err := svc.KeywordStats(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestInvalidate_PicksUpNewContent(t *testing.T) {
	svc, store, cm := newService(t, false)
	ctx := context.Background()

	_, err := svc.Keywords(ctx, false)
	require.NoError(t, err)
	require.NoError(t, store.Write("docs/cli.mdx", []byte("---\ntitle: CLI\n---\n")))

	res := svc.Resolve(ctx, resolver.Query{Keyword: "CLI"})
	assert.False(t, res.OK(), "stale index should not see the new page")

	svc.Invalidate(ctx)
	assert.Zero(t, cm.Metrics().Size)

	res = svc.Resolve(ctx, resolver.Query{Keyword: "CLI"})
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "/docs/cli", res.Mapping.Path)
}

func TestErrorsAndReady(t *testing.T) {
	svc, _, _ := newService(t, false)
	_, err := svc.Tree(context.Background(), "", false)
	require.NoError(t, err)

	recent, counts := svc.Errors(0)
	assert.NotEmpty(t, recent)
	assert.Equal(t, 1, counts[apperr.KindParse], "broken-page has no frontmatter")
	assert.NoError(t, svc.Ready())
}
