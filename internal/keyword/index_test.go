package keyword

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lexis/internal/cache"
	"github.com/starford/lexis/internal/models"
	"github.com/starford/lexis/internal/testutil"
	"github.com/starford/lexis/internal/tree"
)

var now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func doc(title, p, docType string, keywords ...string) Document {
	return Document{Title: title, Path: p, DocType: docType, Keywords: keywords}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "deployment guide", Normalize("  Deployment \t  GUIDE\n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestFlatten_SkipsFolders(t *testing.T) {
	nodes := []*models.DocumentNode{
		{Title: "Docs", Path: "/docs", IsFolder: true, Children: []*models.DocumentNode{
			{Title: "API", Path: "/docs/api", DocType: "docs"},
			{Title: "Nested", Path: "/docs/n", IsFolder: true, Children: []*models.DocumentNode{
				{Title: "Deep", Path: "/docs/n/deep", DocType: "docs"},
			}},
		}},
		{Title: "Intro", Path: "/intro", DocType: "guide"},
	}
	docs := Flatten(nodes)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"/docs/api", "/docs/n/deep", "/intro"}, []string{docs[0].Path, docs[1].Path, docs[2].Path})
}

func TestBuildEntries_AmbiguityInvariant(t *testing.T) {
	docs := []Document{
		doc("API", "/docs/api", "docs", "rest"),
		doc("API", "/wiki/api", "wiki"),
		doc("Deployment Guide", "/docs/deploy", "docs", "deploy", " Deploy "),
	}
	entries := BuildEntries(docs, now)

	for k, e := range entries {
		assert.Equal(t, len(e.Documents) > 1, e.IsAmbiguous, "key %q", k)
	}
	require.Contains(t, entries, "api")
	assert.True(t, entries["api"].IsAmbiguous)
	assert.Len(t, entries["api"].Documents, 2)
	assert.Equal(t, "/docs/api", entries["api"].Documents[0].Path, "insertion order kept")

	require.Contains(t, entries, "deployment guide")
	assert.False(t, entries["deployment guide"].IsAmbiguous)
	assert.Len(t, entries["deploy"].Documents, 1, "duplicate keyword registers once")
	assert.Equal(t, now, entries["rest"].LastUpdated)
}

func TestBuildEntries_Idempotent(t *testing.T) {
	d := doc("API", "/docs/api", "docs", "api", "API ")
	entries := BuildEntries([]Document{d, d}, now)
	assert.Len(t, entries, 1)
	assert.Len(t, entries["api"].Documents, 1)
	assert.False(t, entries["api"].IsAmbiguous)
}

func TestDetectDuplicates(t *testing.T) {
	docs := []Document{
		doc("API", "/docs/api", "docs"),
		doc("api", "/wiki/api", "wiki"),
		doc("Setup", "/docs/setup", "docs"),
		doc("Setup", "/docs/old/setup", "docs"),
		doc("Unique", "/docs/unique", "docs"),
	}
	dups := DetectDuplicates(docs)
	require.Len(t, dups, 2)

	assert.Equal(t, "API", dups[0].Title)
	assert.Equal(t, models.SeverityWarning, dups[0].Severity)
	assert.Len(t, dups[0].Occurrences, 2)
	assert.Contains(t, dups[0].Suggestion, "docs, wiki")

	assert.Equal(t, "Setup", dups[1].Title)
	assert.Equal(t, models.SeverityError, dups[1].Severity)
	assert.NotEmpty(t, dups[1].Suggestion)
}

func TestDetectDuplicates_TitleCollidesWithKeyword(t *testing.T) {
	docs := []Document{
		doc("REST Guide", "/docs/rest", "docs", "api"),
		doc("API", "/docs/api", "docs"),
	}
	entries := BuildEntries(docs, now)
	require.True(t, entries["api"].IsAmbiguous)

	dups := DetectDuplicates(docs)
	require.Len(t, dups, 1)
	assert.Equal(t, "API", dups[0].Title)
	assert.Equal(t, models.SeverityError, dups[0].Severity)
	require.Len(t, dups[0].Occurrences, 2)
	assert.Equal(t, "/docs/rest", dups[0].Occurrences[0].Path)
	assert.Equal(t, "/docs/api", dups[0].Occurrences[1].Path)
}

func TestDetectDuplicates_KeywordAfterTitleIsNotReported(t *testing.T) {
	docs := []Document{
		doc("API", "/docs/api", "docs"),
		doc("REST Guide", "/docs/rest", "docs", "api"),
	}
	assert.Empty(t, DetectDuplicates(docs), "only a later document's own title triggers a diagnostic")
}

func TestDetectDuplicates_SameDocumentTwice(t *testing.T) {
	d := doc("API", "/docs/api", "docs")
	assert.Empty(t, DetectDuplicates([]Document{d, d}))
}

func TestIndex_LookupAndBloom(t *testing.T) {
	ix := &Index{Entries: BuildEntries([]Document{doc("API", "/docs/api", "docs", "REST")}, now)}

	e, ok := ix.Lookup("  api ")
	require.True(t, ok)
	assert.Equal(t, "/docs/api", e.Documents[0].Path)

	_, ok = ix.Lookup("rest")
	assert.True(t, ok)
	assert.True(t, ix.MayContain("REST"))

	_, ok = ix.Lookup("graphql")
	assert.False(t, ok)
	assert.Equal(t, []string{"api", "rest"}, ix.Keys())
}

func TestBuild_FromSampleTree(t *testing.T) {
	_, store := testutil.TestContent(t, testutil.Sample)
	nodes, err := tree.NewBuilder(store).Walk("", false)
	require.NoError(t, err)

	ix := Build(nodes, now)
	e, ok := ix.Lookup("API")
	require.True(t, ok)
	assert.True(t, e.IsAmbiguous)
	assert.Len(t, e.Documents, 2)
	assert.Equal(t, []string{"api"}, ix.Ambiguous())

	d, ok := ix.Document("/docs/deploy")
	require.True(t, ok)
	assert.Equal(t, "Deployment Guide", d.Title)

	require.Len(t, ix.Duplicates, 1)
	assert.Equal(t, models.SeverityWarning, ix.Duplicates[0].Severity)
}

func TestIndexer_CachesPerAuthState(t *testing.T) {
	dir, store := testutil.TestContent(t, testutil.Sample)
	c, err := cache.New(cache.Config{MaxSize: 10, Version: "1"})
	require.NoError(t, err)
	ix := NewIndexer(tree.NewBuilder(store), c)
	ctx := context.Background()

	anon, err := ix.Index(ctx, false)
	require.NoError(t, err)
	_, ok := anon.Lookup("internal notes")
	assert.False(t, ok, "private document is not indexed for anonymous readers")

	auth, err := ix.Index(ctx, true)
	require.NoError(t, err)
	_, ok = auth.Lookup("internal notes")
	assert.True(t, ok)

	testutil.WriteTree(t, dir, map[string]string{"docs/new.mdx": "---\ntitle: Fresh\n---\n"})
	again, err := ix.Index(ctx, false)
	require.NoError(t, err)
	assert.Same(t, anon, again)
}
