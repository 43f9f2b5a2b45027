package pathres

import "testing"

func TestResolveAlias_FirstMatchWins(t *testing.T) {
	r := NewAliasResolver([]Alias{
		{Prefix: "@docs/", Target: "/docs/"},
		{Prefix: "@docs/api/", Target: "/reference/"},
		{Prefix: "", Target: "/ignored/"},
	})
	if got := r.ResolveAlias("@docs/api/auth"); got != "/docs/api/auth" {
		t.Errorf("ResolveAlias = %q, want /docs/api/auth", got)
	}
	if got := r.ResolveAlias("/wiki/page"); got != "/wiki/page" {
		t.Errorf("unmatched path changed: %q", got)
	}
}

func TestResolveRelativePath(t *testing.T) {
	r := NewPathResolver("/content")
	cases := []struct {
		source, target, want string
	}{
		{"/content/docs/intro", "./setup", "/content/docs/setup"},
		{"/content/docs/guides/intro", "../api", "/content/docs/api"},
		{"/content/docs/intro", "wiki/page", "/content/wiki/page"},
		{"/content/docs/intro", "/docs//api/", "/content/docs/api"},
	}
	for _, c := range cases {
		if got := r.ResolveRelativePath(c.source, c.target); got != c.want {
			t.Errorf("ResolveRelativePath(%q, %q) = %q, want %q", c.source, c.target, got, c.want)
		}
	}
}

func TestResolveRelativePath_DefaultBase(t *testing.T) {
	r := NewPathResolver("")
	if got := r.ResolveRelativePath("", "docs/api"); got != "/docs/api" {
		t.Errorf("got %q, want /docs/api", got)
	}
}

func TestGenerateSlug(t *testing.T) {
	r := NewPathResolver("/srv/content")
	cases := map[string]string{
		"/srv/content/Guides/Getting-Started.mdx": "guides-getting-started",
		"/srv/content/intro.md":                   "intro",
		"/elsewhere/Page.mdx":                     "elsewhere-page",
	}
	for in, want := range cases {
		if got := r.GenerateSlug(in); got != want {
			t.Errorf("GenerateSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve_AliasThenPath(t *testing.T) {
	aliases := NewAliasResolver([]Alias{{Prefix: "@wiki", Target: "/wiki"}})
	paths := NewPathResolver("/")
	if got := Resolve(aliases, paths, "/docs/intro", "@wiki/api"); got != "/wiki/api" {
		t.Errorf("Resolve = %q, want /wiki/api", got)
	}
}
