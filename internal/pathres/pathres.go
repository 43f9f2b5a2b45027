// Package pathres resolves content paths, path aliases and URL slugs.
package pathres

import (
	"path"
	"path/filepath"
	"strings"
)

// Alias maps a literal path prefix onto a replacement.
type Alias struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Target string `yaml:"target" json:"target"`
}

// AliasResolver substitutes configured prefixes. Aliases are tried in order and
// the first literal prefix match wins.
type AliasResolver struct {
	aliases []Alias
}

// NewAliasResolver creates a resolver over aliases in priority order.
func NewAliasResolver(aliases []Alias) *AliasResolver {
	cp := make([]Alias, 0, len(aliases))
	for _, a := range aliases {
		if a.Prefix == "" {
			continue
		}
		cp = append(cp, a)
	}
	return &AliasResolver{aliases: cp}
}

// ResolveAlias returns p with the first matching alias prefix replaced, or p
// unchanged when no alias matches.
func (r *AliasResolver) ResolveAlias(p string) string {
	for _, a := range r.aliases {
		if strings.HasPrefix(p, a.Prefix) {
			return a.Target + strings.TrimPrefix(p, a.Prefix)
		}
	}
	return p
}

// PathResolver resolves slash-separated content paths against a base path.
type PathResolver struct {
	base string
}

// NewPathResolver creates a resolver rooted at base. An empty base means "/".
func NewPathResolver(base string) *PathResolver {
	if base == "" {
		base = "/"
	}
	return &PathResolver{base: filepath.ToSlash(base)}
}

// Base returns the configured base path.
func (r *PathResolver) Base() string {
	return r.base
}

// ResolveRelativePath resolves target as seen from source. Targets starting
// with "./" or "../" are relative to source's directory; anything else is
// relative to the base path. The result is always cleaned.
func (r *PathResolver) ResolveRelativePath(source, target string) string {
	source = filepath.ToSlash(source)
	target = filepath.ToSlash(target)
	if strings.HasPrefix(target, "./") || strings.HasPrefix(target, "../") {
		return path.Clean(path.Join(path.Dir(source), target))
	}
	return path.Clean(path.Join(r.base, target))
}

// GenerateSlug derives a flat URL slug from a content file path:
// "<base>/guides/Getting-Started.mdx" becomes "guides-getting-started".
func (r *PathResolver) GenerateSlug(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimSuffix(p, path.Ext(p))
	if rel, ok := relativeTo(r.base, p); ok {
		p = rel
	}
	p = strings.Trim(p, "/")
	return strings.ToLower(strings.ReplaceAll(p, "/", "-"))
}

// Resolve applies an alias and then resolves the result against source.
func Resolve(aliases *AliasResolver, paths *PathResolver, source, target string) string {
	return paths.ResolveRelativePath(source, aliases.ResolveAlias(target))
}

func relativeTo(base, p string) (string, bool) {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return p, true
	}
	if p == base {
		return "", true
	}
	if strings.HasPrefix(p, base+"/") {
		return p[len(base)+1:], true
	}
	return p, false
}
