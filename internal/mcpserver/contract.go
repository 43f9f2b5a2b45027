package mcpserver

// KeywordSyntax describes how documentation pages declare keywords and how
// body text references them. It is served to LLM consumers so that generated
// content resolves cleanly.
const KeywordSyntax = `# Lexis Keyword Syntax

Every documentation page is a ` + "`.mdx`" + ` or ` + "`.md`" + ` file with YAML frontmatter.
The page title and its keywords are the names other pages can reference.

## Frontmatter

` + "```" + `yaml
---
title: Deployment Guide        # REQUIRED, always a keyword
description: Shipping to prod  # OPTIONAL, shown in resolution results
keywords: [deploy, release]    # OPTIONAL, extra names for this page
status: published              # OPTIONAL, published | draft | private
order: 2                       # OPTIONAL, position among siblings
date: 2024-04-01               # OPTIONAL, last modification date
---
` + "```" + `

Draft and private pages are only visible to authenticated readers.

## References

- ` + "`[[Deployment Guide]]`" + ` links to the page titled or keyworded "Deployment Guide".
- ` + "`[[Deployment Guide|shipping]]`" + ` links the same page; the text after ` + "`|`" + ` is a label.
- Matching ignores case and surrounding whitespace.

## Resolution

1. A keyword shared by pages of several doc types (the first path segment,
   e.g. ` + "`docs`" + ` or ` + "`wiki`" + `) is ambiguous. Pass a docType to pick one.
2. Otherwise the page closest to the referencing location wins and the others
   are listed as alternatives.
3. Two pages with the same title in the same doc type are reported as an
   error by ` + "`list_duplicates`" + `; give one of them a distinct title.

## Folders

A folder may carry metadata in ` + "`index.json`" + `, ` + "`index.mdx`" + ` or ` + "`index.md`" + `.
Files and folders starting with ` + "`.`" + ` or ` + "`_`" + ` are ignored.
`
