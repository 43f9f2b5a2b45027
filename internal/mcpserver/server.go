// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Lexis keyword tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lexis/internal/apperr"
	"github.com/starford/lexis/internal/docservice"
	"github.com/starford/lexis/internal/resolver"
)

const syntaxURI = "lexis://keyword-syntax"

// Server wraps the MCP server with Lexis tools.
type Server struct {
	mcp           *server.MCPServer
	svc           *docservice.Service
	authenticated bool
}

// New creates a new MCP server with all Lexis tools registered. authenticated
// decides whether draft and private documents are visible to the client.
func New(svc *docservice.Service, authenticated bool) *Server {
	s := &Server{svc: svc, authenticated: authenticated}

	s.mcp = server.NewMCPServer(
		"Lexis",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("resolve_keyword",
		mcp.WithDescription("Resolve a [[Keyword]] to the documentation page it refers to."),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("Keyword or page title")),
		mcp.WithString("docType", mcp.Description("Restrict to a documentation type (e.g. docs, wiki)")),
		mcp.WithString("context", mcp.Description("Path of the page the reference appears in")),
	), s.resolveKeyword)

	s.mcp.AddTool(mcp.NewTool("list_keywords",
		mcp.WithDescription("List every indexed keyword and the pages it maps to."),
	), s.listKeywords)

	s.mcp.AddTool(mcp.NewTool("list_duplicates",
		mcp.WithDescription("List page titles used more than once."),
	), s.listDuplicates)

	s.mcp.AddTool(mcp.NewTool("document_tree",
		mcp.WithDescription("Return the documentation navigation tree."),
		mcp.WithString("path", mcp.Description("Optional subtree (e.g. /docs)")),
	), s.documentTree)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the source of a documentation page."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Page path without extension (e.g. /docs/api)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("check_references",
		mcp.WithDescription("Resolve every [[Keyword]] reference in a page and report broken ones."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Page path without extension (e.g. /docs/api)")),
	), s.checkReferences)

	s.mcp.AddTool(mcp.NewTool("get_keyword_syntax",
		mcp.WithDescription("Returns the frontmatter and [[Keyword]] reference syntax. "+
			"Call this before writing pages that reference other pages."),
	), s.getKeywordSyntax)

	// Resource: keyword syntax.
	s.mcp.AddResource(
		mcp.NewResource(syntaxURI, "Keyword Syntax",
			mcp.WithResourceDescription("How pages declare keywords and reference each other."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) resolveKeyword(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kw, err := req.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.svc.Resolve(ctx, resolver.Query{
		Keyword:       kw,
		DocType:       req.GetString("docType", ""),
		Context:       req.GetString("context", ""),
		Authenticated: s.authenticated,
	})
	if !res.OK() {
		return mcp.NewToolResultError(res.Error), nil
	}
	return jsonResult(res), nil
}

func (s *Server) listKeywords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.Keywords(ctx, s.authenticated)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items), nil
}

func (s *Server) listDuplicates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dups, err := s.svc.Duplicates(ctx, s.authenticated)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(dups) == 0 {
		return mcp.NewToolResultText("no duplicate titles"), nil
	}
	return jsonResult(dups), nil
}

func (s *Server) documentTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodes, err := s.svc.Tree(ctx, req.GetString("path", ""), s.authenticated)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(nodes), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.svc.Source(ctx, p, s.authenticated)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", p)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) checkReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs, err := s.svc.ResolveReferences(ctx, p, s.authenticated)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var broken []string
	for _, r := range refs {
		if !r.IsValid {
			broken = append(broken, r.Keyword)
		}
	}
	if len(broken) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("all %d references resolve", len(refs))), nil
	}
	return mcp.NewToolResultText("broken references:\n" + strings.Join(broken, "\n")), nil
}

func (s *Server) getKeywordSyntax(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(KeywordSyntax), nil
}

func (s *Server) readSyntaxResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      syntaxURI,
			MIMEType: "text/markdown",
			Text:     KeywordSyntax,
		},
	}, nil
}
