package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/lexis/internal"
	"github.com/starford/lexis/internal/mcpserver"
	"github.com/starford/lexis/internal/resolver"
	pkgconfig "github.com/starford/lexis/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// openApp wires the application for one-shot commands. Logs go to stderr so
// stdout carries only command output.
func openApp(cmd *cli.Command) (*internal.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.NewApp(cfg, internal.NewLogger(os.Stderr, cfg.App.LogLevel))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func resolve(ctx context.Context, cmd *cli.Command) error {
	kw := cmd.Args().First()
	if kw == "" {
		return fmt.Errorf("usage: lexis resolve [flags] <keyword>")
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.Service.Resolve(ctx, resolver.Query{
		Keyword:       kw,
		DocType:       cmd.String("doc-type"),
		Context:       cmd.String("context"),
		Authenticated: cmd.Bool("auth"),
	})
	if err := printJSON(res); err != nil {
		return err
	}
	if !res.OK() {
		return cli.Exit("", 2)
	}
	return nil
}

func showTree(ctx context.Context, cmd *cli.Command) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	nodes, err := a.Service.Tree(ctx, cmd.Args().First(), cmd.Bool("auth"))
	if err != nil {
		return err
	}
	return printJSON(nodes)
}

func duplicates(ctx context.Context, cmd *cli.Command) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	dups, err := a.Service.Duplicates(ctx, cmd.Bool("auth"))
	if err != nil {
		return err
	}
	return printJSON(dups)
}

func check(ctx context.Context, cmd *cli.Command) error {
	p := cmd.Args().First()
	if p == "" {
		return fmt.Errorf("usage: lexis check <document path>")
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	refs, err := a.Service.ResolveReferences(ctx, p, cmd.Bool("auth"))
	if err != nil {
		return err
	}
	if err := printJSON(refs); err != nil {
		return err
	}
	for _, r := range refs {
		if !r.IsValid {
			return cli.Exit("", 2)
		}
	}
	return nil
}

func serveMCP(_ context.Context, cmd *cli.Command) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return mcpserver.New(a.Service, cmd.Bool("auth")).ServeStdio()
}

func authFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "auth",
		Usage: "Include draft and private documents",
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "lexis",
		Usage:  "Documentation keyword index with [[Keyword]] resolution, ranking and caching",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:      "resolve",
				Usage:     "Resolve a keyword and print the result",
				ArgsUsage: "<keyword>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "doc-type", Aliases: []string{"t"}, Usage: "Restrict to a documentation type"},
					&cli.StringFlag{Name: "context", Usage: "Path of the referencing document"},
					authFlag(),
				},
				Action: resolve,
			},
			{
				Name:      "tree",
				Usage:     "Print the document tree",
				ArgsUsage: "[subpath]",
				Flags:     []cli.Flag{authFlag()},
				Action:    showTree,
			},
			{
				Name:   "duplicates",
				Usage:  "Print duplicate document titles",
				Flags:  []cli.Flag{authFlag()},
				Action: duplicates,
			},
			{
				Name:      "check",
				Usage:     "Resolve every [[Keyword]] in a document; exits 2 on broken references",
				ArgsUsage: "<document path>",
				Flags:     []cli.Flag{authFlag()},
				Action:    check,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Flags:  []cli.Flag{authFlag()},
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
