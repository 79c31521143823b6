package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/eventrank/internal/config"
	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/mcp"
	"github.com/hpungsan/eventrank/internal/ops"
	"github.com/hpungsan/eventrank/internal/profile"
	"github.com/hpungsan/eventrank/internal/web"
)

// newCLIApp creates the CLI application with all commands. svc and cfg may be
// nil when only help or version output is needed.
func newCLIApp(svc *services, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "eventrank",
		Usage:   "Campus events feed with personalized ranking",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(svc, cfg),
			mcpCmd(svc, cfg),
			eventsCmd(svc),
			rankCmd(svc),
			majorsCmd(svc),
			exportCmd(svc),
			profileCmd(svc),
			cacheCmd(svc),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

var futureDaysFlag = &cli.IntFlag{Name: "days", Aliases: []string{"d"}, Usage: "Look-ahead window in days (default from config, max 365)"}

// serveCmd creates the serve command.
func serveCmd(svc *services, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind, port := cfg.Bind, cfg.Port
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}
			srv := web.NewServer(svc.deps, svc.registry, bind, port)
			return web.Run(srv, svc.logger)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(svc *services, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
				svc.logger.Sugar().Warnf("ignoring unknown disabled_tools: %s", strings.Join(unknown, ", "))
			}
			return mcp.Run(svc.deps, Version, cfg.DisabledTools)
		},
	}
}

// eventsCmd creates the events command.
func eventsCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Fetch and print normalized upcoming events",
		Flags: []cli.Flag{futureDaysFlag},
		Action: func(c *cli.Context) error {
			output, err := ops.ListEvents(c.Context, svc.deps, ops.ListEventsInput{FutureDays: c.Int("days")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// rankCmd creates the rank command.
func rankCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "rank",
		Usage: "Rank upcoming events for the saved profile or one given by flags",
		Flags: []cli.Flag{
			futureDaysFlag,
			&cli.StringFlag{Name: "year", Aliases: []string{"y"}, Usage: "Class year"},
			&cli.StringFlag{Name: "major", Aliases: []string{"m"}, Usage: "Major"},
			&cli.StringFlag{Name: "interests", Aliases: []string{"i"}, Usage: "Comma-separated interests"},
			&cli.Float64Flag{Name: "recency-weight", Usage: "Share of the score given to recency (0-1)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Print at most N events (0 = all)"},
		},
		Action: func(c *cli.Context) error {
			p, err := profileForRank(c, svc)
			if err != nil {
				return outputError(err)
			}

			input := ops.RankEventsInput{FutureDays: c.Int("days"), Profile: p}
			if c.IsSet("recency-weight") {
				r := c.Float64("recency-weight")
				input.RecencyWeight = &r
			}

			output, err := ops.RankEvents(c.Context, svc.deps, input)
			if err != nil {
				return outputError(err)
			}
			if limit := c.Int("limit"); limit > 0 && len(output.Events) > limit {
				output.Events = output.Events[:limit]
			}
			return outputJSON(output)
		},
	}
}

// profileForRank uses the profile flags when any are set, else the saved profile.
func profileForRank(c *cli.Context, svc *services) (profile.Profile, error) {
	if c.IsSet("year") || c.IsSet("major") || c.IsSet("interests") {
		return profile.Profile{
			Year:      c.String("year"),
			Major:     c.String("major"),
			Interests: parseList(c.String("interests")),
		}, nil
	}
	p, err := ops.ShowProfile(c.Context, svc.deps)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return profile.Profile{}, errors.NewInvalidRequest("no saved profile; run `eventrank profile set` or pass --year/--major/--interests")
		}
		return profile.Profile{}, err
	}
	return *p, nil
}

// majorsCmd creates the majors command.
func majorsCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "majors",
		Usage: "List selectable majors",
		Action: func(c *cli.Context) error {
			return outputJSON(ops.ListMajors(svc.deps).Majors)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write upcoming events to a JSONL file in ~/.eventrank/exports",
		Flags: []cli.Flag{
			futureDaysFlag,
			&cli.StringFlag{Name: "path", Usage: "File name in the exports directory (default events-<timestamp>.jsonl)"},
			&cli.BoolFlag{Name: "ranked", Usage: "Rank for the saved profile and include scores"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ExportEvents(c.Context, svc.deps, ops.ExportEventsInput{
				Path:       c.String("path"),
				FutureDays: c.Int("days"),
				Ranked:     c.Bool("ranked"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// profileCmd creates the profile command group.
func profileCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show or save the ranking profile",
		Subcommands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Save the profile used by rank and export --ranked",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "year", Aliases: []string{"y"}, Required: true, Usage: "Class year: " + strings.Join(profile.Years, ", ")},
					&cli.StringFlag{Name: "major", Aliases: []string{"m"}, Required: true, Usage: "Major (see `eventrank majors`)"},
					&cli.StringFlag{Name: "interests", Aliases: []string{"i"}, Required: true, Usage: "Comma-separated: " + strings.Join(profile.Interests, ", ")},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.SaveProfile(c.Context, svc.deps, profile.Profile{
						Year:      c.String("year"),
						Major:     c.String("major"),
						Interests: parseList(c.String("interests")),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "show",
				Usage: "Print the saved profile",
				Action: func(c *cli.Context) error {
					output, err := ops.ShowProfile(c.Context, svc.deps)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// cacheCmd creates the cache command group.
func cacheCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear cached event classifications",
		Subcommands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cached classification counts",
				Action: func(c *cli.Context) error {
					output, err := ops.CacheStats(c.Context, svc.deps)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "purge",
				Usage: "Delete every cached classification",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm the purge"},
				},
				Action: func(c *cli.Context) error {
					if !c.Bool("yes") {
						return outputError(errors.NewInvalidRequest("pass --yes to confirm"))
					}
					output, err := ops.PurgeCache(c.Context, svc.deps)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if appErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseList splits a comma-separated string, dropping empty items.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
