package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/ops"
	"github.com/hpungsan/spark/internal/web"
)

// newCLIApp creates the CLI application with all commands. Commands act on
// the configured owner.
func newCLIApp(engine *ops.Engine, logger *slog.Logger) *cli.App {
	app := &cli.App{
		Name:    "spark",
		Usage:   "Text shortcut expansion",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(engine, logger),
			folderCmd(engine),
			listCmd(engine),
			createCmd(engine),
			updateCmd(engine),
			deleteCmd(engine),
			importCmd(engine),
			exportCmd(engine),
			previewCmd(engine),
			expandCmd(engine),
			settingsCmd(engine),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func owner(engine *ops.Engine) string {
	return engine.Config().Owner
}

// serveCmd creates the serve command.
func serveCmd(engine *ops.Engine, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and keystroke stream",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "Listen address (default from config)"},
		},
		Action: func(c *cli.Context) error {
			if addr := c.String("addr"); addr != "" {
				engine.Config().ListenAddr = addr
			}
			if err := web.Run(web.NewServer(engine, logger), logger); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// folderCmd creates the folder command group.
func folderCmd(engine *ops.Engine) *cli.Command {
	return &cli.Command{
		Name:  "folder",
		Usage: "Manage folders",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List folders",
				Action: func(c *cli.Context) error {
					output, err := engine.ListFolders(ops.ListFoldersInput{Owner: owner(engine)})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "create",
				Usage: "Create a folder",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Folder name"},
					&cli.StringFlag{Name: "parent", Aliases: []string{"p"}, Usage: "Parent folder ID"},
				},
				Action: func(c *cli.Context) error {
					output, err := engine.CreateFolder(ops.CreateFolderInput{
						Owner:    owner(engine),
						Name:     c.String("name"),
						ParentID: optionalFlag(c, "parent"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "update",
				Usage:     "Rename or move a folder",
				ArgsUsage: "[options] <id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
					&cli.StringFlag{Name: "parent", Aliases: []string{"p"}, Usage: "New parent folder ID"},
					&cli.BoolFlag{Name: "root", Usage: "Move the folder to the top level"},
				},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return outputError(err)
					}
					output, err := engine.UpdateFolder(ops.UpdateFolderInput{
						Owner:       owner(engine),
						ID:          id,
						Name:        optionalFlag(c, "name"),
						ParentID:    optionalFlag(c, "parent"),
						ClearParent: c.Bool("root"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a folder; its snippets become unfiled",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return outputError(err)
					}
					output, err := engine.DeleteFolder(ops.DeleteFolderInput{Owner: owner(engine), ID: id})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// listCmd creates the list command.
func listCmd(engine *ops.Engine) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List snippets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "Only snippets in this folder"},
		},
		Action: func(c *cli.Context) error {
			output, err := engine.ListSnippets(ops.ListSnippetsInput{
				Owner:    owner(engine),
				FolderID: optionalFlag(c, "folder"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// createCmd creates the create command.
func createCmd(engine *ops.Engine) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a snippet (body from --body or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Snippet name"},
			&cli.StringFlag{Name: "shortcut", Aliases: []string{"s"}, Required: true, Usage: "Text that triggers the expansion"},
			&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "Expansion text"},
			&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "Folder ID"},
			&cli.StringFlag{Name: "match-type", Aliases: []string{"m"}, Value: "exact", Usage: "Match type: exact|prefix"},
			&cli.BoolFlag{Name: "inactive", Usage: "Create the snippet disabled"},
		},
		Action: func(c *cli.Context) error {
			body := c.String("body")
			if !c.IsSet("body") && stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				body = text
			}

			active := !c.Bool("inactive")
			output, err := engine.CreateSnippet(ops.CreateSnippetInput{
				Owner:     owner(engine),
				Name:      c.String("name"),
				Shortcut:  c.String("shortcut"),
				Body:      body,
				FolderID:  optionalFlag(c, "folder"),
				IsActive:  &active,
				MatchType: c.String("match-type"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(engine *ops.Engine) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a snippet; only the given flags change",
		ArgsUsage: "[options] <id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
			&cli.StringFlag{Name: "shortcut", Aliases: []string{"s"}, Usage: "New shortcut"},
			&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "New expansion text"},
			&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "Move to this folder"},
			&cli.BoolFlag{Name: "unfiled", Usage: "Remove from its folder"},
			&cli.BoolFlag{Name: "active", Usage: "Enable or disable (--active=false)"},
			&cli.StringFlag{Name: "match-type", Aliases: []string{"m"}, Usage: "Match type: exact|prefix"},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "id")
			if err != nil {
				return outputError(err)
			}
			input := ops.UpdateSnippetInput{
				Owner:       owner(engine),
				ID:          id,
				Name:        optionalFlag(c, "name"),
				Shortcut:    optionalFlag(c, "shortcut"),
				Body:        optionalFlag(c, "body"),
				FolderID:    optionalFlag(c, "folder"),
				ClearFolder: c.Bool("unfiled"),
				MatchType:   optionalFlag(c, "match-type"),
			}
			if c.IsSet("active") {
				active := c.Bool("active")
				input.IsActive = &active
			}

			output, err := engine.UpdateSnippet(input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(engine *ops.Engine) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a snippet",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "id")
			if err != nil {
				return outputError(err)
			}
			output, err := engine.DeleteSnippet(ops.DeleteSnippetInput{Owner: owner(engine), ID: id})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(engine *ops.Engine) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import snippets from a JSON or CSV file, or from stdin",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "auto", Usage: "Payload format: auto|json|csv"},
			&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "Put every imported snippet in this folder"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ImportInput{
				Owner:    owner(engine),
				Format:   c.String("format"),
				FolderID: optionalFlag(c, "folder"),
			}
			if c.NArg() > 0 {
				input.Path = c.Args().First()
			} else {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("pass a file path or pipe the payload via stdin"))
				}
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				input.Payload = string(data)
			}

			output, err := engine.ImportSnippets(input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(engine *ops.Engine) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export snippets to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: exports directory)"},
			&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "Only snippets in this folder"},
			&cli.BoolFlag{Name: "stdout", Usage: "Write the export document to stdout instead of a file"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("stdout") {
				if c.IsSet("path") {
					return outputError(errors.NewInvalidRequest("--stdout and --path are mutually exclusive"))
				}
				doc, err := engine.ExportDocument(owner(engine), optionalFlag(c, "folder"))
				if err != nil {
					return outputError(err)
				}
				return outputJSON(doc)
			}

			output, err := engine.ExportSnippets(c.Context, ops.ExportInput{
				Owner:    owner(engine),
				Path:     c.String("path"),
				FolderID: optionalFlag(c, "folder"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// previewCmd creates the preview command.
func previewCmd(engine *ops.Engine) *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Render a snippet's expansion",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "id")
			if err != nil {
				return outputError(err)
			}
			output, err := engine.Preview(ops.PreviewInput{Owner: owner(engine), ID: id})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// expandCmd creates the expand command.
func expandCmd(engine *ops.Engine) *cli.Command {
	return &cli.Command{
		Name:      "expand",
		Usage:     "Type text through the matcher and print the result",
		ArgsUsage: "[text...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "app", Usage: "Application the text is typed in"},
		},
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if c.NArg() == 0 {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("pass text as arguments or pipe it via stdin"))
				}
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				text = string(data)
			}

			output, err := engine.ExpandText(ops.ExpandInput{
				Owner: owner(engine),
				App:   c.String("app"),
				Text:  text,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// settingsCmd creates the settings command group.
func settingsCmd(engine *ops.Engine) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change expansion settings",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Show the current settings",
				Action: func(c *cli.Context) error {
					output, err := engine.GetSettings(owner(engine))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "set",
				Usage: "Change settings; only the given flags change",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "enabled", Usage: "Turn expansion on or off (--enabled=false)"},
					&cli.StringFlag{Name: "trigger", Aliases: []string{"t"}, Usage: "Trigger hotkey, e.g. Ctrl+Alt+Space"},
					&cli.StringFlag{Name: "exclude", Usage: "Comma-separated applications where expansion is off"},
					&cli.BoolFlag{Name: "clear-excluded", Usage: "Allow expansion in every application"},
				},
				Action: func(c *cli.Context) error {
					if c.IsSet("exclude") && c.Bool("clear-excluded") {
						return outputError(errors.NewInvalidRequest("--exclude and --clear-excluded are mutually exclusive"))
					}
					input := ops.UpdateSettingsInput{
						Owner:   owner(engine),
						Trigger: optionalFlag(c, "trigger"),
					}
					if c.IsSet("enabled") {
						enabled := c.Bool("enabled")
						input.ExpandEnabled = &enabled
					}
					if c.IsSet("exclude") {
						input.ExcludedApps = parseList(c.String("exclude"))
					}
					if c.Bool("clear-excluded") {
						input.ExcludedApps = []string{}
					}

					output, err := engine.UpdateSettings(input)
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
	if sErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// optionalFlag returns a pointer to a string flag's value, or nil when the
// flag was not given.
func optionalFlag(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

// requireArg returns the single positional argument. Flag parsing stops at
// the first positional argument, so anything after it is rejected rather
// than silently dropped.
func requireArg(c *cli.Context, name string) (string, error) {
	switch {
	case c.NArg() == 0:
		return "", errors.NewValidation(name, name+" argument is required")
	case c.NArg() > 1:
		return "", errors.NewValidation(name, fmt.Sprintf(
			"unexpected arguments after %s: %s (options must come before the %s)",
			name, strings.Join(c.Args().Tail(), " "), name))
	}
	return c.Args().First(), nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// parseList splits a comma-separated string, dropping empty entries. The
// result is never nil, so an empty flag clears the list.
func parseList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
