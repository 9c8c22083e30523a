package main

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/kinsfolk/internal/app"
	"github.com/hpungsan/kinsfolk/internal/config"
	"github.com/hpungsan/kinsfolk/internal/credential"
	"github.com/hpungsan/kinsfolk/internal/errors"
	"github.com/hpungsan/kinsfolk/internal/family"
	"github.com/hpungsan/kinsfolk/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(a *app.App, cfg *config.Config) *cli.App {
	cliApp := &cli.App{
		Name:    "kinsfolk",
		Usage:   "Family memory capsules",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(a),
			statsCmd(a),
			familyCmd(a),
			authCmd(a),
			chatCmd(a),
			imagineCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// serveCmd creates the serve command.
func serveCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the Kinsfolk web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8377, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(a, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show the capsule garden snapshot",
		Action: func(c *cli.Context) error {
			return outputJSON(a.Engine.Stats())
		},
	}
}

// familyCmd creates the family command with its subcommands.
func familyCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "family",
		Usage: "Manage the family roster",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List family members and their status",
				Action: func(c *cli.Context) error {
					return outputJSON(a.Roster.Members())
				},
			},
			{
				Name:      "add",
				Usage:     "Add a family member",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					member, err := a.Roster.Add(strings.Join(c.Args().Slice(), " "))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(member)
				},
			},
			{
				Name:      "rename",
				Usage:     "Rename a family member",
				ArgsUsage: "<id> <name>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return outputError(errors.NewInvalidRequest("usage: family rename <id> <name>"))
					}
					id := c.Args().First()
					name := strings.Join(c.Args().Tail(), " ")
					if err := a.Roster.Rename(id, name); err != nil {
						return outputError(err)
					}
					member, _ := a.Roster.Get(id)
					return outputJSON(member)
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a family member",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
				},
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return outputError(errors.NewInvalidRequest("usage: family remove <id>"))
					}
					member, ok := a.Roster.Get(id)
					if !ok {
						return outputError(errors.NewNotFound("member " + id))
					}
					if !c.Bool("yes") && !confirm(fmt.Sprintf("Remove %s from the roster?", member.DisplayName)) {
						fmt.Println("aborted")
						return nil
					}
					a.Roster.Remove(id)
					return outputJSON(map[string]any{"removed": id})
				},
			},
			{
				Name:      "set-status",
				Usage:     "Set a member's contribution status",
				ArgsUsage: "<id> <ready|pending|overdue>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return outputError(errors.NewInvalidRequest("usage: family set-status <id> <status>"))
					}
					id := c.Args().First()
					if err := a.Roster.SetStatus(id, family.Status(c.Args().Get(1))); err != nil {
						return outputError(err)
					}
					member, _ := a.Roster.Get(id)
					return outputJSON(member)
				},
			},
		},
	}
}

// authCmd creates the auth command with its subcommands.
func authCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the AI credential",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store the AI credential",
				ArgsUsage: "<key>",
				Action: func(c *cli.Context) error {
					if err := a.Credentials.Set(c.Args().First()); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"source": credential.SourceStored})
				},
			},
			{
				Name:  "clear",
				Usage: "Remove the stored AI credential",
				Action: func(c *cli.Context) error {
					if err := a.Credentials.Clear(); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"source": a.Credentials.Source()})
				},
			},
			{
				Name:  "status",
				Usage: "Show whether an AI credential is configured (never prints the value)",
				Action: func(c *cli.Context) error {
					source := a.Credentials.Source()
					return outputJSON(map[string]any{
						"configured": source != credential.SourceNone,
						"source":     source,
					})
				},
			},
		},
	}
}

// chatCmd creates the chat command, an interactive loop with KinBot.
func chatCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to KinBot (interactive; /quit to exit)",
		Action: func(c *cli.Context) error {
			for _, m := range a.Chat.Messages() {
				printMessage(m.Speaker == "assistant", m.Text)
			}

			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("> ")
			for scanner.Scan() {
				text := strings.TrimSpace(scanner.Text())
				if text == "/quit" || text == "/exit" {
					break
				}
				if text != "" {
					if err := a.Chat.Send(c.Context, text); err != nil {
						fmt.Fprintf(os.Stderr, "error: %v\n", err)
					} else {
						messages := a.Chat.Messages()
						printMessage(true, messages[len(messages)-1].Text)
					}
				}
				fmt.Print("> ")
			}
			return scanner.Err()
		},
	}
}

// imagineCmd creates the imagine command: one-shot image generation
// saved under the exports directory and committed to the capsule.
func imagineCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "imagine",
		Usage:     "Generate an image from a prompt and save it to the capsule",
		ArgsUsage: "<prompt>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default: ~/.kinsfolk/exports/imagine-<timestamp>.jpg)"},
		},
		Action: func(c *cli.Context) error {
			prompt := strings.Join(c.Args().Slice(), " ")
			if err := a.Studio.Generate(c.Context, prompt); err != nil {
				return outputError(err)
			}

			photo, err := a.Studio.Commit()
			if err != nil {
				return outputError(err)
			}

			outPath := c.String("out")
			if outPath == "" {
				name := fmt.Sprintf("imagine-%s.jpg", time.Now().UTC().Format("20060102-150405"))
				outPath = filepath.Join(config.BaseDir(), "exports", name)
			}

			data, err := decodeDataURI(photo.SourceRef)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := os.WriteFile(outPath, data, 0600); err != nil {
				return outputError(errors.NewInternal(err))
			}

			return outputJSON(map[string]any{
				"id":     photo.ID,
				"path":   outPath,
				"prompt": prompt,
				"stats":  a.Engine.Stats(),
			})
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
	if kinErr, ok := err.(*errors.KinError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", kinErr.Code, kinErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// confirm prompts the user for a yes/no answer on the terminal.
func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// printMessage writes one chat turn to stdout with a speaker prefix.
func printMessage(assistant bool, text string) {
	prefix := "you"
	if assistant {
		prefix = "kinbot"
	}
	fmt.Printf("[%s] %s\n\n", prefix, text)
}

// decodeDataURI extracts the raw bytes from a base64 data URI.
func decodeDataURI(uri string) ([]byte, error) {
	_, payload, found := strings.Cut(uri, ",")
	if !found || !strings.HasPrefix(uri, "data:") {
		return nil, fmt.Errorf("not a data URI")
	}
	return base64.StdEncoding.DecodeString(payload)
}
