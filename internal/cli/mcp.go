package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"devsetup/internal/config"
	"devsetup/internal/mcpconfig"
	"devsetup/internal/notify"
	"devsetup/internal/prompt"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Edit the MCP server registry of the desktop client",
	}
	cmd.AddCommand(newMCPValidateCmd())
	cmd.AddCommand(newMCPListCmd())
	cmd.AddCommand(newMCPCheckCmd())
	cmd.AddCommand(newMCPUpsertCmd())
	cmd.AddCommand(newMCPRemoveCmd())
	cmd.AddCommand(newMCPTableauCmd())
	return cmd
}

func openEditor() (*mcpconfig.Editor, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}
	return mcpconfig.New(cfg.MCPConfigFile), cfg, nil
}

func newMCPValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the registry file parses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			editor, _, err := openEditor()
			if err != nil {
				return err
			}
			v, err := editor.Validate()
			if err != nil {
				return err
			}
			if outputJSON {
				if err := writeJSON(cmd.OutOrStdout(), struct {
					Path string `json:"path"`
					mcpconfig.Validation
				}{editor.Path, v}); err != nil {
					return err
				}
			} else {
				switch v.Status {
				case mcpconfig.StatusValid:
					notify.Successf(cmd.OutOrStdout(), "%s is valid", editor.Path)
				case mcpconfig.StatusMissing:
					notify.Infof(cmd.OutOrStdout(), "%s does not exist yet", editor.Path)
				}
			}
			if v.Status == mcpconfig.StatusInvalid {
				return fmt.Errorf("%s: %w: %s", editor.Path, mcpconfig.ErrInvalidConfig, v.Reason)
			}
			return nil
		},
	}
}

type serverView struct {
	Name  string          `json:"name"`
	Entry mcpconfig.Entry `json:"entry"`
}

func newMCPListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured servers with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			editor, _, err := openEditor()
			if err != nil {
				return err
			}
			names, err := editor.List()
			if err != nil {
				return err
			}
			views := make([]serverView, 0, len(names))
			for _, name := range names {
				entry, _, err := editor.Get(name)
				if err != nil {
					return err
				}
				views = append(views, serverView{Name: name, Entry: entry.Redact()})
			}
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "(no MCP servers configured)")
				return nil
			}
			for _, v := range views {
				printServer(out, v.Name, v.Entry)
			}
			return nil
		},
	}
}

func printServer(out io.Writer, name string, e mcpconfig.Entry) {
	fmt.Fprintf(out, "%s: %s %s\n", name, e.Command, strings.Join(e.Args, " "))
	for _, k := range e.EnvKeys() {
		fmt.Fprintf(out, "  %s=%s\n", k, e.Env[k])
	}
}

func newMCPCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check NAME",
		Short: "Report whether a server entry exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, _, err := openEditor()
			if err != nil {
				return err
			}
			presence, err := editor.Check(args[0])
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"name": args[0], "presence": string(presence)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], presence)
			return nil
		},
	}
}

type upsertOptions struct {
	command    string
	args       []string
	env        []string
	secretEnvs []string
}

func newMCPUpsertCmd() *cobra.Command {
	var opts upsertOptions
	cmd := &cobra.Command{
		Use:   "upsert NAME",
		Short: "Create or replace a server entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, cfg, err := openEditor()
			if err != nil {
				return err
			}
			env, err := parseEnvPairs(opts.env)
			if err != nil {
				return err
			}
			prompter := hostDeps.newPrompter(cfg)
			for _, key := range opts.secretEnvs {
				value, err := prompter.Secret(key)
				if err != nil {
					return err
				}
				if env == nil {
					env = map[string]string{}
				}
				env[key] = value
			}
			entry := mcpconfig.Entry{Command: opts.command, Args: opts.args, Env: env}
			return upsertServer(cmd.OutOrStdout(), editor, args[0], entry, opts.secretEnvs...)
		},
	}
	cmd.Flags().StringVar(&opts.command, "command", "", "Executable that starts the server")
	cmd.Flags().StringArrayVar(&opts.args, "arg", nil, "Argument passed to the command (repeatable)")
	cmd.Flags().StringArrayVar(&opts.env, "env", nil, "KEY=VALUE environment entry (repeatable)")
	cmd.Flags().StringArrayVar(&opts.secretEnvs, "secret-env", nil, "Environment key whose value is read without echo (repeatable)")
	_ = cmd.MarkFlagRequired("command")
	return cmd
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	var errs []error
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			errs = append(errs, fmt.Errorf("invalid --env %q (want KEY=VALUE)", pair))
			continue
		}
		env[key] = value
	}
	return env, errors.Join(errs...)
}

func upsertServer(out io.Writer, editor *mcpconfig.Editor, name string, entry mcpconfig.Entry, secretKeys ...string) error {
	res, err := editor.Upsert(name, entry)
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(out, struct {
			Name  string          `json:"name"`
			Entry mcpconfig.Entry `json:"entry"`
			mcpconfig.UpsertResult
		}{name, entry.Redact(secretKeys...), res})
	}
	verb := "Updated"
	if res.Created {
		verb = "Added"
	}
	notify.Successf(out, "%s MCP server %q in %s", verb, name, editor.Path)
	if res.Backup != "" {
		notify.Infof(out, "Backup: %s", res.Backup)
	}
	printServer(out, name, entry.Redact(secretKeys...))
	return nil
}

func newMCPRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Delete a server entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, _, err := openEditor()
			if err != nil {
				return err
			}
			res, err := editor.Remove(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if outputJSON {
				return writeJSON(out, struct {
					Name string `json:"name"`
					mcpconfig.RemoveResult
				}{args[0], res})
			}
			if !res.Removed {
				notify.Infof(out, "MCP server %q not found; nothing changed", args[0])
				return nil
			}
			notify.Successf(out, "Removed MCP server %q", args[0])
			notify.Infof(out, "Backup: %s", res.Backup)
			return nil
		},
	}
}

func newMCPTableauCmd() *cobra.Command {
	var settings mcpconfig.TableauSettings
	cmd := &cobra.Command{
		Use:   "tableau",
		Short: "Register the Tableau MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			editor, cfg, err := openEditor()
			if err != nil {
				return err
			}
			if v, err := editor.Validate(); err != nil {
				return err
			} else if v.Status == mcpconfig.StatusInvalid {
				return fmt.Errorf("%s: %w: %s", editor.Path, mcpconfig.ErrInvalidConfig, v.Reason)
			}

			prompter := hostDeps.newPrompter(cfg)
			if settings.Server, err = prompter.Line("Tableau server URL", settings.Server); err != nil {
				return err
			}
			settings.SiteName, err = prompter.Line("Site name (empty for Default)", settings.SiteName)
			if err != nil && !errors.Is(err, prompt.ErrNonInteractive) {
				return err
			}
			if settings.PATName, err = prompter.Line("Personal access token name", settings.PATName); err != nil {
				return err
			}
			if settings.PATValue, err = prompter.Secret("Personal access token value"); err != nil {
				return err
			}
			if err := settings.Validate(); err != nil {
				return err
			}
			return upsertServer(cmd.OutOrStdout(), editor, mcpconfig.TableauServerName, mcpconfig.TableauEntry(settings))
		},
	}
	cmd.Flags().StringVar(&settings.Server, "server", "", "Tableau server URL, e.g. https://prod-useast-a.online.tableau.com")
	cmd.Flags().StringVar(&settings.SiteName, "site", "", "Tableau site content URL")
	cmd.Flags().StringVar(&settings.PATName, "pat-name", "", "Personal access token name")
	return cmd
}
