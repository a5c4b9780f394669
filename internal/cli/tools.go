package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"devsetup/internal/config"
	"devsetup/internal/tools"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the tool catalog",
	}
	cmd.AddCommand(newToolsListCmd())
	return cmd
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog entries after file and environment overrides",
		Args:  cobra.NoArgs,
		RunE:  runToolsList,
	}
}

type catalogEntry struct {
	tools.ToolSpec
	Key          string `json:"key"`
	OverrideVars string `json:"override_prefix"`
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	specs, err := resolveCatalog(&cfg)
	if err != nil {
		return err
	}

	if outputJSON {
		entries := make([]catalogEntry, 0, len(specs))
		for _, s := range specs {
			entries = append(entries, catalogEntry{
				ToolSpec:     s,
				Key:          s.Key(),
				OverrideVars: overridePrefix(cfg, s.Key()),
			})
		}
		return writeJSON(cmd.OutOrStdout(), entries)
	}
	printCatalog(cmd.OutOrStdout(), cfg, specs)
	return nil
}

func overridePrefix(cfg config.Config, key string) string {
	return strings.TrimSuffix(cfg.OverrideVariable(key, "X"), "X")
}

func printCatalog(out io.Writer, cfg config.Config, specs []tools.ToolSpec) {
	if len(specs) == 0 {
		fmt.Fprintln(out, "(no tools)")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tMANAGER\tPACKAGE\tLOCATES\tPHASE\tSCOPES\tMIGRATES FROM")
	for _, s := range specs {
		locates := s.Executable
		if locates == "" {
			locates = s.AppBundle
		}
		scopes := make([]string, 0, len(s.Scopes))
		for _, sc := range s.Scopes {
			scopes = append(scopes, string(sc))
		}
		sources := make([]string, 0, len(s.MigrationSources))
		for _, src := range s.MigrationSources {
			sources = append(sources, src.String())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Key(), s.Manager, s.Package, locates, s.Phase, strings.Join(scopes, ","), dashIfEmpty(strings.Join(sources, ", ")))
	}
	tw.Flush()
	fmt.Fprintf(out, "\nOverride any tool with %s_<TOOL>_{PKG_MGR,PACKAGE,BIN,FORMULA,NPM}.\n", cfg.EnvPrefix)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
