package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ufw-inspector/internal/metrics"
	"ufw-inspector/internal/model"
	"ufw-inspector/internal/parser"
	"ufw-inspector/internal/report"
	"ufw-inspector/internal/ruleline"
	"ufw-inspector/internal/store"
	"ufw-inspector/internal/ufwcmd"
	"ufw-inspector/pkg/wellknown"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles [dir]",
		Short: "List application profiles with their ports",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cfg.ApplicationsDir
			if len(args) == 1 {
				dir = args[0]
			}
			slog.Info("Parsing application profiles", "dir", dir)
			results := parser.ParseProfileDir(fsys, dir)
			printProfiles(cmd.OutOrStdout(), results)
			return nil
		},
	}
}

func newRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rule <line>",
		Short:   "Parse one numbered rule line",
		Example: `  ufw-inspector rule "[ 1] 192.168.1.0/24 22/udp on tun0 ALLOW IN 10.0.0.0/8"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := ruleline.Parse(args[0])
			if err != nil {
				return err
			}
			printRule(cmd.OutOrStdout(), rule)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var save bool
	var textfile string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Read version, status and numbered rules from ufw",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := inspect(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printState(out, st)

			if save {
				s, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
				if err != nil {
					slog.Error("Failed to open snapshot store", "driver", cfg.Database.Driver, "error", err)
					return err
				}
				defer s.Close()
				id, err := s.SaveSnapshot(snapshotFromState(st))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nSnapshot: %s\n", id)
			}

			if !cmd.Flags().Changed("textfile") {
				textfile = cfg.Textfile
			}
			if textfile != "" {
				var verbose report.Verbose
				if st.Verbose.OK() {
					verbose = st.Verbose.Value
				}
				var rules []model.Result[model.RuleEntry]
				if st.Rules.OK() {
					rules = st.Rules.Value
				}
				if err := metrics.WriteTextfile(textfile, metrics.Collect(verbose, rules)); err != nil {
					slog.Error("Failed to write metrics textfile", "path", textfile, "error", err)
					return err
				}
				slog.Info("Metrics written", "path", textfile)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Store the result as a snapshot")
	cmd.Flags().StringVar(&textfile, "textfile", "", "Write metrics for the node_exporter textfile collector")
	return cmd
}

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Read stored snapshots",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer s.Close()

			infos, err := s.ListSnapshots()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()
			fmt.Fprintln(tw, "ID\tTaken\tHost\tVersion\tRules\tErrors")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
					info.ID, info.TakenAt.Format("2006-01-02 15:04:05"), info.Host, info.Version, info.RuleCount, info.ErrorCount)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print one stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := s.LoadSnapshot(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Snapshot: %s\nTaken: %s\nHost: %s\nVersion: %s\n",
				snap.ID, snap.TakenAt.Format("2006-01-02 15:04:05"), snap.Host, snap.Version)
			if snap.Enabled != nil {
				fmt.Fprintf(out, "Enabled: %t\n", *snap.Enabled)
			}
			if snap.Logging != "" {
				fmt.Fprintf(out, "Logging: %s\n", snap.Logging)
			}
			for _, d := range snap.Defaults {
				fmt.Fprintf(out, "Default: %s (%s)\n", d.Policy, d.Direction)
			}
			fmt.Fprintln(out)
			printRuleEntries(out, snap.Rules)
			return nil
		},
	})
	return cmd
}

// inspect runs the four ufw invocations with installed profiles resolved
// on top of the stock ones.
func inspect(cmd *cobra.Command) (ufwcmd.State, error) {
	catalog := loadCatalog(cfg.ApplicationsDir)
	client := ufwcmd.NewClient(newRunner(cfg))

	slog.Info("Inspecting ufw", "executable", cfg.Executable, "profiles", catalog.Len())
	st, err := client.Inspect(cmd.Context(), catalog)
	if err != nil {
		slog.Error("Failed to run ufw", "error", err)
		return st, err
	}
	if st.Rules.OK() {
		slog.Info("Numbered rules parsed", "count", len(st.Rules.Value), "errors", len(model.Errors(st.Rules.Value)))
	}
	return st, nil
}

func loadCatalog(dir string) *parser.Catalog {
	catalog := wellknown.Catalog()
	for _, r := range parser.ParseProfileDir(fsys, dir) {
		if r.Err != nil {
			slog.Warn("Skipping application profiles", "dir", dir, "error", r.Err)
			continue
		}
		for _, e := range model.Errors(r.Value.Entries) {
			slog.Warn("Invalid application profile entry", "source", r.Value.Source, "error", e)
		}
		catalog.Add(r.Value)
	}
	slog.Debug("Application catalog loaded", "names", catalog.Names())
	return catalog
}

func snapshotFromState(st ufwcmd.State) store.Snapshot {
	var snap store.Snapshot
	snap.Host, _ = os.Hostname()
	if st.Version.OK() {
		snap.Version = st.Version.Value.String()
	}
	if st.Verbose.OK() {
		v := st.Verbose.Value
		if v.Enabled.OK() {
			enabled := v.Enabled.Value
			snap.Enabled = &enabled
		}
		if v.Logging.OK() {
			snap.Logging = v.Logging.Value.String()
		}
		if v.Defaults.OK() {
			snap.Defaults = model.Values(v.Defaults.Value)
		}
	}
	if st.Rules.OK() {
		snap.Rules = st.Rules.Value
	}
	return snap
}
