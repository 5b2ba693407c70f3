package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sgaunet/review-importer/pkg/app/importer"
	"github.com/sgaunet/review-importer/pkg/audit"
	"github.com/sgaunet/review-importer/pkg/status"
	"github.com/spf13/cobra"
)

type sourceFlags struct {
	from     string
	user     string
	password string
}

func (f *sourceFlags) register(cmd *cobra.Command, withFrom bool) {
	if withFrom {
		cmd.Flags().StringVar(&f.from, "from", "", `Source URL: a review server, "gitlab+<url>" for GitLab`)
	}
	cmd.Flags().StringVar(&f.user, "user", "", "Remote user")
	cmd.Flags().StringVar(&f.password, "password", "", "Remote password or token (default $"+passwordEnv+")")
}

var (
	importFlags  sourceFlags
	importParent string
)

var importCmd = &cobra.Command{
	Use:   "import <project>...",
	Short: "Import projects that were never imported",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if importFlags.from == "" {
			return fmt.Errorf("%w: --from is required", importer.ErrValidation)
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		password := resolvePassword(importFlags.password)
		reqs := make([]importer.ImportRequest, 0, len(args))
		for _, project := range args {
			reqs = append(reqs, importer.ImportRequest{
				Project:  project,
				From:     importFlags.from,
				User:     importFlags.user,
				Password: password,
				Parent:   importParent,
				Actor:    cfg.ActingUser,
			})
		}
		results, err := a.ImportAll(cmd.Context(), reqs)
		printResults(results)
		return err
	},
}

var (
	resumeFlags sourceFlags
	resumeForce bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume <project>...",
	Short: "Resume imports in progress, fetching whatever changed at the source",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		password := resolvePassword(resumeFlags.password)
		reqs := make([]importer.ResumeRequest, 0, len(args))
		for _, project := range args {
			reqs = append(reqs, importer.ResumeRequest{
				Project:  project,
				User:     resumeFlags.user,
				Password: password,
				Force:    resumeForce,
				Actor:    cfg.ActingUser,
			})
		}
		results, err := a.ResumeAll(cmd.Context(), reqs)
		printResults(results)
		return err
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <source> <target>",
	Short: "Copy a project of this server under a new name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Orchestrator().Copy(cmd.Context(), importer.CopyRequest{
			Source: args[0],
			Target: args[1],
			Actor:  cfg.ActingUser,
		})
		printResults([]*importer.Result{result})
		return err
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <project>...",
	Short: "Complete imports: archive and remove their import records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var failed error
		for _, project := range args {
			if _, err := a.Orchestrator().CompleteImport(cmd.Context(), project, cfg.ActingUser); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", project, redactSecrets(err.Error()))
				failed = err
				continue
			}
			fmt.Printf("Completed import of %s\n", project)
		}
		return failed
	},
}

var listCmd = &cobra.Command{
	Use:   "list [match]",
	Short: "List imports in progress",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		match := ""
		if len(args) == 1 {
			match = args[0]
		}
		records, err := a.Orchestrator().ListImports(match)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(records)
		}
		printRecords(records)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <project>",
	Short: "Show the audit trail of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Orchestrator().History(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(entries)
		}
		printAudit(entries)
		return nil
	},
}

var showArchiveCmd = &cobra.Command{
	Use:   "show-archive <file>",
	Short: "Print the record and audit trail kept in a completion archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archived, err := importer.ReadArchived(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(archived)
		}
		rec := archived.Record
		fmt.Printf("From: %s (%d runs)\n", rec.From, len(rec.Imports))
		if rec.Parent != nil {
			fmt.Printf("Parent: %s\n", *rec.Parent)
		}
		printAudit(archived.Audit)
		return nil
	},
}

var (
	groupFlags           sourceFlags
	importOwnerGroup     bool
	importIncludedGroups bool
)

var importGroupCmd = &cobra.Command{
	Use:   "import-group <name>",
	Short: "Import a group and, when allowed, the groups it depends on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if groupFlags.from == "" {
			return fmt.Errorf("%w: --from is required", importer.ErrValidation)
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Orchestrator().ImportGroup(cmd.Context(), importer.GroupRequest{
			Name:                 args[0],
			From:                 groupFlags.from,
			User:                 groupFlags.user,
			Password:             resolvePassword(groupFlags.password),
			ImportOwnerGroup:     importOwnerGroup,
			ImportIncludedGroups: importIncludedGroups,
			Actor:                cfg.ActingUser,
		})
		if err == nil && !jsonOutput {
			fmt.Printf("Created groups: %s\n", strings.Join(result.GroupsCreated, ", "))
			return nil
		}
		printResults([]*importer.Result{result})
		return err
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the environment variables and the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		cfg.Usage()
		fmt.Println(strings.Repeat("-", separatorWidth))
		fmt.Println("review-importer configuration:")
		fmt.Print(cfg.Redacted())
	},
}

func init() {
	importFlags.register(importCmd, true)
	importCmd.Flags().StringVar(&importParent, "parent", "", "Parent project on this server (default: the source parent)")

	resumeFlags.register(resumeCmd, false)
	resumeCmd.Flags().BoolVar(&resumeForce, "force", false, "Resume as a remote user other than the original one")

	groupFlags.register(importGroupCmd, true)
	importGroupCmd.Flags().BoolVar(&importOwnerGroup, "import-owner-group", false, "Import the owner group when it does not exist")
	importGroupCmd.Flags().BoolVar(&importIncludedGroups, "import-included-groups", false, "Import included groups that do not exist")
}

// printRecords prints one line per import in progress, sorted by project.
func printRecords(records map[string]status.Record) {
	if len(records) == 0 {
		fmt.Println("No import in progress")
		return
	}
	for _, project := range status.Projects(records) {
		rec := records[project]
		line := fmt.Sprintf("%-40s %s (%d runs)", project, rec.From, len(rec.Imports))
		if first, ok := rec.FirstImport(); ok && first.RemoteUser != "" {
			line += " remote=" + first.RemoteUser
		}
		fmt.Println(line)
	}
}

// printAudit prints one line per audit entry.
func printAudit(entries []audit.Entry) {
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-12s %-8s actor=%s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Operation, e.Outcome, e.Actor)
		if e.RemoteUser != "" {
			line += " remote=" + e.RemoteUser
		}
		if e.Error != "" {
			line += " error=" + redactSecrets(e.Error)
		}
		fmt.Println(line)
	}
}
