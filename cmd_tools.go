package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"labdesk/internal/audit"
	"labdesk/internal/handlers/schedule"
	"labdesk/internal/validation"
)

var (
	calendarTypes     string
	auditRetentionDay int
)

// calendarCmd prints the merged calendar for a date range.
var calendarCmd = &cobra.Command{
	Use:   "calendar <start> [end]",
	Short: "Print calendar events between two dates",
	Long: `Fetches every calendar source and prints the merged events whose start
falls in the range. Dates are YYYY-MM-DD; end defaults to start.

Example:
  labdesk calendar 2024-03-01 2024-03-31 --types test_plan,sample`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCalendar,
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage the stored backend session",
}

var tokensSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store an access and refresh token read from stdin, one per line",
	Args:  cobra.NoArgs,
	RunE:  runTokensSet,
}

var tokensClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove stored tokens",
	Args:  cobra.NoArgs,
	RunE:  runTokensClear,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit trail maintenance",
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit entries older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runAuditPrune,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the effective configuration to the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

func init() {
	calendarCmd.Flags().StringVar(&calendarTypes, "types", "", "Comma-separated event types (default all)")
	auditPruneCmd.Flags().IntVar(&auditRetentionDay, "days", 365, "Retention in days")

	tokensCmd.AddCommand(tokensSetCmd, tokensClearCmd)
	auditCmd.AddCommand(auditPruneCmd)
}

func runCalendar(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	start, err := validation.ParseDate(args[0], rt.loc)
	if err != nil {
		return err
	}
	end := start
	if len(args) == 2 {
		if end, err = validation.ParseDate(args[1], rt.loc); err != nil {
			return err
		}
	}
	end = end.AddDate(0, 0, 1).Add(-time.Millisecond)
	if end.Before(start) {
		return fmt.Errorf("end %s is before start %s", args[1], args[0])
	}
	types, err := schedule.ParseTypes(calendarTypes)
	if err != nil {
		return err
	}

	res, err := rt.calendar.Collect(cmd.Context(), start, end)
	if err != nil {
		return err
	}
	for _, name := range res.Unavailable {
		logger.Warn("calendar source unavailable", zap.String("source", name))
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tTYPE\tTITLE")
	for _, ev := range types.Filter(res.Events) {
		when := ev.Start.Format("2006-01-02 15:04")
		if ev.AllDay {
			when = ev.Start.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", when, ev.Type.Label(), ev.Title)
	}
	return tw.Flush()
}

func runTokensSet(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	sc := bufio.NewScanner(cmd.InOrStdin())
	var lines []string
	for sc.Scan() && len(lines) < 2 {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("no access token on stdin")
	}
	refresh := ""
	if len(lines) == 2 {
		refresh = lines[1]
	}
	if err := rt.tokens.SetTokens(cmd.Context(), lines[0], refresh); err != nil {
		return err
	}
	rt.registry.InvalidateAll(cmd.Context())
	audit.New(rt.db, nil, logger).Record(cmd.Context(), audit.Entry{
		Username: os.Getenv("USER"),
		Action:   audit.ActionSession,
		Module:   "session",
		Summary:  "Signed in from the command line",
	})
	fmt.Fprintln(cmd.OutOrStdout(), "tokens stored")
	return nil
}

func runTokensClear(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.tokens.Clear(cmd.Context()); err != nil {
		return err
	}
	rt.registry.InvalidateAll(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), "tokens cleared")
	return nil
}

func runAuditPrune(cmd *cobra.Command, args []string) error {
	if auditRetentionDay < 1 {
		return fmt.Errorf("--days must be at least 1")
	}
	rt, err := openRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := audit.New(rt.db, nil, logger).Prune(cmd.Context(), auditRetentionDay, time.Now())
	if err != nil {
		return err
	}
	logger.Info("audit log pruned", zap.Int64("deleted", n), zap.Int("retention_days", auditRetentionDay))
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", n)
	return nil
}
