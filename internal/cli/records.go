package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"flag-quiz-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewStatsCmd prints or resets the statistics.
func NewStatsCmd(configPath *string) *cobra.Command {
	var reset, yes bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics (or reset them together with the leaderboard)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := localRuntime(cmd, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			ctx := cmd.Context()

			if reset {
				if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Reset all statistics and the leaderboard?") {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing changed.")
					return nil
				}
				if err := rt.service.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Statistics and leaderboard cleared.")
				return nil
			}

			overview, err := rt.service.Stats(ctx)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), overview)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "clear statistics and leaderboard")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the reset confirmation")
	return cmd
}

// NewLeaderboardCmd prints one of the two top lists.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var endless bool
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top ten games",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := localRuntime(cmd, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			board, err := rt.service.Leaderboard(cmd.Context())
			if err != nil {
				return err
			}
			entries := board.Regular
			if endless {
				entries = board.Endless
			}
			printLeaderboard(cmd.OutOrStdout(), entries, endless)
			return nil
		},
	}
	cmd.Flags().BoolVar(&endless, "endless", false, "show the endless mode list")
	return cmd
}

// NewRegionsCmd lists the selectable regions.
func NewRegionsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List regions and their country counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := localRuntime(cmd, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			regions, err := rt.service.Regions(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REGION\tSLUG\tCOUNTRIES")
			for _, r := range regions {
				fmt.Fprintf(w, "%s\t%s\t%d\n", r.Region, r.Slug, r.Count)
			}
			return w.Flush()
		},
	}
}

func localRuntime(cmd *cobra.Command, configPath string) (*runtime, error) {
	cfg, err := loadLocalConfig(configPath)
	if err != nil {
		return nil, err
	}
	return buildRuntime(cmd.Context(), cfg)
}

func printStats(out io.Writer, overview domain.StatsOverview) {
	rec := overview.Record
	fmt.Fprintln(out, styleHeader.Render("Statistics"))
	fmt.Fprintf(out, "Games played:   %d\n", rec.GamesPlayed)
	fmt.Fprintf(out, "Correct:        %d\n", rec.TotalCorrect)
	fmt.Fprintf(out, "Wrong:          %d\n", rec.TotalWrong)
	fmt.Fprintf(out, "Accuracy:       %d%%\n", overview.Accuracy)
	fmt.Fprintf(out, "Best streak:    %d\n", rec.BestStreak)
	fmt.Fprintf(out, "Current streak: %d\n\n", rec.CurrentStreak)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tGAMES\tACCURACY")
	for _, row := range overview.Regions {
		fmt.Fprintf(w, "%s\t%d\t%d%%\n", row.Region, row.GamesPlayed, row.Accuracy)
	}
	_ = w.Flush()
}

func printLeaderboard(out io.Writer, entries []domain.LeaderboardEntry, endless bool) {
	title := "Leaderboard"
	if endless {
		title += " · Endless"
	}
	fmt.Fprintln(out, styleHeader.Render(title))
	if len(entries) == 0 {
		fmt.Fprintln(out, styleSubtle.Render("No games yet."))
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tREGION\tMODE\tSCORE\tDATE")
	for i, e := range entries {
		score := fmt.Sprintf("%d/%d (%d%%)", e.Score, e.Total, e.Percentage)
		if endless {
			score = fmt.Sprintf("%d", e.Score)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, e.Region, e.Mode, score, e.Date)
	}
	_ = w.Flush()
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
