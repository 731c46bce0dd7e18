package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/spf13/cobra"
)

var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "Level, streak and active quests",
	RunE:  withSession(runGame),
}

func init() {
	rootCmd.AddCommand(gameCmd)
}

func runGame(ctx context.Context, a *app, _ model.User, _ []string) error {
	g, err := a.client.GameProgress(ctx)
	if err != nil {
		return fmt.Errorf("loading progress: %w", err)
	}

	current, span := finance.LevelProgress(g.Points)
	pct := 0.0
	if span > 0 {
		pct = float64(current) / float64(span) * 100
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("LEVEL %d", g.Level)))
	fmt.Println()
	fmt.Println(cli.RenderKV("Points", cli.FormatNumber(int64(g.Points)), 8))
	fmt.Println(cli.RenderKV("Streak", fmt.Sprintf("%d %s", g.StreakCount, plural(g.StreakCount, "day", "days")), 8))
	fmt.Printf("  %s  %d/%d XP to level %d\n\n", cli.RenderProgressBar(pct, 30), current, span, g.Level+1)

	quests := finance.Quests(*g)
	if len(quests) == 0 {
		fmt.Println("  No active quests.")
		fmt.Println()
		return nil
	}
	rows := make([][]string, 0, len(quests))
	for _, q := range quests {
		mark := " "
		if q.Completed {
			mark = "x"
		}
		rows = append(rows, []string{"[" + mark + "]", q.Title, q.Description, fmt.Sprintf("+%d", q.Points)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Quests",
		Headers: []string{"", "Quest", "Goal", "XP"},
		Rows:    rows,
	}))
	return nil
}
