package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tubedl-cli/tubedl/history"
	"github.com/tubedl-cli/tubedl/icon"
	"github.com/tubedl-cli/tubedl/internal/cache"
	"github.com/tubedl-cli/tubedl/util"
	"github.com/tubedl-cli/tubedl/where"
)

// clearTarget is a class of files clearCmd can remove.
type clearTarget struct {
	name  string
	flag  string
	short string
	clear func() error
}

var clearTargets = []clearTarget{
	{"extractor cache", "cache", "c", func() error { return cache.Default().Clear() }},
	{"download history", "history", "s", history.Clear},
	{"temporary files", "temp", "t", func() error { return util.Delete(where.Temp()) }},
	{"logs", "logs", "l", func() error { return util.Delete(where.Logs()) }},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		clearCmd.Flags().BoolP(target.flag, target.short, false, "clear "+target.name)
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached, temporary and historical data",
	Run: func(cmd *cobra.Command, args []string) {
		selected := lo.Filter(clearTargets, func(t clearTarget, _ int) bool {
			return lo.Must(cmd.Flags().GetBool(t.flag))
		})

		if len(selected) == 0 {
			handleErr(cmd.Help())
			return
		}

		for _, target := range selected {
			erase := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
			err := target.clear()
			erase()
			handleErr(err)

			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}
	},
}
