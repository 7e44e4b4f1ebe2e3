package cmd

import (
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tubedl-cli/tubedl/color"
	"github.com/tubedl-cli/tubedl/style"
	"github.com/tubedl-cli/tubedl/where"
)

// location is a resource path whereCmd can print.
type location struct {
	name   string
	flag   string
	short  string
	path   func() string
	hidden bool
}

var locations = []location{
	{name: "Config", flag: "config", short: "c", path: where.Config},
	{name: "Downloads", flag: "downloads", short: "d", path: where.Downloads},
	{name: "Extractors", flag: "extractors", short: "e", path: where.Extractors},
	{name: "Logs", flag: "logs", short: "l", path: where.Logs},
	{name: "Cache", flag: "cache", path: where.Cache, hidden: true},
	{name: "Temp", flag: "temp", path: where.Temp, hidden: true},
	{name: "History", flag: "history", path: where.History, hidden: true},
	{name: "Locks", flag: "locks", path: where.Locks, hidden: true},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, l := range locations {
		whereCmd.Flags().BoolP(l.flag, l.short, false, l.name+" path")
		if l.hidden {
			lo.Must0(whereCmd.Flags().MarkHidden(l.flag))
		}
	}

	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(locations, func(l location, _ int) string {
		return l.flag
	})...)

	whereCmd.SetOut(os.Stdout)
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration, downloads and other files live",
	Run: func(cmd *cobra.Command, args []string) {
		for _, l := range locations {
			if lo.Must(cmd.Flags().GetBool(l.flag)) {
				cmd.Println(l.path())
				return
			}
		}

		header := style.New().Bold(true).Foreground(color.HiPurple).Render
		visible := lo.Reject(locations, func(l location, _ int) bool { return l.hidden })

		for i, l := range visible {
			cmd.Printf("%s %s\n", header(l.name+"?"), style.Fg(color.Yellow)("--"+l.flag))
			cmd.Println(l.path())

			if i < len(visible)-1 {
				cmd.Println()
			}
		}
	},
}
