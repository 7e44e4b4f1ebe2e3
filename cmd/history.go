package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tubedl-cli/tubedl/color"
	"github.com/tubedl-cli/tubedl/history"
	"github.com/tubedl-cli/tubedl/icon"
	"github.com/tubedl-cli/tubedl/open"
	"github.com/tubedl-cli/tubedl/style"
	"github.com/tubedl-cli/tubedl/util"
)

func init() {
	rootCmd.AddCommand(historyCmd)
}

// historyCmd groups the commands over finished downloads.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage the history of finished downloads",
}

func init() {
	historyCmd.AddCommand(historyListCmd)

	historyListCmd.Flags().IntP("limit", "l", 0, "Show at most this many records, most recent first")
	historyListCmd.Flags().BoolP("paths", "p", false, "Print file paths only")
	historyListCmd.Flags().StringP("search", "s", "", "Only show records whose title fuzzily matches")
	historyListCmd.SetOut(os.Stdout)
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List finished downloads, most recent first",
	Run: func(cmd *cobra.Command, args []string) {
		var records []*history.Record
		if query := lo.Must(cmd.Flags().GetString("search")); query != "" {
			records = history.Search(query)
		} else {
			var err error
			records, err = history.List()
			handleErr(err)
		}

		if limit := lo.Must(cmd.Flags().GetInt("limit")); limit > 0 && len(records) > limit {
			records = records[:limit]
		}

		if lo.Must(cmd.Flags().GetBool("paths")) {
			for _, r := range records {
				cmd.Println(r.Path)
			}
			return
		}

		if len(records) == 0 {
			cmd.Println("No downloads recorded yet")
			return
		}

		rows := lo.Map(records, func(r *history.Record, _ int) []string {
			return []string{
				r.FinishedAt.Local().Format(time.DateTime),
				r.Title,
				r.Status,
				util.Bytes(r.Bytes),
				r.Path,
			}
		})

		cmd.Println(renderTable([]string{"Finished", "Title", "Status", "Size", "Path"}, rows,
			alignLeft, alignLeft, alignLeft, alignRight))
		cmd.Println(util.Quantify(len(records), "record", "records"))
	},
}

func init() {
	historyCmd.AddCommand(historyRemoveCmd)
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <id|url>...",
	Short: "Forget specific downloads",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, id := range args {
			handleErr(history.Remove(id))
			fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(id))
		}
	},
}

func init() {
	historyCmd.AddCommand(historyOpenCmd)
	historyOpenCmd.Flags().BoolP("reveal", "r", false, "Open the containing directory instead")
}

var historyOpenCmd = &cobra.Command{
	Use:   "open <id|url|title>",
	Short: "Open a downloaded file with the default application",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		record, ok := history.Find(args[0])
		if !ok {
			handleErr(fmt.Errorf("no download matches %q", args[0]))
		}

		if lo.Must(cmd.Flags().GetBool("reveal")) {
			handleErr(open.Reveal(record.Path))
		} else {
			handleErr(open.Start(record.Path))
		}

		fmt.Printf("%s %s\n", icon.Get(icon.Link), record.Path)
	},
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every finished download",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(history.Clear())
		fmt.Printf("%s history cleared\n", icon.Get(icon.Success))
	},
}
