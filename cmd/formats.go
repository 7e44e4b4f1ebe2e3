package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/internal/cache"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/network"
	"github.com/tubedl-cli/tubedl/provider"
	"github.com/tubedl-cli/tubedl/util"
)

func init() {
	rootCmd.AddCommand(formatsCmd)

	formatsCmd.Flags().StringP("sort", "s", "", "Order of the list: best, quality, bitrate, filesize or fps")
	lo.Must0(formatsCmd.RegisterFlagCompletionFunc("sort", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(format.SortKeys(), func(k format.SortKey, _ int) string { return string(k) }), cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.FormatSort, formatsCmd.Flags().Lookup("sort")))

	formatsCmd.Flags().BoolP("reverse", "r", false, "Print the worst formats first")
	formatsCmd.SetOut(os.Stdout)
}

// formatsCmd lists the formats a media item is available in.
var formatsCmd = &cobra.Command{
	Use:   "formats <url>",
	Short: "List the available formats of a media item",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		router := provider.NewRouter(provider.Env{
			Client: network.New(network.OptionsFromViper()),
			Cache:  cache.Default(),
		})

		extraction, err := router.Extract(context.Background(), args[0])
		handleErr(err)

		media, ok := extraction.Left()
		if !ok {
			handleErr(fault.Wrapf(fault.Contract, "formats", "%s is a playlist, pass one of its items", args[0]))
		}

		handleErr(media.Validate())

		formats, err := media.Formats.SortBy(format.SortKey(viper.GetString(key.FormatSort)), lo.Must(cmd.Flags().GetBool("reverse")))
		handleErr(err)

		rows := lo.Map(formats, func(f format.Format, _ int) []string {
			fps := ""
			if f.FPS > 0 {
				fps = strconv.FormatFloat(f.FPS, 'f', -1, 64)
			}

			codec := f.Codec
			if f.Muxed() {
				codec += " + " + f.AudioCodec
			}

			return []string{
				f.ID,
				f.Extension,
				f.Resolution(),
				fps,
				codec,
				fmt.Sprintf("%.0fk", f.Bitrate),
				util.Bytes(f.Filesize.OrEmpty()),
				f.Protocol,
			}
		})

		cmd.Println(media.Title)
		cmd.Println(renderTable(
			[]string{"ID", "Ext", "Resolution", "FPS", "Codec", "Bitrate", "Size", "Protocol"},
			rows,
			alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignRight,
		))
	},
}
