// Package cmd implements the command-line interface for tubedl.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/color"
	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/icon"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/log"
	"github.com/tubedl-cli/tubedl/style"
	"github.com/tubedl-cli/tubedl/version"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.Flags().StringP("output-template", "o", "", "Output path template, e.g. \"{playlist_title}/{title}\"")
	lo.Must0(viper.BindPFlag(key.DownloadOutputTemplate, rootCmd.Flags().Lookup("output-template")))

	rootCmd.Flags().StringP("path", "p", "", "Directory downloads are written to")
	lo.Must0(viper.BindPFlag(key.DownloadPath, rootCmd.Flags().Lookup("path")))

	rootCmd.Flags().IntP("workers", "w", 0, "Number of items downloaded in parallel")
	lo.Must0(viper.BindPFlag(key.DownloadWorkers, rootCmd.Flags().Lookup("workers")))

	rootCmd.Flags().StringP("type", "t", "", "Preferred stream type: video or audio")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"video", "audio"}, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.FormatType, rootCmd.Flags().Lookup("type")))

	rootCmd.Flags().StringP("extension", "e", "", "Convert the result to this extension, e.g. mp4, mkv, mp3")
	lo.Must0(viper.BindPFlag(key.FormatExtension, rootCmd.Flags().Lookup("extension")))

	rootCmd.Flags().IntP("quality", "q", 0, "Target video height or audio bitrate in kbps")
	lo.Must0(viper.BindPFlag(key.FormatQuality, rootCmd.Flags().Lookup("quality")))

	rootCmd.Flags().Bool("no-process", false, "Do not use ffmpeg, only download streams that are complete on their own")
	rootCmd.Flags().Bool("no-metadata", false, "Do not embed tags, subtitles or thumbnails")
	rootCmd.Flags().BoolP("json", "j", false, "Report progress and the summary as JSON lines")

	rootCmd.Flags().String("progress", "", "Progress display: auto, tui, plain or none")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("progress", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "tui", "plain", "none"}, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.CliProgress, rootCmd.Flags().Lookup("progress")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})
}

// rootCmd downloads the media behind the given URLs.
var rootCmd = &cobra.Command{
	Use:   constant.App + " [urls...]",
	Short: "Download videos, audio and playlists from media sites",
	Long: style.New().Bold(true).Foreground(color.HiRed).Render(constant.App) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Download videos, audio and playlists from media sites"),
	Example: `  tubedl https://www.youtube.com/watch?v=jNQXAC9IVRw
  tubedl -t audio -e mp3 https://music.youtube.com/playlist?list=...
  tubedl -o "{playlist_title}/{playlist_index} {title}" --progress plain URL`,
	Args: cobra.ArbitraryArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("no-process")) {
			viper.Set(key.ProcessorEnable, false)
		}

		if lo.Must(cmd.Flags().GetBool("no-metadata")) {
			viper.Set(key.MetadataEmbed, false)
			viper.Set(key.MetadataSubtitles, false)
			viper.Set(key.MetadataThumbnail, false)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		handleErr(download(cmd, args))
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(fault.Message(err), " \n"))
		os.Exit(1)
	}
}
