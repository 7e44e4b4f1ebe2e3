package cmd

import (
	"os"
	"runtime"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tubedl-cli/tubedl/color"
	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/style"
	"github.com/tubedl-cli/tubedl/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Print the version number only")
}

var versionTemplate = template.Must(template.New("version").Funcs(template.FuncMap{
	"faint": style.Faint,
	"bold":  style.Bold,
	"red":   style.Fg(color.HiRed),
}).Parse(`{{ red "▶" }} {{ red .App }}

  {{ faint "Version   " }} {{ bold .Version }}
  {{ faint "Revision  " }} {{ bold .Revision }}
  {{ faint "Built at  " }} {{ bold .BuiltAt }}
  {{ faint "Built by  " }} {{ bold .BuiltBy }}
  {{ faint "Platform  " }} {{ bold .Platform }}
  {{ faint "User agent" }} {{ bold .UserAgent }}
`))

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		defer version.Notify()

		handleErr(versionTemplate.Execute(cmd.OutOrStdout(), map[string]string{
			"App":       constant.App,
			"Version":   constant.Version,
			"Revision":  constant.Revision,
			"BuiltAt":   strings.TrimSpace(constant.BuiltAt),
			"BuiltBy":   constant.BuiltBy,
			"Platform":  runtime.GOOS + "/" + runtime.GOARCH,
			"UserAgent": constant.UserAgent,
		}))
	},
}
