package cmd

import (
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tubedl-cli/tubedl/color"
	"github.com/tubedl-cli/tubedl/config"
	"github.com/tubedl-cli/tubedl/style"
	"github.com/tubedl-cli/tubedl/where"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Only show variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Only show variables that are not set")

	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
	envCmd.SetOut(os.Stdout)
}

// envName maps a configuration key to the environment variable overriding it.
func envName(key string) string {
	if key == where.EnvConfigPath {
		return key
	}
	field := config.Field{Key: key}
	return field.Env()
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the supported environment variables and their values",
	Run: func(cmd *cobra.Command, args []string) {
		setOnly := lo.Must(cmd.Flags().GetBool("set-only"))
		unsetOnly := lo.Must(cmd.Flags().GetBool("unset-only"))

		names := lo.Map(append(slices.Clone(config.EnvExposed), where.EnvConfigPath), func(k string, _ int) string {
			return envName(k)
		})
		slices.Sort(names)

		for _, name := range names {
			value, present := os.LookupEnv(name)
			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			cmd.Print(style.New().Bold(true).Foreground(color.Purple).Render(name), "=")
			if present {
				cmd.Println(style.Fg(color.Green)(value))
			} else {
				cmd.Println(style.Fg(color.Red)("unset"))
			}
		}
	},
}
