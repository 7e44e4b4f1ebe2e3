package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tubedl-cli/tubedl/color"
	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/filesystem"
	"github.com/tubedl-cli/tubedl/icon"
	"github.com/tubedl-cli/tubedl/internal/cache"
	"github.com/tubedl-cli/tubedl/network"
	"github.com/tubedl-cli/tubedl/output"
	"github.com/tubedl-cli/tubedl/provider"
	"github.com/tubedl-cli/tubedl/provider/custom"
	"github.com/tubedl-cli/tubedl/style"
	"github.com/tubedl-cli/tubedl/util"
	"github.com/tubedl-cli/tubedl/where"
)

func init() {
	rootCmd.AddCommand(extractorsCmd)
}

// extractorsCmd groups the commands managing built-in and Lua extractors.
var extractorsCmd = &cobra.Command{
	Use:   "extractors",
	Short: "Manage built-in and custom Lua extractors",
}

func init() {
	extractorsCmd.AddCommand(extractorsListCmd)

	extractorsListCmd.Flags().BoolP("raw", "r", false, "Suppress headers and print names only")
	extractorsListCmd.Flags().BoolP("custom", "c", false, "Display only user-installed Lua extractors")
	extractorsListCmd.Flags().BoolP("builtin", "b", false, "Display only built-in extractors")

	extractorsListCmd.MarkFlagsMutuallyExclusive("custom", "builtin")
	extractorsListCmd.SetOut(os.Stdout)
}

var extractorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Display every registered extractor and the hosts it claims",
	Run: func(cmd *cobra.Command, args []string) {
		var providers []*provider.Provider
		switch {
		case lo.Must(cmd.Flags().GetBool("builtin")):
			providers = provider.Builtins()
		case lo.Must(cmd.Flags().GetBool("custom")):
			providers = provider.Customs()
		default:
			providers = provider.All()
		}

		if lo.Must(cmd.Flags().GetBool("raw")) {
			for _, p := range providers {
				cmd.Println(p.Name)
			}
			return
		}

		rows := lo.Map(providers, func(p *provider.Provider, _ int) []string {
			kind := lo.Ternary(p.IsCustom, "custom", "builtin")
			return []string{p.Name, kind, strings.Join(p.Hosts, ", ")}
		})

		cmd.Println(renderTable([]string{"Name", "Kind", "Hosts"}, rows))
	},
}

func completionCustomExtractors(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	files, err := filesystem.API().ReadDir(where.Extractors())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	return lo.FilterMap(files, func(item os.FileInfo, _ int) (string, bool) {
		name := item.Name()
		if !strings.HasSuffix(name, provider.CustomProviderExtension) {
			return "", false
		}

		return util.FileStem(name), true
	}), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	extractorsCmd.AddCommand(extractorsRemoveCmd)

	extractorsRemoveCmd.Flags().StringArrayP("name", "n", []string{}, "Name of the custom extractor(s) to uninstall")
	lo.Must0(extractorsRemoveCmd.MarkFlagRequired("name"))
	lo.Must0(extractorsRemoveCmd.RegisterFlagCompletionFunc("name", completionCustomExtractors))
}

var extractorsRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Uninstall custom Lua extractors",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range lo.Must(cmd.Flags().GetStringArray("name")) {
			path := filepath.Join(where.Extractors(), name+provider.CustomProviderExtension)
			handleErr(filesystem.API().Remove(path))
			fmt.Printf("%s successfully removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
		}
	},
}

func init() {
	extractorsCmd.AddCommand(extractorsGenCmd)

	extractorsGenCmd.Flags().StringP("name", "n", "", "Name of the new extractor")
	extractorsGenCmd.Flags().StringSliceP("hosts", "H", nil, "Hosts the extractor claims, e.g. example.com")

	lo.Must0(extractorsGenCmd.MarkFlagRequired("name"))
	lo.Must0(extractorsGenCmd.MarkFlagRequired("hosts"))
}

// extractorsGenCmd scaffolds a Lua extractor defining the functions the loader requires.
var extractorsGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Scaffold a new Lua extractor script",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SetOut(os.Stdout)

		author := "Anonymous"
		if usr, err := user.Current(); err == nil {
			author = usr.Username
		}

		s := struct {
			Name      string
			Hosts     string
			Author    string
			ExtractFn string
			ResolveFn string
		}{
			Name:      lo.Must(cmd.Flags().GetString("name")),
			Hosts:     strings.Join(lo.Must(cmd.Flags().GetStringSlice("hosts")), ", "),
			Author:    author,
			ExtractFn: constant.ExtractFn,
			ResolveFn: constant.ResolveFn,
		}

		funcMap := template.FuncMap{
			"repeat": strings.Repeat,
			"plus":   func(a, b int) int { return a + b },
			"max":    func(values ...int) int { return lo.Max(values) },
		}

		tmpl, err := template.New("extractor").Funcs(funcMap).Parse(constant.ExtractorTemplate)
		handleErr(err)

		name := strings.ReplaceAll(output.Sanitize(s.Name), string(filepath.Separator), "_")
		if name == "" {
			handleErr(fmt.Errorf("invalid extractor name %q", s.Name))
		}

		target := filepath.Join(where.Extractors(), name+provider.CustomProviderExtension)
		f, err := filesystem.API().Create(target)
		handleErr(err)

		defer f.Close()

		handleErr(tmpl.Execute(f, s))

		cmd.Println(target)
	},
}

func init() {
	extractorsCmd.AddCommand(extractorsRunCmd)

	extractorsRunCmd.Flags().StringP("name", "n", "", "Name of the custom extractor to run")
	lo.Must0(extractorsRunCmd.MarkFlagRequired("name"))
	lo.Must0(extractorsRunCmd.RegisterFlagCompletionFunc("name", completionCustomExtractors))
}

// extractorsRunCmd runs a Lua extractor against a URL and prints what it returned, for script authors.
var extractorsRunCmd = &cobra.Command{
	Use:   "run <url>",
	Short: "Run a custom Lua extractor and print its result as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := lo.Must(cmd.Flags().GetString("name"))
		path := filepath.Join(where.Extractors(), name+provider.CustomProviderExtension)

		extractor, err := custom.Load(path, custom.Options{
			Client: network.New(network.OptionsFromViper()),
			Cache:  cache.Default(),
		})
		handleErr(err)
		defer extractor.Close()

		extraction, err := extractor.Extract(context.Background(), args[0])
		handleErr(err)

		var value any
		if media, ok := extraction.Left(); ok {
			value = media
		} else {
			value = extraction.MustRight()
		}

		encoded, err := json.MarshalIndent(value, "", "  ")
		handleErr(err)

		cmd.SetOut(os.Stdout)
		cmd.Println(string(encoded))
	},
}
