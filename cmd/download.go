package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/batch"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/filesystem"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/history"
	"github.com/tubedl-cli/tubedl/icon"
	"github.com/tubedl-cli/tubedl/inline"
	"github.com/tubedl-cli/tubedl/internal/cache"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/log"
	"github.com/tubedl-cli/tubedl/network"
	"github.com/tubedl-cli/tubedl/output"
	"github.com/tubedl-cli/tubedl/pipeline"
	"github.com/tubedl-cli/tubedl/processor"
	"github.com/tubedl-cli/tubedl/progress"
	"github.com/tubedl-cli/tubedl/provider"
	"github.com/tubedl-cli/tubedl/scratch"
	"github.com/tubedl-cli/tubedl/source"
	"github.com/tubedl-cli/tubedl/style"
	"github.com/tubedl-cli/tubedl/transport"
	"github.com/tubedl-cli/tubedl/tui"
	"github.com/tubedl-cli/tubedl/util"
	"github.com/tubedl-cli/tubedl/where"
)

// Progress display modes accepted by cli.progress.
const (
	modeAuto  = "auto"
	modeTUI   = "tui"
	modePlain = "plain"
	modeNone  = "none"
)

// setup wires the collaborators of a download from the current configuration.
func setup() (pipeline.Deps, format.Config, error) {
	fs := filesystem.API().Fs

	var proc pipeline.Processor
	if ffmpeg, err := processor.Detect(processor.OptionsFromViper(), fs); err == nil {
		proc = ffmpeg
	} else {
		log.Warn(err)
		warnMissingProcessor(os.Stderr)
	}

	client := network.New(network.OptionsFromViper())
	store := cache.Default()

	var routerOpts []provider.RouterOption
	if viper.GetBool(key.ExtractorCache) {
		routerOpts = append(routerOpts, provider.WithCache(provider.NewCache(store)))
	}

	var locker output.Locker = output.NoLock{}
	if viper.GetBool(key.DownloadPathLock) {
		if fileLocker, err := output.NewFileLocker(where.Locks()); err == nil {
			locker = fileLocker
		} else {
			log.Warnf("file locks unavailable, locking in process only: %s", err)
			locker = output.NewKeyedLocker()
		}
	}

	deps := pipeline.Deps{
		Extractor: provider.NewRouter(provider.Env{Client: client, Cache: store}, routerOpts...),
		Transport: transport.New(client, fs, transport.OptionsFromViper()),
		Processor: proc,
		Output:    output.NewResolver(fs, where.Downloads()),
		Locker:    locker,
		Scratch:   scratch.New(fs, where.Temp()),
		FS:        fs,
	}

	cfg := format.ConfigFromViper(proc != nil)
	if _, err := format.ParseType(viper.GetString(key.FormatType)); err != nil {
		return deps, cfg, fault.Wrap(fault.Contract, "config", err)
	}

	return deps, cfg, nil
}

// inputOf turns command arguments into a batch input. A single URL may be a playlist.
func inputOf(urls []string) batch.Input {
	if len(urls) == 1 {
		return batch.PlaylistURL(urls[0])
	}

	return batch.List(lo.Map(urls, func(url string, _ int) source.Reference {
		return source.Reference{URL: url}
	}))
}

// progressMode resolves cli.progress, falling back to plain lines when stdout is not a terminal.
func progressMode(json bool) (string, error) {
	mode := strings.ToLower(viper.GetString(key.CliProgress))
	switch mode {
	case modeAuto, "":
		if !json && util.IsTerminal(os.Stdout) {
			return modeTUI, nil
		}
		return modePlain, nil
	case modeTUI, modePlain, modeNone:
		if json && mode == modeTUI {
			return modePlain, nil
		}
		return mode, nil
	default:
		return "", fault.Wrapf(fault.Contract, "config", "unknown progress mode %q, expected one of auto, tui, plain, none", mode)
	}
}

func download(cmd *cobra.Command, urls []string) error {
	asJSON := lo.Must(cmd.Flags().GetBool("json"))

	mode, err := progressMode(asJSON)
	if err != nil {
		return err
	}

	deps, cfg, err := setup()
	if err != nil {
		return err
	}

	input := inputOf(urls)
	opts := batch.OptionsFromViper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		summary  *batch.Summary
		runErr   error
		reporter *inline.Reporter
	)

	switch mode {
	case modeTUI:
		var o *batch.Orchestrator
		dashboard := tui.New(tui.Options{
			Title:   strings.Join(urls, " "),
			Cancel:  cancel,
			Abandon: func() { o.Abandon() },
		})

		opts.Observer = dashboard
		o = batch.New(deps, cfg, opts)

		summary, runErr = dashboard.Run(func() (*batch.Summary, error) {
			return o.Run(ctx, input)
		})
	default:
		if mode == modeNone && !asJSON {
			opts.Observer = progress.Discard{}
		} else {
			reporter = inline.New(inline.Options{Out: os.Stdout, JSON: asJSON})
			opts.Observer = reporter
		}

		o := batch.New(deps, cfg, opts)
		stop := batch.Interrupts(cancel, o)
		summary, runErr = o.Run(ctx, input)
		stop()
	}

	if summary != nil {
		if viper.GetBool(key.DownloadHistory) {
			if err := history.Save(records(summary, len(urls) == 1)...); err != nil {
				log.Warnf("saving history: %s", err)
			}
		}

		if reporter != nil && asJSON {
			reporter.Summary(inline.SummaryOf(summary))
		} else {
			printSummary(summary)
		}
	}

	if runErr != nil {
		return runErr
	}

	if summary != nil && summary.Failed() > 0 {
		os.Exit(1)
	}

	return nil
}

// records converts finished items to history entries. Skipped and failed items are not recorded.
func records(summary *batch.Summary, fromPlaylist bool) []*history.Record {
	var playlist string
	if _, err := uuid.Parse(summary.BatchID); fromPlaylist && err != nil {
		playlist = summary.BatchID
	}

	return lo.FilterMap(summary.Results, func(r pipeline.Result, _ int) (*history.Record, bool) {
		if r.Status != pipeline.StatusSuccess && r.Status != pipeline.StatusWithErrors {
			return nil, false
		}

		return &history.Record{
			ID:       r.ItemID,
			URL:      r.URL,
			Title:    r.Title,
			Path:     r.Path,
			Status:   r.Status.String(),
			Bytes:    r.Bytes,
			Playlist: playlist,
		}, true
	})
}

func printSummary(summary *batch.Summary) {
	fmt.Println(renderTable(
		[]string{"Succeeded", "With errors", "Skipped", "Failed", "Total"},
		[][]string{{
			strconv.Itoa(summary.Succeeded()),
			strconv.Itoa(summary.WithErrors()),
			strconv.Itoa(summary.Skipped()),
			strconv.Itoa(summary.Failed()),
			strconv.Itoa(summary.Total),
		}},
		alignRight, alignRight, alignRight, alignRight, alignRight,
	))

	for _, r := range summary.Results {
		name := lo.Ternary(r.Title != "", r.Title, r.ItemID)

		switch r.Status {
		case pipeline.StatusError:
			fmt.Printf("%s %s: %s\n", style.Fg(style.HiRed)(icon.Get(icon.Fail)), name, fault.Message(r.Err))
		case pipeline.StatusWithErrors:
			fmt.Printf("%s %s: %s\n", style.Fg(style.WarningColor)(icon.Get(icon.Warn)), name, strings.Join(r.Failures, "; "))
		}
	}
}
