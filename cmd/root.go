// Package cmd provides the root command and CLI setup for weave.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mouse-blink/weave/internal/adapter"
	"github.com/mouse-blink/weave/internal/config"
	"github.com/mouse-blink/weave/internal/controller"
	"github.com/mouse-blink/weave/internal/domain"
	"github.com/mouse-blink/weave/internal/logging"
	m "github.com/mouse-blink/weave/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var phpAdapter adapter.PHPFileAdapter
var reportStore adapter.ReportStore
var workflow domain.Workflow
var ui controller.UI
var logger = zap.NewNop()
var activeConfig config.Config

// buildWorkflow wires the workflow once the configuration is known.
var buildWorkflow = func(log *zap.Logger, cfg config.Config) domain.Workflow {
	watcher := adapter.NewFSWatcher(adapter.DefaultDebounce, log, m.Path(cfg.Cache))

	return domain.NewWorkflow(fsAdapter, phpAdapter, reportStore, watcher, ui, log)
}

func init() {
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	phpAdapter = adapter.NewLocalPHPFileAdapter()
	reportStore = adapter.NewReportStore()
}

var configFlag string
var srcFlag string
var injectionsFlag string
var cacheFlag string
var copyAllFlag bool
var callSitesFlag bool
var debugFlag bool
var parallelFlag int
var watchFlag bool

const rootLongDescription = `Weave rewrites PHP sources by splicing annotated mixin functions into
target functions, methods, classes and files.

Every file under the injections directory is a mixin unit. Each function in a
unit that is preceded by an annotation such as

  #@Inject(at = "HEAD", target = "index.php/$Findex", offset = 2)

is spliced into its target. The woven sources are written to the cache
directory; nothing is written when any directive fails.

Configuration is read from --config, from --src/--injections/--cache, or from
weave.yaml, weave.yml, weave.toml or php-injector.json in the working directory.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "weave",
		Short:             "PHP mixin source weaver",
		Long:              rootLongDescription,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watchFlag {
				return workflow.Watch(cmd.Context(), weaveArgs(activeConfig))
			}

			return workflow.Weave(cmd.Context(), weaveArgs(activeConfig))
		},
	}
	cmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "path to a weave.yaml, weave.toml or php-injector.json file")
	cmd.PersistentFlags().StringVar(&srcFlag, "src", "", "directory of the PHP sources to weave into")
	cmd.PersistentFlags().StringVar(&injectionsFlag, "injections", "", "directory of the mixin units")
	cmd.PersistentFlags().StringVar(&cacheFlag, "cache", "", "output directory for the woven sources")
	cmd.PersistentFlags().BoolVar(&copyAllFlag, "copy-all", false, "also copy non-PHP files from src to cache")
	cmd.PersistentFlags().BoolVar(&callSitesFlag, "call-sites", false, "weave a call to each wrapped mixin and require its unit")
	cmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	cmd.PersistentFlags().IntVarP(&parallelFlag, "parallel", "p", 0, "number of targets woven in parallel (default GOMAXPROCS)")
	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "weave again whenever injections or sources change")

	return cmd
}

// setup loads the configuration and wires the workflow for every command.
func setup(_ *cobra.Command, _ []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}

	cfg, err := config.Load(wd, config.Overrides{
		ConfigPath: configFlag,
		Injections: injectionsFlag,
		Src:        srcFlag,
		Cache:      cacheFlag,
		CopyAll:    copyAllFlag,
		CallSites:  callSitesFlag,
		Debug:      debugFlag,
		Workers:    parallelFlag,
	})
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Debug)
	if err != nil {
		return err
	}

	logger = log
	activeConfig = cfg
	workflow = buildWorkflow(log, cfg)

	logger.Debug("configuration loaded",
		zap.String("file", cfg.File),
		zap.String("injections", cfg.Injections),
		zap.String("src", cfg.Src),
		zap.String("cache", cfg.Cache),
		zap.Bool("call_sites", cfg.CallSites),
		zap.Bool("use_document_root", cfg.UseDocumentRoot))

	return nil
}

func weaveArgs(cfg config.Config) domain.WeaveArgs {
	return domain.WeaveArgs{
		Injections:   m.Path(cfg.Injections),
		Src:          m.Path(cfg.Src),
		Cache:        m.Path(cfg.Cache),
		Reports:      m.Path(cfg.Reports),
		CopyOther:    cfg.CopyOther,
		Workers:      cfg.Workers,
		CallSites:    cfg.CallSites,
		DocumentRoot: cfg.UseDocumentRoot,
		Origin:       m.Path(cfg.Origin),
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(rootCmd, err)
		stop()
		os.Exit(1)
	}
}

// reportError prints err unless the workflow already displayed it.
func reportError(cmd *cobra.Command, err error) {
	if errors.Is(err, domain.ErrDisplayed) {
		return
	}

	cmd.PrintErrln(cmd.ErrPrefix(), err.Error())
}
