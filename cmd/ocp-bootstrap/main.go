package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/SentimensRG/sigctx"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/titpetric/ocpbootstrap/bootstrap"
	"github.com/titpetric/ocpbootstrap/inject"
	"github.com/titpetric/ocpbootstrap/internal"
	"github.com/titpetric/ocpbootstrap/internal/log"
	"github.com/titpetric/ocpbootstrap/progress"
)

var rootCmd = &cobra.Command{
	Use:   "ocp-bootstrap",
	Short: "Install or upgrade the OCP Express metadata store",
	Long: `Installs or upgrades the OCP Express metadata store from the bundled
module documents, then serves the progress probe until interrupted.

Arguments are shared with the host process; unknown flags are ignored.
  --bootstrap              enable data initialization
  --install / --upgrade    force the action, detected when omitted
  --port                   probe port (default 8180)
  --with-property k:v      property override, repeatable
  --meta-address, --meta-database, --meta-user, --meta-password
  --progress-log           append progress lines to this file`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBootstrap(sigctx.New(), args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ocp-bootstrap %s %s\n", bootstrap.Version, bootstrap.BuildTime)
	},
}

var runBootstrap = run

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	log.Init()
	defer log.Flush()

	if err := rootCmd.Execute(); err != nil {
		color.Red("bootstrap failed: %v", err)
		log.Flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	b, err := inject.NewBootstrap()
	if err != nil {
		return err
	}

	// a signal stops the probe server, never a running migration
	if err := b.Initialize(internal.ContextWithoutCancel(ctx), args); err != nil {
		printSummary(b.Progress().Status())
		internal.CaptureError(internal.ContextWithoutCancel(ctx), err)
		return err
	}
	if b.Params().Bootstrap {
		printSummary(b.Progress().Status())
	}
	return serve(ctx, b.Port(), b.Progress())
}

func printSummary(status progress.Status) {
	for _, run := range status.Runs {
		state := color.GreenString("ok")
		if run.Error != "" {
			state = color.RedString("failed: %s", run.Error)
		} else if !run.Done {
			state = color.YellowString("incomplete")
		}
		fmt.Printf("%s %s %s\n", color.CyanString(run.Name), run.Action, state)
		for _, stage := range run.Stages {
			fmt.Printf("  %-18s %d/%d\n", stage.Stage, stage.FinishedTasks, stage.TotalTasks)
		}
	}
}

func serve(ctx context.Context, port int, p *progress.Progress) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: internal.WrapAll(progress.StatusHandler(p)),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warningf("probe server shutdown: %v", err)
		}
	}()

	log.Infof("serving progress probe on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
