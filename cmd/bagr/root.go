package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/getsentry/raven-go"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ndlib/bagr/bagit"
	"github.com/ndlib/bagr/config"
	"github.com/ndlib/bagr/fixity"
)

// Process exit codes.
const (
	exitOK      = 0
	exitInvalid = 1 // the bag was checked and has problems
	exitFailure = 2 // the command could not be carried out
)

// app holds the global flags and whatever they resolve to.
type app struct {
	bagPath  string
	cfgFile  string
	quiet    bool
	verbose  bool
	debug    bool
	noStyles bool
	workers  int
	rate     float64
	fixityDB string

	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

// run executes the command line args and returns the exit code.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	a := &app{stdout: os.Stdout, stderr: os.Stderr, now: time.Now}
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.Err != nil {
			log.Error(ee.Err)
		}
		return ee.Code
	}
	log.Error(err)
	if a.cfg != nil && a.cfg.SentryDSN != "" {
		raven.CaptureErrorAndWait(err, map[string]string{"bag": a.bagPath})
	}
	return exitFailure
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bagr",
		Short: "Create, validate, and update BagIt bags",
		Long: `bagr works with BagIt bags (RFC 8493) stored as directories.

A bag is a directory with the payload in data/ and a set of tag files
describing it. bagr can turn a directory into a bag, check that a bag is
complete and unmodified, and bring the manifests of a bag back in line
after its payload was changed on purpose.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	f := root.PersistentFlags()
	f.StringVarP(&a.bagPath, "bag-path", "b", ".", "base directory of the bag")
	f.StringVar(&a.cfgFile, "config", "", "config file (default is "+config.DefaultPath()+")")
	f.BoolVarP(&a.quiet, "quiet", "q", false, "only log fatal errors")
	f.BoolVarP(&a.verbose, "verbose", "V", false, "log what is being done")
	f.BoolVar(&a.debug, "debug", false, "log every file and tag")
	f.BoolVarP(&a.noStyles, "no-styles", "S", false, "log without colors")
	f.IntVar(&a.workers, "workers", 0, "number of files to digest at once (default is the number of CPUs)")
	f.Float64Var(&a.rate, "rate", 0, "limit digest reads to this many bytes per second")
	f.StringVar(&a.fixityDB, "fixity-db", "", `record operations in this database ("memory", a QL file, or "mysql:<dial>")`)

	root.AddCommand(a.bagCmd(), a.rebagCmd(), a.validateCmd(), a.infoCmd(), a.historyCmd())
	return root
}

// setup configures logging and loads the config file.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.setupLogging()
	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.Load(a.cfgFile)
	} else {
		a.cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}
	// flags win over the config file
	if cmd.Flags().Changed("workers") {
		a.cfg.Workers = a.workers
	}
	if cmd.Flags().Changed("rate") {
		a.cfg.Rate = a.rate
	}
	if a.fixityDB != "" {
		a.cfg.FixityDB = a.fixityDB
	}
	if a.cfg.SentryDSN != "" {
		if err := raven.SetDSN(a.cfg.SentryDSN); err != nil {
			log.Warn("bad sentry DSN", "err", err)
		}
	}
	return nil
}

func (a *app) setupLogging() {
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "bagr"})
	switch {
	case a.quiet:
		logger.SetLevel(log.FatalLevel)
	case a.debug:
		logger.SetLevel(log.DebugLevel)
		logger.SetReportCaller(true)
	case a.verbose:
		logger.SetLevel(log.InfoLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}
	if a.noStyles || !isTerminal(a.stderr) {
		logger.SetColorProfile(termenv.Ascii)
	}
	log.SetDefault(logger)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// useArgs lets a bag directory given as an argument take the place of
// --bag-path.
// The path is made absolute so the fixity history uses one name per bag.
func (a *app) useArgs(args []string) {
	if len(args) > 0 {
		a.bagPath = args[0]
	}
	if abs, err := filepath.Abs(a.bagPath); err == nil {
		a.bagPath = abs
	}
}

// options builds the bagit options from the config and flags.
func (a *app) options() (*bagit.Options, error) {
	opts, err := a.cfg.Options()
	if err != nil {
		return nil, err
	}
	opts.Now = a.now
	return opts, nil
}

// record adds an event to the fixity database, if one is configured. A
// failure to record is logged but does not fail the command.
func (a *app) record(e *fixity.Event) {
	if a.cfg.FixityDB == "" {
		return
	}
	db, err := fixity.Open(a.cfg.FixityDB)
	if err != nil {
		log.Warn("could not open fixity database", "err", err)
		return
	}
	defer db.Close()
	if err := db.Record(e); err != nil {
		log.Warn("could not record event", "err", err)
	}
}

// event makes an event for the current bag, filling in the status from err.
func (a *app) event(op, status string, err error) *fixity.Event {
	e := &fixity.Event{Bag: a.bagPath, When: a.now(), Operation: op, Status: status}
	if err != nil {
		e.Status = fixity.StatusError
		e.Notes = err.Error()
	}
	return e
}

// exitError ends the command with a particular exit code.
type exitError struct {
	Code int
	Err  error
}

func (e *exitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *exitError) Unwrap() error { return e.Err }
