package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/dronecheck/internal/catalog"
	"github.com/dshills/dronecheck/internal/classify"
	"github.com/dshills/dronecheck/internal/config"
	"github.com/dshills/dronecheck/internal/daylight"
	"github.com/dshills/dronecheck/internal/geo"
	"github.com/dshills/dronecheck/internal/llm"
	"github.com/dshills/dronecheck/internal/logging"
	"github.com/dshills/dronecheck/internal/redact"
	"github.com/dshills/dronecheck/internal/render"
	"github.com/dshills/dronecheck/internal/schema"
	"github.com/dshills/dronecheck/internal/session"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// now is the clock used for the daylight section of a report.
var now = time.Now

const (
	exitUsage      = 1
	exitInvalid    = 3
	exitProvider   = 4
	exitClassifier = 5
	exitGeo        = 6
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile  string
	catalogPath string
}

// checkFlags holds the parsed flags for the check command.
type checkFlags struct {
	class       string
	lat         float64
	lon         float64
	latSet      bool
	lonSet      bool
	geoSource   string
	format      string
	out         string
	model       string
	temperature float64
	tempSet     bool
	maxTokens   int
	timeout     time.Duration
	verbose     bool
	debug       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	var ee *exitErr
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "dronecheck",
		Short:         "Check whether a drone flight is allowed where you stand",
		Long:          "dronecheck asks a language model whether flying a drone of a given EASA class is allowed at the current location, under French DGAC/EASA rules.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "Config file (default $HOME/.config/dronecheck/dronecheck.yaml)")
	pf.StringVar(&g.catalogPath, "catalog", "", "Regulation catalog YAML overriding the bundled one")

	root.AddCommand(
		newCheckCmd(&g),
		newClassesCmd(&g),
		newCatalogCmd(&g),
		newVersionCmd(),
	)
	return root
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	var flags checkFlags
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate flight compliance for a drone class at the current location",
		Long: "Evaluate whether a drone of the given class may fly at the current location.\n" +
			"The location comes from --lat/--lon, the config file or IP geolocation.\n\n" +
			render.Disclaimer,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.latSet = cmd.Flags().Changed("lat")
			flags.lonSet = cmd.Flags().Changed("lon")
			flags.tempSet = cmd.Flags().Changed("temperature")
			return runCheck(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), *g, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.class, "class", "", "Drone class ID (C0-C6)")
	f.Float64Var(&flags.lat, "lat", 0, "Latitude in decimal degrees; with --lon, skips geolocation")
	f.Float64Var(&flags.lon, "lon", 0, "Longitude in decimal degrees; with --lat, skips geolocation")
	f.StringVar(&flags.geoSource, "geo", "", "Geolocation source: ip or none (default from config)")
	f.StringVar(&flags.format, "format", "text", "Output format: text, json or md")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	f.StringVar(&flags.model, "model", "", "Model as provider:model (default from config, "+llm.DefaultModel+")")
	f.Float64Var(&flags.temperature, "temperature", 0, "LLM temperature (default from config)")
	f.IntVar(&flags.maxTokens, "max-tokens", 0, "Maximum response tokens (default from config)")
	f.DurationVar(&flags.timeout, "timeout", 0, "Model call timeout (default from config)")
	f.BoolVar(&flags.verbose, "verbose", false, "Log processing steps to stderr")
	f.BoolVar(&flags.debug, "debug", false, "Dump the redacted prompt to stderr")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dronecheck version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "dronecheck %s\n", version)
			return err
		},
	}
}

// loadSettings resolves config and catalog for a command. --catalog wins
// over the configured catalog path.
func loadSettings(g globalFlags) (*config.Config, *catalog.Catalog, error) {
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return nil, nil, codeError(exitInvalid, "loading config: %s", err)
	}
	if g.catalogPath != "" {
		cfg.Catalog.Path = g.catalogPath
	}
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, codeError(exitInvalid, "loading catalog: %s", err)
	}
	return cfg, cat, nil
}

// applyCheckFlags overlays explicitly set flags onto cfg.
func applyCheckFlags(cfg *config.Config, flags checkFlags) error {
	if flags.model != "" {
		cfg.Model = flags.model
	}
	if flags.tempSet {
		cfg.LLM.Temperature = flags.temperature
	}
	if flags.maxTokens != 0 {
		cfg.LLM.MaxTokens = flags.maxTokens
	}
	if flags.timeout != 0 {
		cfg.LLM.Timeout = flags.timeout
	}
	if flags.latSet != flags.lonSet {
		return errors.New("--lat and --lon must be given together")
	}
	if flags.latSet {
		if flags.geoSource != "" {
			return errors.New("--geo cannot be combined with --lat/--lon")
		}
		lat, lon := flags.lat, flags.lon
		cfg.Geo.Source = string(geo.SourceFixed)
		cfg.Geo.Latitude, cfg.Geo.Longitude = &lat, &lon
	} else if flags.geoSource != "" {
		switch geo.Source(flags.geoSource) {
		case geo.SourceIP, geo.SourceNone:
		default:
			return fmt.Errorf("--geo must be ip or none, got %q", flags.geoSource)
		}
		cfg.Geo.Source = flags.geoSource
	}
	return cfg.Validate()
}

func geoConfig(cfg *config.Config) geo.Config {
	gc := geo.Config{Source: geo.Source(cfg.Geo.Source), LookupURL: cfg.Geo.LookupURL}
	if cfg.Geo.Latitude != nil && cfg.Geo.Longitude != nil {
		gc.Fixed = &schema.Location{Latitude: *cfg.Geo.Latitude, Longitude: *cfg.Geo.Longitude}
	}
	return gc
}

func runCheck(ctx context.Context, stdout, stderr io.Writer, g globalFlags, flags checkFlags) error {
	// --- Step 1: Resolve settings ---
	cfg, cat, err := loadSettings(g)
	if err != nil {
		return err
	}
	if err := applyCheckFlags(cfg, flags); err != nil {
		return codeError(exitInvalid, "invalid flags: %s", err)
	}
	renderer, err := render.NewRenderer(flags.format)
	if err != nil {
		return codeError(exitInvalid, "invalid flags: %s", err)
	}

	level := cfg.Log.Level
	if flags.verbose || flags.debug {
		level = "debug"
	}
	logger, err := logging.New(stderr, level, cfg.Log.Format, "dronecheck")
	if err != nil {
		return codeError(exitInvalid, "configuring logger: %s", err)
	}

	// --- Step 2: Validate the query before any network call ---
	classID := strings.ToUpper(strings.TrimSpace(flags.class))
	if !cat.HasClass(classID) {
		return codeError(exitInvalid, "unknown drone class %q: valid classes are %s",
			flags.class, strings.Join(cat.ClassIDs(), ", "))
	}
	if loc := geoConfig(cfg).Fixed; loc != nil {
		if err := loc.Validate(); err != nil {
			return codeError(exitInvalid, "invalid coordinates: %s", err)
		}
	}

	// --- Step 3: Build providers ---
	geoProvider, err := geo.New(geoConfig(cfg))
	if err != nil {
		return codeError(exitInvalid, "configuring geolocation: %s", err)
	}
	logger.Debug("geolocation configured", "source", cfg.Geo.Source)

	provider, err := llm.NewProvider(cfg.Model, llm.Options{APIKey: cfg.LLM.APIKey, Timeout: cfg.LLM.Timeout})
	if err != nil {
		return codeError(exitProvider, "creating LLM provider: %s", err)
	}

	opts := []classify.Option{
		classify.WithLogger(logger.With("component", "classify")),
		classify.WithTemperature(cfg.LLM.Temperature),
		classify.WithMaxTokens(cfg.LLM.MaxTokens),
	}
	if flags.debug {
		opts = append(opts, classify.WithPromptHook(func(prompt string) {
			fmt.Fprintf(stderr, "=== DEBUG: redacted prompt ===\n%s\n=== END DEBUG ===\n",
				redact.Secrets(prompt, cfg.LLM.APIKey))
		}))
	}
	classifier, err := classify.New(cat, provider, opts...)
	if err != nil {
		return codeError(exitProvider, "creating classifier: %s", err)
	}

	// --- Step 4: Run the check ---
	logger.Debug("calling model", "model", cfg.Model, "class", classID)
	sess := session.New(geoProvider, classifier, logger.With("component", "session"))
	st, err := sess.Run(ctx, classID)
	if err != nil {
		return checkError(logger, err)
	}

	// --- Step 5: Render ---
	report := buildReport(st)
	if st.Location != nil {
		d, err := daylight.At(*st.Location, now())
		if err != nil {
			logger.Debug("daylight unavailable", "error", err)
		} else {
			report.Daylight = d
		}
	}
	out, err := renderer.Render(report)
	if err != nil {
		return codeError(exitInvalid, "rendering output: %s", err)
	}
	return writeOutput(stdout, flags.out, out)
}

// checkError maps a failed check onto its exit code and user message.
func checkError(logger *slog.Logger, err error) error {
	msg := session.UserMessage(err)
	if errors.Is(err, geo.ErrUnavailable) || errors.Is(err, geo.ErrDenied) {
		return codeError(exitGeo, "%s", msg)
	}
	if kind := classify.KindOf(err); kind != "" {
		logger.Debug("check failed", "kind", kind, "error", err)
		if kind == classify.KindInvalidInput {
			return codeError(exitInvalid, "%s", msg)
		}
	}
	return codeError(exitClassifier, "%s", msg)
}

func buildReport(st session.State) *schema.Report {
	report := &schema.Report{
		Tool:    "dronecheck",
		Version: version,
		CheckID: st.CheckID,
		Query:   schema.Query{ClassID: st.ClassID},
	}
	if st.Location != nil {
		report.Query.Location = *st.Location
	}
	if out := st.Outcome; out != nil {
		report.Class = out.Class.Name
		report.Result = out.Result
		report.Meta = schema.Meta{Model: out.Model, DurationMS: out.Duration.Milliseconds()}
	}
	return report
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return codeError(exitInvalid, "writing output file: %s", err)
		}
		return nil
	}
	if _, err := stdout.Write(data); err != nil {
		return codeError(exitInvalid, "writing output: %s", err)
	}
	// Ensure output ends with a newline for terminal friendliness.
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(stdout)
	}
	return nil
}
