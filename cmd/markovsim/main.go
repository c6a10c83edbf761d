package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/markovsim/internal/analysis"
	"github.com/san-kum/markovsim/internal/config"
	"github.com/san-kum/markovsim/internal/experiment"
	"github.com/san-kum/markovsim/internal/export"
	"github.com/san-kum/markovsim/internal/logging"
	"github.com/san-kum/markovsim/internal/markov"
	"github.com/san-kum/markovsim/internal/metrics"
	"github.com/san-kum/markovsim/internal/telemetry"
	"github.com/san-kum/markovsim/internal/viz"
)

var (
	configFile  string
	preset      string
	logLevel    string
	initial     uint32
	cutoff      float64
	ctrlParams  []float64
	seed        uint64
	steps       int
	stepCount   int
	// Batch
	machines    int
	workers     int
	metricNames []string
	dumpMetrics bool
	// Output
	sigmas      float64
	plotWidth   int
	plotHeight  int
	frameRate   int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "markovsim",
		Short:        "continuous-time markov chain simulator",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.Uint32Var(&initial, "initial", 0, "initial state")
	pf.Float64Var(&cutoff, "cutoff", config.DefaultCutoff, "accumulation cutoff time")
	pf.Float64SliceVar(&ctrlParams, "ctrl", nil, "control parameters")
	pf.Uint64Var(&seed, "seed", 0, "random seed (0 draws a fresh one)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "accumulate one machine up to the cutoff",
		Args:  cobra.NoArgs,
		RunE:  runAccumulate,
	}

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "take single steps from a fresh machine",
		Args:  cobra.NoArgs,
		RunE:  runSteps,
	}
	stepCmd.Flags().IntVarP(&stepCount, "steps", "n", 20, "number of steps")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "accumulate many machines in parallel",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	addBatchFlags(batchCmd)
	batchCmd.Flags().StringSliceVar(&metricNames, "metric", nil, "metrics to report (default all)")
	batchCmd.Flags().BoolVar(&dumpMetrics, "metrics", false, "write prometheus metrics to stderr")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "compare single-step statistics with the rate matrix",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
	statsCmd.Flags().IntVarP(&steps, "steps", "n", config.DefaultSteps, "number of steps")
	statsCmd.Flags().Float64Var(&sigmas, "sigmas", 4, "tolerance in standard errors")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "plot state against time for one accumulation",
		Args:  cobra.NoArgs,
		RunE:  runPlot,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "accumulate continuously with a live occupancy view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv",
		Short: "run a batch and write its transitions as CSV",
		Args:  cobra.NoArgs,
		RunE:  exportCSV,
	}
	addBatchFlags(exportCSVCmd)

	exportJSONCmd := &cobra.Command{
		Use:   "export-json",
		Short: "run a batch and write its trajectories as JSON",
		Args:  cobra.NoArgs,
		RunE:  exportJSON,
	}
	addBatchFlags(exportJSONCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the selected configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}

	rootCmd.AddCommand(runCmd, stepCmd, batchCmd, statsCmd, plotCmd, liveCmd, exportCSVCmd, exportJSONCmd, presetsCmd, initCmd)
	return rootCmd
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&machines, "machines", "m", config.DefaultMachines, "number of machines")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "worker goroutines (0 = GOMAXPROCS)")
}

// loadConfig resolves defaults, then the preset, then the config file, then
// any flag set explicitly on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("initial") {
		cfg.InitialState = initial
	}
	if flags.Changed("cutoff") {
		cfg.Cutoff = cutoff
	}
	if flags.Changed("ctrl") {
		cfg.CtrlParams = ctrlParams
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("steps") {
		n, err := flags.GetInt("steps")
		if err != nil {
			return nil, err
		}
		cfg.Steps = n
	}
	if flags.Changed("machines") {
		cfg.Machines = machines
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.LogLevel, os.Stderr), nil
}

func newRNG(cfg *config.Config) *rand.Rand {
	if cfg.Seed != 0 {
		return rand.New(rand.NewPCG(cfg.Seed, 0))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func runAccumulate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	m, err := cfg.NewMachine()
	if err != nil {
		return err
	}

	start := m.CurrentState()
	traj, err := m.Accumulate(cfg.CtrlParams, newRNG(cfg))
	if err != nil {
		return err
	}
	log.Debug("accumulated", "name", cfg.Name, "transitions", len(traj), "cutoff", cfg.Cutoff)

	fmt.Printf("%s: %d transition(s) before t=%g\n\n", cfg.Name, len(traj), cfg.Cutoff)
	if err := printTransitions(os.Stdout, traj); err != nil {
		return err
	}

	if over, ok := m.Overshoot(); ok {
		fmt.Printf("\novershoot: %d -> %d at %.6f\n", over.From, over.To, over.Time)
	}

	fmt.Println("\nmetrics:")
	vals := metrics.Evaluate(metrics.Defaults(start), traj)
	for _, name := range sortedKeys(vals) {
		fmt.Printf("  %s: %.6f\n", name, vals[name])
	}
	return nil
}

func runSteps(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	m, err := cfg.NewMachine()
	if err != nil {
		return err
	}

	if stepCount < 0 {
		return fmt.Errorf("steps must not be negative, got %d", stepCount)
	}

	// The configured step count sizes stats runs; printing uses the flag.
	rng := newRNG(cfg)
	taken := make([]markov.Transition, 0, stepCount)
	for len(taken) < stepCount {
		tr, err := m.Step(cfg.CtrlParams, rng)
		if errors.Is(err, markov.ErrStopped) {
			break
		}
		if err != nil {
			return err
		}
		taken = append(taken, tr)
	}

	if err := printTransitions(cmd.OutOrStdout(), taken); err != nil {
		return err
	}
	if m.Stopped() {
		fmt.Fprintf(cmd.OutOrStdout(), "\nstopped in state %d after %d step(s)\n", m.CurrentState(), len(taken))
	}
	return nil
}

func printTransitions(out io.Writer, traj []markov.Transition) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tFROM\tTO\tTIME")
	for i, tr := range traj {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.6f\n", i, tr.From, tr.To, tr.Time)
	}
	return w.Flush()
}

func runExperiment(cmd *cobra.Command, rec *telemetry.Recorder) (*config.Config, *experiment.Result, error) {
	cfg, log, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}

	exp := experiment.New(cfg).WithLogger(log)
	if rec != nil {
		exp.WithRecorder(rec)
	}
	if err := exp.Setup(experiment.NewRegistry(), metricNames...); err != nil {
		return nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := exp.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cfg, res, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	rec := telemetry.NewRecorder()
	cfg, res, err := runExperiment(cmd, rec)
	if dumpMetrics {
		if werr := rec.WriteText(os.Stderr); werr != nil && err == nil {
			err = werr
		}
	}
	if err != nil {
		return err
	}

	var names []string
	if len(res.Metrics) > 0 {
		names = sortedKeys(res.Metrics[0])
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MACHINE\t"+strings.ToUpper(strings.Join(names, "\t")))
	for i, vals := range res.Metrics {
		row := []string{fmt.Sprintf("%d", i)}
		for _, name := range names {
			row = append(row, fmt.Sprintf("%.4f", vals[name]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	mean := []string{"mean"}
	for _, name := range names {
		mean = append(mean, fmt.Sprintf("%.4f", res.Mean(name)))
	}
	fmt.Fprintln(w, strings.Join(mean, "\t"))
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%s: %d machine(s), cutoff %g, completed in %v\n", cfg.Name, len(res.Trajectories), cfg.Cutoff, res.Elapsed)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	m, err := cfg.NewMachine()
	if err != nil {
		return err
	}
	rates, err := cfg.EffectiveRates()
	if err != nil {
		return err
	}

	stats := analysis.NewStats(m.NumStates())
	rng := newRNG(cfg)
	for i := 0; i < cfg.Steps; i++ {
		tr, err := m.Step(cfg.CtrlParams, rng)
		if errors.Is(err, markov.ErrStopped) {
			log.Warn("machine stopped", "state", m.CurrentState(), "steps", i)
			break
		}
		if err != nil {
			return err
		}
		stats.Add(tr.From, tr.To, tr.Time)
	}

	checks := analysis.Compare(stats, rates, sigmas)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FROM\tTO\tQUANTITY\tN\tEXPECTED\tOBSERVED\tTOLERANCE\tRESULT")
	for _, c := range checks {
		result := "ok"
		if !c.Pass {
			result = "FAIL"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%.4f\t%.4f\t%.4f\t%s\n",
			c.From, c.To, c.Quantity, c.Samples, c.Expected, c.Observed, c.Tolerance, result)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed := analysis.Failed(checks); len(failed) > 0 {
		return fmt.Errorf("%d of %d checks outside %g sigma", len(failed), len(checks), sigmas)
	}
	fmt.Printf("\n%d checks within %g sigma over %d step(s)\n", len(checks), sigmas, stats.Total())
	return nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	m, err := cfg.NewMachine()
	if err != nil {
		return err
	}

	start := m.CurrentState()
	traj, err := m.Accumulate(cfg.CtrlParams, newRNG(cfg))
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d transition(s)\n\n", cfg.Name, len(traj))
	caption := fmt.Sprintf("state vs time (0 to %g)", cfg.Cutoff)
	fmt.Println(viz.PlotTrajectory(traj, start, cfg.Cutoff, plotWidth, plotHeight, caption))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	m, err := viz.NewModel(cfg.Name, cfg.NewMachine, cfg.CtrlParams, cfg.Cutoff, newRNG(cfg), frameRate)
	if err != nil {
		return err
	}
	return viz.Run(m)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, res, err := runExperiment(cmd, nil)
	if err != nil {
		return err
	}
	return export.WriteCSV(os.Stdout, res.Trajectories)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, res, err := runExperiment(cmd, nil)
	if err != nil {
		return err
	}
	data := export.NewExportData(cfg.Name, cfg.Cutoff, cfg.Seed, res.Trajectories, res.Metrics)
	return export.WriteJSON(os.Stdout, data)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATES\tPARAMS\tCUTOFF")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		params := "-"
		if p.RateCoefficients != nil {
			params = fmt.Sprintf("%v", p.CtrlParams)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%g\n", name, len(p.RateMatrix), params, p.Cutoff)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s config to %s\n", cfg.Name, args[0])
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
