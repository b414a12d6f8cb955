package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-host/internal/app"
	"github.com/cwbudde/algo-host/internal/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	out    io.Writer
	logOut io.Writer

	configPath  string
	sampleRate  float64
	blockSize   int
	tailSeconds int
	bitDepth    int
	channels    int
	logLevel    string
	logFormat   string
	traceFile   string
	metricsFile string
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	o := &rootOptions{out: out, logOut: errOut}

	cmd := &cobra.Command{
		Use:           "hostrender",
		Short:         "Render audio and MIDI offline through processing units",
		Long:          `hostrender feeds WAV or Standard MIDI Files through a built-in unit or a FILTERGRAPH document in fixed-size blocks and writes the result as WAV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	defaults := config.Default()
	pf := cmd.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "YAML configuration file")
	pf.Float64Var(&o.sampleRate, "sample-rate", defaults.SampleRate, "sample rate in Hz for MIDI renders")
	pf.IntVar(&o.blockSize, "block-size", defaults.BlockSize, "processing block size in frames")
	pf.IntVar(&o.tailSeconds, "tail", defaults.TailSeconds, "seconds of silence rendered after the input")
	pf.IntVar(&o.bitDepth, "bit-depth", defaults.BitDepth, "output bit depth (8, 16, 24 or 32)")
	pf.IntVar(&o.channels, "channels", defaults.Channels, "graph channel count when rendering MIDI")
	pf.StringVar(&o.logLevel, "log-level", defaults.LogLevel, "log level: debug, info, warn or error")
	pf.StringVar(&o.logFormat, "log-format", defaults.LogFormat, "log format: text or json")
	pf.StringVar(&o.traceFile, "trace-file", "", "write OpenTelemetry spans to this file")
	pf.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")

	cmd.AddCommand(
		newAudioCmd(o),
		newMIDICmd(o),
		newGraphCmd(o),
		newUnitsCmd(o),
	)
	return cmd
}

// config loads the configuration file and applies the flags the user set.
func (o *rootOptions) config(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, usageError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("sample-rate") {
		cfg.SampleRate = o.sampleRate
	}
	if flags.Changed("block-size") {
		cfg.BlockSize = o.blockSize
	}
	if flags.Changed("tail") {
		cfg.TailSeconds = o.tailSeconds
	}
	if flags.Changed("bit-depth") {
		cfg.BitDepth = o.bitDepth
	}
	if flags.Changed("channels") {
		cfg.Channels = o.channels
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if flags.Changed("trace-file") {
		cfg.TraceFile = o.traceFile
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = o.metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, usageError(err)
	}
	return cfg, nil
}

// withApp builds an App for cmd, runs fn and closes the App.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(*app.App) error) (err error) {
	cfg, err := o.config(cmd)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, o.logOut)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(cmd.Context()); err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

func printReport(w io.Writer, rep *app.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "job\t%s\n", rep.JobID)
	fmt.Fprintf(tw, "output\t%s\n", rep.Output)
	fmt.Fprintf(tw, "frames\t%d (%d blocks) at %.0f Hz, %d channels\n",
		rep.Frames, rep.Blocks, rep.SampleRate, rep.Channels)
	for i, ch := range rep.Summary.Channels {
		fmt.Fprintf(tw, "ch%d\tpeak %.1f dBFS, rms %.1f dBFS\n", i, ch.PeakDB(), ch.RMSDB())
	}
	fmt.Fprintf(tw, "dominant\t%.1f Hz\n", rep.Summary.DominantHz)
	if g := rep.Graph; g != nil {
		fmt.Fprintf(tw, "graph\t%d nodes, %d connections, %d skipped, %d pruned, %d rewired\n",
			g.Graph.NumNodes(), g.Graph.NumConnections(), len(g.Skipped), g.Pruned, g.Rewired)
	}
	return tw.Flush()
}
