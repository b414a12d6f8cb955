package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-host/internal/app"
)

func newAudioCmd(o *rootOptions) *cobra.Command {
	var job app.AudioJob
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Render a WAV file through one unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(a *app.App) error {
				rep, err := a.RenderAudio(cmd.Context(), job)
				if err != nil {
					return err
				}
				return printReport(o.out, rep)
			})
		},
	}
	cmd.Flags().StringVar(&job.Plugin, "plugin", "", "unit name or plugin path")
	cmd.Flags().StringVar(&job.Input, "in", "", "input WAV file")
	cmd.Flags().StringVar(&job.Output, "out", "", "output WAV file")
	cmd.Flags().StringVar(&job.State, "state", "", "file holding the unit state")
	markRequired(cmd, "plugin", "in", "out")
	return cmd
}

func newMIDICmd(o *rootOptions) *cobra.Command {
	var job app.MIDIJob
	cmd := &cobra.Command{
		Use:   "midi",
		Short: "Render a Standard MIDI File through one instrument",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(a *app.App) error {
				rep, err := a.RenderMIDI(cmd.Context(), job)
				if err != nil {
					return err
				}
				return printReport(o.out, rep)
			})
		},
	}
	cmd.Flags().StringVar(&job.Plugin, "plugin", "", "instrument unit name or plugin path")
	cmd.Flags().StringVar(&job.Input, "in", "", "input MIDI file")
	cmd.Flags().StringVar(&job.Output, "out", "", "output WAV file")
	cmd.Flags().StringVar(&job.State, "state", "", "file holding the unit state")
	markRequired(cmd, "plugin", "in", "out")
	return cmd
}

func newGraphCmd(o *rootOptions) *cobra.Command {
	var job app.GraphJob
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render WAV or MIDI input through a FILTERGRAPH document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(a *app.App) error {
				rep, err := a.RenderGraph(cmd.Context(), job)
				if err != nil {
					return err
				}
				return printReport(o.out, rep)
			})
		},
	}
	cmd.Flags().StringVar(&job.Graph, "graph", "", "FILTERGRAPH document")
	cmd.Flags().StringVar(&job.Input, "in", "", "input WAV file")
	cmd.Flags().StringVar(&job.MIDI, "midi", "", "input MIDI file")
	cmd.Flags().StringVar(&job.Output, "out", "", "output WAV file")
	markRequired(cmd, "graph", "out")
	cmd.MarkFlagsOneRequired("in", "midi")
	cmd.MarkFlagsMutuallyExclusive("in", "midi")
	return cmd
}

func newUnitsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List the built-in units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(a *app.App) error {
				for _, name := range a.Units() {
					fmt.Fprintln(o.out, name)
				}
				return nil
			})
		},
	}
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}
