package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-host/analysis"
	"github.com/cwbudde/algo-host/fileio"
	"github.com/cwbudde/algo-host/graph/filtergraph"
	"github.com/cwbudde/algo-host/internal/statecodec"
	"github.com/cwbudde/algo-host/internal/tracing"
	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
)

// ErrNoInput is returned by graph jobs given neither audio nor MIDI input.
var ErrNoInput = errors.New("no input given")

// AudioJob renders a WAV file through one unit.
type AudioJob struct {
	Plugin string
	Input  string
	Output string
	// State optionally names a file holding the unit state, either raw or
	// in one of the statecodec text encodings.
	State string
}

// MIDIJob renders a Standard MIDI File through one instrument unit.
type MIDIJob struct {
	Plugin string
	Input  string
	Output string
	State  string
}

// GraphJob renders a FILTERGRAPH document. Exactly one of Input (WAV) and
// MIDI (Standard MIDI File) is used; Input wins when both are set.
type GraphJob struct {
	Graph  string
	Input  string
	MIDI   string
	Output string
}

// Report describes a finished job.
type Report struct {
	JobID      string
	Output     string
	SampleRate float64
	Blocks     int
	Frames     int
	Channels   int
	Summary    analysis.Summary

	// Graph is set for graph jobs.
	Graph *filtergraph.Result
}

// RenderAudio runs an audio job. The input file's sample rate is used for
// the render and the output.
func (a *App) RenderAudio(ctx context.Context, job AudioJob) (rep *Report, err error) {
	j := a.newJob("audio")
	ctx, span := a.tracer.StartSpan(ctx, "render.audio")
	span.WithAttributes(map[string]string{"job": j.id, "plugin": job.Plugin, "input": job.Input})
	defer func() { tracing.EndSpan(span, err) }()

	in, info, err := a.store.ReadAudio(ctx, job.Input)
	if err != nil {
		return nil, err
	}
	j.logger.Info("input loaded",
		"input", job.Input,
		"frames", info.Frames,
		"channels", info.Channels,
		"sample_rate", info.SampleRate,
		"bit_depth", info.BitDepth,
	)

	state, err := a.readState(ctx, job.State)
	if err != nil {
		return nil, err
	}

	sampleRate := float64(info.SampleRate)
	u, err := a.loader.InstantiatePath(job.Plugin, unit.Options{
		SampleRate:     sampleRate,
		BlockSize:      a.cfg.BlockSize,
		InputChannels:  info.Channels,
		OutputChannels: info.Channels,
		State:          state,
	})
	if err != nil {
		return nil, err
	}

	out, err := a.engine(j, sampleRate).RenderAudio(u, in)
	if err != nil {
		return nil, err
	}
	return a.finish(ctx, j, job.Output, out, sampleRate)
}

// RenderMIDI runs a MIDI job at the configured sample rate.
func (a *App) RenderMIDI(ctx context.Context, job MIDIJob) (rep *Report, err error) {
	j := a.newJob("midi")
	ctx, span := a.tracer.StartSpan(ctx, "render.midi")
	span.WithAttributes(map[string]string{"job": j.id, "plugin": job.Plugin, "input": job.Input})
	defer func() { tracing.EndSpan(span, err) }()

	sampleRate := a.cfg.SampleRate
	seq, err := a.store.ReadEvents(ctx, job.Input, sampleRate)
	if err != nil {
		return nil, err
	}
	j.logger.Info("events loaded", "input", job.Input, "events", seq.Len(), "last_offset", seq.LastOffset())

	state, err := a.readState(ctx, job.State)
	if err != nil {
		return nil, err
	}

	u, err := a.loader.InstantiatePath(job.Plugin, unit.Options{
		SampleRate:     sampleRate,
		BlockSize:      a.cfg.BlockSize,
		OutputChannels: 2,
		IsInstrument:   true,
		State:          state,
	})
	if err != nil {
		return nil, err
	}

	out, err := a.engine(j, sampleRate).RenderEvents(u, seq)
	if err != nil {
		return nil, err
	}
	return a.finish(ctx, j, job.Output, out, sampleRate)
}

// RenderGraph builds the graph described by job.Graph and renders either
// the audio or the MIDI input through it.
func (a *App) RenderGraph(ctx context.Context, job GraphJob) (rep *Report, err error) {
	j := a.newJob("graph")
	ctx, span := a.tracer.StartSpan(ctx, "render.graph")
	span.WithAttributes(map[string]string{"job": j.id, "graph": job.Graph})
	defer func() { tracing.EndSpan(span, err) }()

	if job.Input == "" && job.MIDI == "" {
		return nil, ErrNoInput
	}

	var (
		audioIn    *timeline.Buffer
		events     *timeline.Sequence
		sampleRate = a.cfg.SampleRate
		channels   = a.cfg.Channels
	)
	if job.Input != "" {
		var info fileio.AudioInfo
		if audioIn, info, err = a.store.ReadAudio(ctx, job.Input); err != nil {
			return nil, err
		}
		sampleRate = float64(info.SampleRate)
		channels = info.Channels
	} else if events, err = a.store.ReadEvents(ctx, job.MIDI, sampleRate); err != nil {
		return nil, err
	}

	res, err := a.buildGraph(ctx, j, job.Graph, sampleRate, channels)
	if err != nil {
		return nil, err
	}

	eng := a.engine(j, sampleRate)
	var out *timeline.Buffer
	if audioIn != nil {
		out, err = eng.RenderAudio(res.Graph, audioIn)
	} else {
		out, err = eng.RenderEvents(res.Graph, events)
	}
	if err != nil {
		return nil, err
	}

	rep, err = a.finish(ctx, j, job.Output, out, sampleRate)
	if err != nil {
		return nil, err
	}
	rep.Graph = res
	return rep, nil
}

func (a *App) buildGraph(ctx context.Context, j job, location string, sampleRate float64, channels int) (res *filtergraph.Result, err error) {
	_, span := a.tracer.StartSpan(ctx, "graph.build")
	defer func() { tracing.EndSpan(span, err) }()

	data, err := a.store.ReadFile(ctx, location)
	if err != nil {
		return nil, err
	}

	b := filtergraph.NewBuilder(a.loader,
		filtergraph.WithSampleRate(sampleRate),
		filtergraph.WithBlockSize(a.cfg.BlockSize),
		filtergraph.WithLayout(unit.SimpleLayout(channels, channels)),
		filtergraph.WithLogger(j.logger),
	)
	res, err = b.Build(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", location, err)
	}

	span.SetInt("nodes", res.Graph.NumNodes())
	span.SetInt("connections", res.Graph.NumConnections())
	span.SetInt("skipped", len(res.Skipped))
	return res, nil
}

// readState loads a state file. Text in a statecodec encoding is decoded;
// anything else is passed to the unit unchanged.
func (a *App) readState(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, nil
	}
	data, err := a.store.ReadFile(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	if decoded, err := statecodec.Decode(string(data)); err == nil && len(decoded) > 0 {
		return decoded, nil
	}
	return data, nil
}

func (a *App) finish(ctx context.Context, j job, location string, out *timeline.Buffer, sampleRate float64) (*Report, error) {
	_, span := a.tracer.StartSpan(ctx, "output.write")
	err := a.store.WriteAudio(ctx, location, out, int(sampleRate), a.cfg.BitDepth)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	summary, err := analysis.Summarize(out, sampleRate)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		JobID:      j.id,
		Output:     location,
		SampleRate: sampleRate,
		Blocks:     out.Frames() / a.cfg.BlockSize,
		Frames:     out.Frames(),
		Channels:   out.Channels(),
		Summary:    summary,
	}
	j.logger.Info("render finished",
		"output", location,
		"frames", rep.Frames,
		"blocks", rep.Blocks,
		"peak", summary.Peak(),
		"dominant_hz", summary.DominantHz,
	)
	return rep, nil
}
