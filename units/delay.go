package units

import (
	"math"

	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
)

const (
	defaultDelayTimeSeconds = 0.25
	defaultDelayFeedback    = 0.35
	defaultDelayMix         = 0.25
	maxDelayTimeSeconds     = 2.0
	minDelayTimeSeconds     = 0.001
)

// DelayParams is the JSON state of Delay.
type DelayParams struct {
	TimeSeconds float64 `json:"timeSeconds"`
	Feedback    float64 `json:"feedback"`
	Mix         float64 `json:"mix"`
}

// Delay is a feedback delay with dry/wet mix. Each channel has its own line.
type Delay struct {
	unit.Base

	params       DelayParams
	delaySamples int
	lines        []delayLine
}

type delayLine struct {
	buffer []float64
	write  int
}

// NewDelay returns a stereo delay with practical defaults.
func NewDelay() *Delay {
	return &Delay{
		Base: unit.NewBase(unit.SimpleLayout(2, 2), unit.MonoOrStereoInOut),
		params: DelayParams{
			TimeSeconds: defaultDelayTimeSeconds,
			Feedback:    defaultDelayFeedback,
			Mix:         defaultDelayMix,
		},
	}
}

// Name implements unit.Unit.
func (d *Delay) Name() string { return TypeDelay }

// Params returns the current parameters.
func (d *Delay) Params() DelayParams { return d.params }

// SetParams validates and applies p. After Prepare this clears the delay
// lines.
func (d *Delay) SetParams(p DelayParams) error {
	if err := checkRange(TypeDelay, "time", p.TimeSeconds, minDelayTimeSeconds, maxDelayTimeSeconds); err != nil {
		return err
	}
	if err := checkRange(TypeDelay, "feedback", p.Feedback, 0, 0.99); err != nil {
		return err
	}
	if err := checkRange(TypeDelay, "mix", p.Mix, 0, 1); err != nil {
		return err
	}
	d.params = p
	if d.SampleRate() > 0 {
		d.configure()
	}
	return nil
}

// Prepare implements unit.Unit and clears the delay lines.
func (d *Delay) Prepare(sampleRate float64, blockSize int) error {
	if err := d.Base.Prepare(sampleRate, blockSize); err != nil {
		return err
	}
	d.configure()
	return nil
}

func (d *Delay) configure() {
	d.delaySamples = int(math.Round(d.params.TimeSeconds * d.SampleRate()))
	if d.delaySamples < 1 {
		d.delaySamples = 1
	}
	size := d.delaySamples + 1

	d.lines = make([]delayLine, d.NumOutputChannels())
	for i := range d.lines {
		d.lines[i] = delayLine{buffer: make([]float64, size)}
	}
}

// Process implements unit.Unit.
func (d *Delay) Process(buf *timeline.Buffer, _ *timeline.Sequence) {
	channels := min(buf.Channels(), len(d.lines))
	for ch := 0; ch < channels; ch++ {
		line := &d.lines[ch]
		s := buf.Channel(ch)
		for i, in := range s {
			s[i] = line.process(in, d.delaySamples, d.params.Feedback, d.params.Mix)
		}
	}
}

func (l *delayLine) process(input float64, delay int, feedback, mix float64) float64 {
	read := l.write - delay
	if read < 0 {
		read += len(l.buffer)
	}
	delayed := l.buffer[read]

	l.buffer[l.write] = input + delayed*feedback
	l.write++
	if l.write >= len(l.buffer) {
		l.write = 0
	}

	return input*(1-mix) + delayed*mix
}

// State implements unit.Unit.
func (d *Delay) State() ([]byte, error) {
	return marshalState(TypeDelay, d.params)
}

// SetState implements unit.Unit.
func (d *Delay) SetState(data []byte) error {
	p := d.params
	if err := unmarshalState(TypeDelay, data, &p); err != nil {
		return err
	}
	return d.SetParams(p)
}
