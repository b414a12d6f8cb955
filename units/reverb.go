package units

import (
	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
)

const (
	reverbNumCombs     = 8
	reverbNumAllpasses = 4

	reverbFixedGain      = 0.015
	reverbScaleRoom      = 0.28
	reverbOffsetRoom     = 0.7
	reverbScaleDamp      = 0.4
	reverbAllpassFeed    = 0.5
	reverbStereoSpread   = 23
	reverbReferenceRate  = 44100.0
	defaultReverbWet     = 0.33
	defaultReverbDry     = 1.0
	defaultReverbRoom    = 0.5
	defaultReverbDamping = 0.5
)

// Comb and allpass lengths calibrated for 44.1 kHz.
var (
	reverbCombTuning    = [reverbNumCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	reverbAllpassTuning = [reverbNumAllpasses]int{556, 441, 341, 225}
)

// ReverbParams is the JSON state of Reverb.
type ReverbParams struct {
	RoomSize float64 `json:"roomSize"`
	Damp     float64 `json:"damp"`
	Wet      float64 `json:"wet"`
	Dry      float64 `json:"dry"`
}

// Reverb is a Schroeder/Freeverb-style reverb. Every channel runs its own
// tank; channels after the first are detuned by a small spread.
type Reverb struct {
	unit.Base

	params ReverbParams
	tanks  []reverbTank
}

type reverbTank struct {
	combs   [reverbNumCombs]reverbComb
	allpass [reverbNumAllpasses]reverbAllpass
}

type reverbComb struct {
	buffer      []float64
	index       int
	filterStore float64
}

type reverbAllpass struct {
	buffer []float64
	index  int
}

// NewReverb returns a stereo reverb with practical defaults.
func NewReverb() *Reverb {
	return &Reverb{
		Base: unit.NewBase(unit.SimpleLayout(2, 2), unit.MonoOrStereoInOut),
		params: ReverbParams{
			RoomSize: defaultReverbRoom,
			Damp:     defaultReverbDamping,
			Wet:      defaultReverbWet,
			Dry:      defaultReverbDry,
		},
	}
}

// Name implements unit.Unit.
func (r *Reverb) Name() string { return TypeReverb }

// Params returns the current parameters.
func (r *Reverb) Params() ReverbParams { return r.params }

// SetParams validates and applies p.
func (r *Reverb) SetParams(p ReverbParams) error {
	if err := checkRange(TypeReverb, "roomSize", p.RoomSize, 0, 1); err != nil {
		return err
	}
	if err := checkRange(TypeReverb, "damp", p.Damp, 0, 1); err != nil {
		return err
	}
	if err := checkRange(TypeReverb, "wet", p.Wet, 0, 4); err != nil {
		return err
	}
	if err := checkRange(TypeReverb, "dry", p.Dry, 0, 4); err != nil {
		return err
	}
	r.params = p
	return nil
}

// Prepare implements unit.Unit and clears every tank.
func (r *Reverb) Prepare(sampleRate float64, blockSize int) error {
	if err := r.Base.Prepare(sampleRate, blockSize); err != nil {
		return err
	}

	scale := sampleRate / reverbReferenceRate
	r.tanks = make([]reverbTank, r.NumOutputChannels())
	for ch := range r.tanks {
		spread := ch * reverbStereoSpread
		for i := range r.tanks[ch].combs {
			r.tanks[ch].combs[i].buffer = make([]float64, scaledLength(reverbCombTuning[i]+spread, scale))
		}
		for i := range r.tanks[ch].allpass {
			r.tanks[ch].allpass[i].buffer = make([]float64, scaledLength(reverbAllpassTuning[i]+spread, scale))
		}
	}
	return nil
}

// Process implements unit.Unit.
func (r *Reverb) Process(buf *timeline.Buffer, _ *timeline.Sequence) {
	feedback := r.params.RoomSize*reverbScaleRoom + reverbOffsetRoom
	damp := r.params.Damp * reverbScaleDamp

	channels := min(buf.Channels(), len(r.tanks))
	for ch := 0; ch < channels; ch++ {
		tank := &r.tanks[ch]
		s := buf.Channel(ch)
		for i, in := range s {
			wet := tank.process(in*reverbFixedGain, feedback, damp)
			s[i] = in*r.params.Dry + wet*r.params.Wet
		}
	}
}

func (t *reverbTank) process(input, feedback, damp float64) float64 {
	out := 0.0
	for i := range t.combs {
		out += t.combs[i].process(input, feedback, damp)
	}
	for i := range t.allpass {
		out = t.allpass[i].process(out)
	}
	return out
}

func (c *reverbComb) process(input, feedback, damp float64) float64 {
	output := c.buffer[c.index]
	c.filterStore = output*(1-damp) + c.filterStore*damp
	c.buffer[c.index] = input + c.filterStore*feedback
	c.index++
	if c.index >= len(c.buffer) {
		c.index = 0
	}
	return output
}

func (a *reverbAllpass) process(input float64) float64 {
	bufOut := a.buffer[a.index]
	output := bufOut - input
	a.buffer[a.index] = input + bufOut*reverbAllpassFeed
	a.index++
	if a.index >= len(a.buffer) {
		a.index = 0
	}
	return output
}

func scaledLength(n int, scale float64) int {
	l := int(float64(n) * scale)
	if l < 1 {
		l = 1
	}
	return l
}

// State implements unit.Unit.
func (r *Reverb) State() ([]byte, error) {
	return marshalState(TypeReverb, r.params)
}

// SetState implements unit.Unit.
func (r *Reverb) SetState(data []byte) error {
	p := r.params
	if err := unmarshalState(TypeReverb, data, &p); err != nil {
		return err
	}
	return r.SetParams(p)
}
