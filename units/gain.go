package units

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
)

const (
	minGainDB = -120.0
	maxGainDB = 24.0
)

// GainParams is the JSON state of Gain.
type GainParams struct {
	GainDB float64 `json:"gainDb"`
}

// Gain applies a static gain. A change of gain is ramped linearly across
// the next processed block.
type Gain struct {
	unit.Base

	params  GainParams
	current float64
	target  float64
	ramp    []float64
}

// NewGain returns a stereo unity-gain unit.
func NewGain() *Gain {
	return &Gain{
		Base:    unit.NewBase(unit.SimpleLayout(2, 2), unit.MonoOrStereoInOut),
		current: 1,
		target:  1,
	}
}

// Name implements unit.Unit.
func (g *Gain) Name() string { return TypeGain }

// SetGainDB sets the target gain in decibels.
func (g *Gain) SetGainDB(db float64) error {
	if err := checkRange(TypeGain, "gainDb", db, minGainDB, maxGainDB); err != nil {
		return err
	}
	g.params.GainDB = db
	g.target = dbToLinear(db)
	return nil
}

// GainDB returns the target gain in decibels.
func (g *Gain) GainDB() float64 { return g.params.GainDB }

// Prepare implements unit.Unit. The ramp state is reset to the target.
func (g *Gain) Prepare(sampleRate float64, blockSize int) error {
	if err := g.Base.Prepare(sampleRate, blockSize); err != nil {
		return err
	}
	g.ramp = make([]float64, blockSize)
	g.current = g.target
	return nil
}

// Process implements unit.Unit.
func (g *Gain) Process(buf *timeline.Buffer, _ *timeline.Sequence) {
	n := buf.Frames()
	if cap(g.ramp) < n {
		g.ramp = make([]float64, n)
	}
	ramp := g.ramp[:n]

	if g.current == g.target {
		for i := range ramp {
			ramp[i] = g.target
		}
	} else {
		step := (g.target - g.current) / float64(n)
		for i := range ramp {
			ramp[i] = g.current + step*float64(i+1)
		}
		g.current = g.target
	}

	channels := min(buf.Channels(), g.NumOutputChannels())
	for ch := 0; ch < channels; ch++ {
		vecmath.MulBlockInPlace(buf.Channel(ch), ramp)
	}
}

// State implements unit.Unit.
func (g *Gain) State() ([]byte, error) {
	return marshalState(TypeGain, g.params)
}

// SetState implements unit.Unit.
func (g *Gain) SetState(data []byte) error {
	p := g.params
	if err := unmarshalState(TypeGain, data, &p); err != nil {
		return err
	}
	return g.SetGainDB(p.GainDB)
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
