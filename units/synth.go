package units

import (
	"math"

	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
)

const (
	defaultSynthGain    = 0.2
	defaultSynthAttack  = 0.005
	defaultSynthRelease = 0.3
	maxSynthEnvelope    = 10.0
	synthMaxVoices      = 32
)

// SineSynthParams is the JSON state of SineSynth.
type SineSynthParams struct {
	Gain           float64 `json:"gain"`
	AttackSeconds  float64 `json:"attackSeconds"`
	ReleaseSeconds float64 `json:"releaseSeconds"`
}

// SineSynth is a polyphonic sine instrument. Note-on starts a voice with a
// linear attack; note-off releases it linearly to silence. Events are
// applied at their exact sample offset within the block.
type SineSynth struct {
	unit.Base

	params SineSynthParams
	voices []synthVoice
}

type synthVoice struct {
	channel  uint8
	key      uint8
	level    float64 // velocity scaled peak
	phase    float64
	step     float64
	env      float64
	releases bool
}

// NewSineSynth returns a stereo instrument.
func NewSineSynth() *SineSynth {
	s := &SineSynth{
		Base: unit.NewBase(unit.SimpleLayout(0, 2), unit.MonoOrStereoOut),
		params: SineSynthParams{
			Gain:           defaultSynthGain,
			AttackSeconds:  defaultSynthAttack,
			ReleaseSeconds: defaultSynthRelease,
		},
	}
	s.MIDIIn = true
	return s
}

// Name implements unit.Unit.
func (s *SineSynth) Name() string { return TypeSineSynth }

// Params returns the current parameters.
func (s *SineSynth) Params() SineSynthParams { return s.params }

// SetParams validates and applies p.
func (s *SineSynth) SetParams(p SineSynthParams) error {
	if err := checkRange(TypeSineSynth, "gain", p.Gain, 0, 1); err != nil {
		return err
	}
	if err := checkRange(TypeSineSynth, "attack", p.AttackSeconds, 0, maxSynthEnvelope); err != nil {
		return err
	}
	if err := checkRange(TypeSineSynth, "release", p.ReleaseSeconds, 0, maxSynthEnvelope); err != nil {
		return err
	}
	s.params = p
	return nil
}

// ActiveVoices returns the number of sounding voices.
func (s *SineSynth) ActiveVoices() int { return len(s.voices) }

// Prepare implements unit.Unit and silences all voices.
func (s *SineSynth) Prepare(sampleRate float64, blockSize int) error {
	if err := s.Base.Prepare(sampleRate, blockSize); err != nil {
		return err
	}
	s.voices = s.voices[:0]
	return nil
}

// Process implements unit.Unit.
func (s *SineSynth) Process(buf *timeline.Buffer, events *timeline.Sequence) {
	buf.Clear()
	if s.SampleRate() <= 0 || buf.Channels() == 0 {
		return
	}

	n := buf.Frames()
	out := buf.Channel(0)

	pos := 0
	for _, ev := range events.Events() {
		at := min(max(ev.Offset, 0), n)
		s.render(out[pos:at])
		pos = at
		s.handle(ev)
	}
	s.render(out[pos:n])

	for ch := 1; ch < buf.Channels() && ch < s.NumOutputChannels(); ch++ {
		copy(buf.Channel(ch), out)
	}
}

func (s *SineSynth) handle(ev timeline.Event) {
	var channel, key, velocity uint8
	switch {
	case ev.Message.GetNoteStart(&channel, &key, &velocity):
		if len(s.voices) >= synthMaxVoices {
			s.voices = s.voices[1:]
		}
		freq := 440 * math.Pow(2, (float64(key)-69)/12)
		s.voices = append(s.voices, synthVoice{
			channel: channel,
			key:     key,
			level:   s.params.Gain * float64(velocity) / 127,
			step:    2 * math.Pi * freq / s.SampleRate(),
		})
	case ev.Message.GetNoteEnd(&channel, &key):
		for i := range s.voices {
			v := &s.voices[i]
			if v.channel == channel && v.key == key && !v.releases {
				v.releases = true
			}
		}
	}
}

func (s *SineSynth) render(out []float64) {
	if len(s.voices) == 0 || len(out) == 0 {
		return
	}

	attackStep := envelopeStep(s.params.AttackSeconds, s.SampleRate())
	releaseStep := envelopeStep(s.params.ReleaseSeconds, s.SampleRate())

	alive := s.voices[:0]
	for _, v := range s.voices {
		for i := range out {
			if v.releases {
				v.env -= releaseStep
				if v.env <= 0 {
					v.env = 0
					break
				}
			} else if v.env < 1 {
				v.env = math.Min(1, v.env+attackStep)
			}
			out[i] += v.level * v.env * math.Sin(v.phase)
			v.phase += v.step
			if v.phase > 2*math.Pi {
				v.phase -= 2 * math.Pi
			}
		}
		if !v.releases || v.env > 0 {
			alive = append(alive, v)
		}
	}
	s.voices = alive
}

// envelopeStep returns the per-sample increment of a linear ramp lasting
// seconds; zero-length ramps jump immediately.
func envelopeStep(seconds, sampleRate float64) float64 {
	if seconds <= 0 || sampleRate <= 0 {
		return 1
	}
	return 1 / (seconds * sampleRate)
}

// State implements unit.Unit.
func (s *SineSynth) State() ([]byte, error) {
	return marshalState(TypeSineSynth, s.params)
}

// SetState implements unit.Unit.
func (s *SineSynth) SetState(data []byte) error {
	p := s.params
	if err := unmarshalState(TypeSineSynth, data, &p); err != nil {
		return err
	}
	return s.SetParams(p)
}
