package unit

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-host/internal/logging"
)

// Descriptor identifies a unit type the way a saved plugin description does.
type Descriptor struct {
	Name            string
	DescriptiveName string
	Format          string
	Category        string
	Manufacturer    string
	Version         string
	File            string
	UID             int
	IsInstrument    bool
	NumInputs       int
	NumOutputs      int
}

// DescriptorFromPath describes the unit found at path. The file base name
// without extension is used as the type name.
func DescriptorFromPath(path string) Descriptor {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return Descriptor{Name: name, File: path}
}

// Options configures a loaded unit.
type Options struct {
	SampleRate float64
	BlockSize  int

	// InputChannels and OutputChannels fix the main bus sizes when either is
	// non-zero. Zero for both keeps the unit's default layout.
	InputChannels  int
	OutputChannels int

	// IsInstrument forces a layout without audio input.
	IsInstrument bool

	// State is applied with SetState when non-empty.
	State []byte
}

// Instantiator creates prepared units from descriptions.
type Instantiator interface {
	Instantiate(desc Descriptor, opts Options) (Unit, error)
}

// Loader resolves descriptions through a Registry.
type Loader struct {
	Registry *Registry
	Logger   *slog.Logger
}

// NewLoader returns a Loader over registry.
func NewLoader(registry *Registry, logger *slog.Logger) *Loader {
	return &Loader{Registry: registry, Logger: logger}
}

// Instantiate implements Instantiator. The returned unit has its channel
// configuration fixed, state applied, non-realtime mode set and is prepared
// for opts.SampleRate and opts.BlockSize. On failure no unit is returned.
func (l *Loader) Instantiate(desc Descriptor, opts Options) (Unit, error) {
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("load %q: sample rate must be > 0: %f", desc.Name, opts.SampleRate)
	}
	if opts.BlockSize <= 0 {
		return nil, fmt.Errorf("load %q: block size must be > 0: %d", desc.Name, opts.BlockSize)
	}

	factory, name, err := l.resolve(desc)
	if err != nil {
		return nil, err
	}

	u, err := factory(desc)
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", name, err)
	}
	if u == nil {
		return nil, fmt.Errorf("create %q: factory returned no unit", name)
	}

	if opts.InputChannels > 0 || opts.OutputChannels > 0 || opts.IsInstrument {
		in := opts.InputChannels
		if opts.IsInstrument {
			in = 0
		}
		out := opts.OutputChannels
		if out == 0 {
			out = u.NumOutputChannels()
		}
		if err := u.SetBusLayout(SimpleLayout(in, out)); err != nil {
			return nil, fmt.Errorf("configure %q with %d in / %d out: %w", name, in, out, err)
		}
	}

	if len(opts.State) > 0 {
		if err := u.SetState(opts.State); err != nil {
			return nil, fmt.Errorf("restore state of %q: %w", name, err)
		}
	}

	u.SetNonRealtime(true)

	if err := u.Prepare(opts.SampleRate, opts.BlockSize); err != nil {
		return nil, fmt.Errorf("prepare %q: %w", name, err)
	}

	l.logger().Debug("unit loaded",
		"unit", name,
		"inputs", u.NumInputChannels(),
		"outputs", u.NumOutputChannels(),
		"sample_rate", opts.SampleRate,
		"block_size", opts.BlockSize,
	)

	return u, nil
}

// InstantiatePath loads the unit referenced by a file path or bare name.
func (l *Loader) InstantiatePath(path string, opts Options) (Unit, error) {
	return l.Instantiate(DescriptorFromPath(path), opts)
}

// resolve tries the name, the descriptive name and the file base name in
// that order.
func (l *Loader) resolve(desc Descriptor) (Factory, string, error) {
	if l.Registry == nil {
		return nil, "", fmt.Errorf("%w: %s (no registry)", ErrUnknownUnit, desc.Name)
	}

	candidates := []string{desc.Name, desc.DescriptiveName}
	if desc.File != "" {
		base := filepath.Base(desc.File)
		candidates = append(candidates, strings.TrimSuffix(base, filepath.Ext(base)))
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if f := l.Registry.Lookup(c); f != nil {
			return f, c, nil
		}
	}

	label := desc.Name
	if label == "" {
		label = desc.File
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnknownUnit, label)
}

func (l *Loader) logger() *slog.Logger {
	return logging.OrNop(l.Logger)
}
