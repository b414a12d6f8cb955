package unit

import (
	"errors"
	"testing"
)

func TestLoaderInstantiate(t *testing.T) {
	t.Parallel()

	l := NewLoader(testRegistry(), nil)
	opts := Options{SampleRate: 44100, BlockSize: 512}

	t.Run("prepares and marks non-realtime", func(t *testing.T) {
		t.Parallel()

		u, err := l.Instantiate(Descriptor{Name: "stub"}, opts)
		if err != nil {
			t.Fatalf("Instantiate() error = %v", err)
		}
		s := u.(*stubUnit)
		if s.SampleRate() != 44100 || s.BlockSize() != 512 {
			t.Errorf("prepared with %v/%d", s.SampleRate(), s.BlockSize())
		}
		if !s.NonRealtime() {
			t.Error("unit not marked non-realtime")
		}
	})

	t.Run("resolves by file base name", func(t *testing.T) {
		t.Parallel()

		u, err := l.InstantiatePath("/Library/Audio/Plug-Ins/Components/Stub.component", opts)
		if err != nil {
			t.Fatalf("InstantiatePath() error = %v", err)
		}
		if u.Name() != "stub" {
			t.Errorf("Name() = %q", u.Name())
		}
	})

	t.Run("resolves by descriptive name", func(t *testing.T) {
		t.Parallel()

		_, err := l.Instantiate(Descriptor{Name: "Stub Deluxe", DescriptiveName: "stub"}, opts)
		if err != nil {
			t.Fatalf("Instantiate() error = %v", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()

		u, err := l.Instantiate(Descriptor{Name: "nope"}, opts)
		if !errors.Is(err, ErrUnknownUnit) {
			t.Fatalf("error = %v, want ErrUnknownUnit", err)
		}
		if u != nil {
			t.Error("unit returned on failure")
		}
	})

	t.Run("factory failure", func(t *testing.T) {
		t.Parallel()

		_, err := l.Instantiate(Descriptor{Name: "broken"}, opts)
		if !errors.Is(err, errStubFactory) {
			t.Fatalf("error = %v, want factory error", err)
		}
	})

	t.Run("fixes channel configuration", func(t *testing.T) {
		t.Parallel()

		o := opts
		o.InputChannels, o.OutputChannels = 1, 1
		u, err := l.Instantiate(Descriptor{Name: "stub"}, o)
		if err != nil {
			t.Fatalf("Instantiate() error = %v", err)
		}
		if u.NumInputChannels() != 1 || u.NumOutputChannels() != 1 {
			t.Errorf("channels = %d/%d, want 1/1", u.NumInputChannels(), u.NumOutputChannels())
		}
	})

	t.Run("unsupported channel configuration", func(t *testing.T) {
		t.Parallel()

		o := opts
		o.InputChannels, o.OutputChannels = 1, 2
		_, err := l.Instantiate(Descriptor{Name: "stub"}, o)
		if !errors.Is(err, ErrLayoutUnsupported) {
			t.Fatalf("error = %v, want ErrLayoutUnsupported", err)
		}
	})

	t.Run("instrument has no input bus", func(t *testing.T) {
		t.Parallel()

		o := opts
		o.IsInstrument = true
		o.InputChannels, o.OutputChannels = 2, 2
		u, err := l.Instantiate(Descriptor{Name: "synth"}, o)
		if err != nil {
			t.Fatalf("Instantiate() error = %v", err)
		}
		if u.NumInputChannels() != 0 || u.NumOutputChannels() != 2 {
			t.Errorf("channels = %d/%d, want 0/2", u.NumInputChannels(), u.NumOutputChannels())
		}
	})

	t.Run("applies state", func(t *testing.T) {
		t.Parallel()

		o := opts
		o.State = []byte{1, 2, 3}
		u, err := l.Instantiate(Descriptor{Name: "stub"}, o)
		if err != nil {
			t.Fatalf("Instantiate() error = %v", err)
		}
		got, _ := u.State()
		if len(got) != 3 || got[2] != 3 {
			t.Errorf("State() = %v", got)
		}

		if _, err := l.Instantiate(Descriptor{Name: "picky"}, o); err == nil {
			t.Error("expected state error")
		}
	})

	t.Run("rejects bad play configuration", func(t *testing.T) {
		t.Parallel()

		if _, err := l.Instantiate(Descriptor{Name: "stub"}, Options{SampleRate: 0, BlockSize: 512}); err == nil {
			t.Error("expected error for zero sample rate")
		}
		if _, err := l.Instantiate(Descriptor{Name: "stub"}, Options{SampleRate: 44100}); err == nil {
			t.Error("expected error for zero block size")
		}
	})
}
