package timeline

import "testing"

func TestNewBuffer(t *testing.T) {
	t.Parallel()

	b, err := NewBuffer(2, 8)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	if b.Channels() != 2 || b.Frames() != 8 {
		t.Fatalf("dims = %dx%d, want 2x8", b.Channels(), b.Frames())
	}
	for ch := 0; ch < b.Channels(); ch++ {
		for i, v := range b.Channel(ch) {
			if v != 0 {
				t.Fatalf("channel %d index %d = %v, want 0", ch, i, v)
			}
		}
	}

	if _, err := NewBuffer(-1, 8); err == nil {
		t.Fatal("expected error for negative channels")
	}
	if _, err := NewBuffer(1, -8); err == nil {
		t.Fatal("expected error for negative frames")
	}
}

func TestBufferChannelsAreIndependent(t *testing.T) {
	t.Parallel()

	b := MustBuffer(2, 4)
	ch0 := b.Channel(0)
	ch0 = append(ch0, 99) // must not spill into channel 1
	_ = ch0

	for i, v := range b.Channel(1) {
		if v != 0 {
			t.Fatalf("channel 1 index %d = %v after append to channel 0", i, v)
		}
	}
}

func TestBufferCopyFromTruncates(t *testing.T) {
	t.Parallel()

	src := MustBuffer(1, 6)
	for i := range src.Channel(0) {
		src.Channel(0)[i] = float64(i + 1)
	}

	dst := MustBuffer(1, 4)

	tests := []struct {
		name               string
		dstStart, srcStart int
		n                  int
		want               int
	}{
		{"full", 0, 0, 4, 4},
		{"dst overflow", 2, 0, 4, 2},
		{"src overflow", 0, 4, 4, 2},
		{"zero", 0, 0, 0, 0},
		{"negative start", -1, 0, 2, 0},
	}

	for _, tc := range tests {
		dst.Clear()
		got := dst.CopyFrom(0, tc.dstStart, src, 0, tc.srcStart, tc.n)
		if got != tc.want {
			t.Errorf("%s: copied %d, want %d", tc.name, got, tc.want)
		}
	}

	dst.Clear()
	dst.CopyFrom(0, 1, src, 0, 2, 3)
	want := []float64{0, 3, 4, 5}
	for i, v := range dst.Channel(0) {
		if v != want[i] {
			t.Fatalf("index %d = %v, want %v", i, v, want[i])
		}
	}
}

func TestBufferAddFromTruncates(t *testing.T) {
	t.Parallel()

	dst := MustBuffer(1, 4)
	src := MustBuffer(1, 3)
	for i := range src.Channel(0) {
		src.Channel(0)[i] = float64(i + 1)
	}

	tests := []struct {
		name               string
		dstStart, srcStart int
		n, want            int
	}{
		{"dst tail", 2, 0, 3, 2},
		{"src tail", 0, 1, 4, 2},
		{"negative start", -1, 0, 2, 0},
		{"zero", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := dst.Clone()
			if got := d.AddFrom(0, tt.dstStart, src, 0, tt.srcStart, tt.n); got != tt.want {
				t.Errorf("AddFrom() = %d, want %d", got, tt.want)
			}
		})
	}

	dst.AddFrom(0, 2, src, 0, 0, 3)
	dst.AddFrom(0, 2, src, 0, 0, 3)
	want := []float64{0, 0, 2, 4}
	for i, v := range dst.Channel(0) {
		if v != want[i] {
			t.Errorf("index %d = %v, want %v", i, v, want[i])
		}
	}
}

func TestBufferAddFromAndClearRange(t *testing.T) {
	t.Parallel()

	a := MustBuffer(1, 4)
	b := MustBuffer(1, 4)
	for i := range a.Channel(0) {
		a.Channel(0)[i] = 1
		b.Channel(0)[i] = 2
	}

	if n := a.AddFrom(0, 0, b, 0, 0, 4); n != 4 {
		t.Fatalf("AddFrom copied %d, want 4", n)
	}
	a.ClearRange(1, 2)

	want := []float64{3, 0, 0, 3}
	for i, v := range a.Channel(0) {
		if v != want[i] {
			t.Fatalf("index %d = %v, want %v", i, v, want[i])
		}
	}

	a.ClearRange(3, 100)
	if a.Channel(0)[3] != 0 {
		t.Fatal("ClearRange did not clamp to the buffer end")
	}
}

func TestBufferClone(t *testing.T) {
	t.Parallel()

	b := MustBuffer(2, 3)
	b.Channel(1)[2] = 0.5

	c := b.Clone()
	b.Channel(1)[2] = 0

	if c.Channel(1)[2] != 0.5 {
		t.Fatalf("clone shares storage with original")
	}
}

func TestFromChannels(t *testing.T) {
	t.Parallel()

	b, err := FromChannels([][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("FromChannels() error = %v", err)
	}
	if b.Frames() != 2 || b.Channels() != 2 {
		t.Fatalf("dims = %dx%d, want 2x2", b.Channels(), b.Frames())
	}

	if _, err := FromChannels([][]float64{{1, 2}, {3}}); err == nil {
		t.Fatal("expected error for ragged channels")
	}
}
