package filtergraph

import (
	"testing"

	"github.com/cwbudde/algo-host/unit"
	"github.com/cwbudde/algo-host/units"
)

const pluginIO = `format="Internal" category="I/O devices" manufacturer="JUCE" version="1.0" isInstrument="0"`

// gainGraph routes the stereo input through a gain at -6 dB to the output.
const gainGraph = `<?xml version="1.0" encoding="UTF-8"?>
<FILTERGRAPH>
  <FILTER uid="1" x="0.1" y="0.1">
    <PLUGIN name="Audio Input" ` + pluginIO + ` numInputs="0" numOutputs="2"/>
  </FILTER>
  <FILTER uid="2" x="0.5" y="0.5">
    <PLUGIN name="gain" descriptiveName="Gain" format="Builtin" manufacturer="algo-host" uid="6761696e" numInputs="2" numOutputs="2"/>
    <STATE>13.6IxYgklaDIlH5zhM8A</STATE>
  </FILTER>
  <FILTER uid="3" x="0.9" y="0.9">
    <PLUGIN name="Audio Output" ` + pluginIO + ` numInputs="2" numOutputs="0"/>
  </FILTER>
  <CONNECTION srcFilter="1" srcChannel="0" dstFilter="2" dstChannel="0"/>
  <CONNECTION srcFilter="1" srcChannel="1" dstFilter="2" dstChannel="1"/>
  <CONNECTION srcFilter="2" srcChannel="0" dstFilter="3" dstChannel="0"/>
  <CONNECTION srcFilter="2" srcChannel="1" dstFilter="3" dstChannel="1"/>
</FILTERGRAPH>
`

func newTestBuilder(t *testing.T, opts ...Option) *Builder {
	t.Helper()
	loader := unit.NewLoader(units.DefaultRegistry(), nil)
	opts = append([]Option{WithSampleRate(1000), WithBlockSize(16)}, opts...)
	return NewBuilder(loader, opts...)
}

func mustBuild(t *testing.T, b *Builder, doc string) *Result {
	t.Helper()
	res, err := b.BuildBytes([]byte(doc))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return res
}
