package sourcemap_test

import (
	"testing"

	"github.com/luanext/luanext/pkg/sourcemap"
)

func TestVLQRoundTripsThroughGeneratedDocument(t *testing.T) {
	g := sourcemap.NewGenerator("out.lua", "in.luax")
	g.AddMapping(sourcemap.Mapping{GenLine: 1, GenColumn: 0, SourceLine: 1, SourceColumn: 1, Name: "foo"})
	g.AddMapping(sourcemap.Mapping{GenLine: 1, GenColumn: 10, SourceLine: 1, SourceColumn: 5})
	g.AddMapping(sourcemap.Mapping{GenLine: 3, GenColumn: 2, SourceLine: 5, SourceColumn: 2, Name: "bar"})

	data, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	consumer, err := sourcemap.NewConsumer(data)
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}

	_, line, col, name, ok := consumer.Source(1, 1)
	if !ok || line != 1 || col != 1 || name != "foo" {
		t.Fatalf("expected (1,1,foo), got (%d,%d,%q,%v)", line, col, name, ok)
	}

	_, line, col, _, ok = consumer.Source(3, 3)
	if !ok || line != 5 || col != 2 {
		t.Fatalf("expected (5,2), got (%d,%d,%v)", line, col, ok)
	}
}

func TestGenerateOnEmptyGeneratorProducesValidDocument(t *testing.T) {
	g := sourcemap.NewGenerator("out.lua", "in.luax")
	data, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := sourcemap.NewConsumer(data); err != nil {
		t.Fatalf("expected an empty-but-valid source map, got parse error: %v", err)
	}
}
