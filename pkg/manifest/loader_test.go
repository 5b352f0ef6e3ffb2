package manifest_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-kernelgen/pkg/manifest"
)

func TestLoaderReadsFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"models/abs.json": &fstest.MapFile{Data: []byte(inlineJSON)},
	}
	loader := manifest.NewLoader(manifest.WithFileSystem(fsys))

	doc, err := loader.Load(context.Background(), manifest.SourceFromFS("models/abs.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Location() != "models/abs.json" {
		t.Fatalf("unexpected location %q", doc.Location())
	}

	m, err := manifest.Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Name != "abs" {
		t.Fatalf("unexpected manifest name %q", m.Name)
	}
}

func TestLoaderFSRequiresConfiguration(t *testing.T) {
	loader := manifest.NewLoader()

	if _, err := loader.Load(context.Background(), manifest.SourceFromFS("models/abs.json")); err == nil {
		t.Fatalf("expected load to fail without a configured filesystem")
	}
}

func TestLoaderRequiresSource(t *testing.T) {
	loader := manifest.NewLoader()

	if _, err := loader.Load(context.Background(), nil); err == nil {
		t.Fatalf("expected load to fail without a source")
	}
}

func TestLoaderHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := manifest.NewLoader()
	_, err := loader.Load(ctx, manifest.SourceFromFile("testdata/pipeline.yaml"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoaderBytesSource(t *testing.T) {
	loader := manifest.NewLoader()

	doc, err := loader.Load(context.Background(), manifest.SourceFromBytes("inline.json", []byte(inlineJSON)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Raw()) != inlineJSON {
		t.Fatalf("payload did not round-trip")
	}
}

func TestDocumentCopiesPayload(t *testing.T) {
	raw := []byte("version: v1\n")
	doc := manifest.MustNewDocument(manifest.SourceFromBytes("m.yaml", raw), raw)

	leaked := doc.Raw()
	leaked[0] = 'X'
	if string(doc.Raw()) != "version: v1\n" {
		t.Fatalf("mutating the returned payload must not affect the document")
	}
}

func TestNewDocumentValidates(t *testing.T) {
	if _, err := manifest.NewDocument(nil, []byte("x")); err == nil {
		t.Fatalf("expected error for nil source")
	}
	if _, err := manifest.NewDocument(manifest.SourceFromFile("m.yaml"), nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}
