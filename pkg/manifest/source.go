package manifest

import "path/filepath"

// Source identifies where a manifest document originated so the loader can
// operate on files, fs.FS entries, or in-memory payloads without leaking
// implementation details.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile  SourceKind = "file"
	SourceKindFS    SourceKind = "fs"
	SourceKindBytes SourceKind = "bytes"
)

// fileSource identifies on-disk manifest documents.
type fileSource struct {
	path string
}

func (s fileSource) Location() string {
	return s.path
}

func (s fileSource) Kind() SourceKind {
	return SourceKindFile
}

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

// fsSource references a path within an fs.FS.
type fsSource struct {
	name string
}

func (s fsSource) Location() string {
	return s.name
}

func (s fsSource) Kind() SourceKind {
	return SourceKindFS
}

// SourceFromFS returns a Source identifying a resource inside an fs.FS.
func SourceFromFS(name string) Source {
	return fsSource{name: name}
}

// bytesSource carries an in-memory payload under a synthetic name whose
// extension drives format detection.
type bytesSource struct {
	name string
	data []byte
}

func (s bytesSource) Location() string {
	return s.name
}

func (s bytesSource) Kind() SourceKind {
	return SourceKindBytes
}

func (s bytesSource) Payload() []byte {
	return append([]byte(nil), s.data...)
}

// SourceFromBytes returns a Source wrapping an in-memory document. The name
// must carry the extension of the encoded format, such as inline.yaml. It
// panics on an empty name.
func SourceFromBytes(name string, data []byte) Source {
	if name == "" {
		panic("manifest: empty bytes source name")
	}
	return bytesSource{name: name, data: append([]byte(nil), data...)}
}
