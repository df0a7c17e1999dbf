package vm

import (
	"bytes"
	"encoding/gob"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// Bytecode caching is a supplemental feature (SPEC_FULL.md §6): the
// compiler is an expensive external collaborator, so a compiled Function's
// Chunk can be persisted and keyed by a content hash of its source.
// SaveChunk writes an entry (the CLI's `cache` verb) and LoadChunk reads
// one back; the CLI's `run` verb does not consult the cache and always
// lexes, parses, and compiles the source. It has no bearing on VM
// semantics.

func init() {
	gob.Register(Nil{})
	gob.Register(Boolean{})
	gob.Register(Integer{})
	gob.Register(String{})
	gob.Register(&Function{})
}

// CacheKey returns the cache key for source text (the entry's file name
// without its .luac suffix), a hex-encoded
// BLAKE2b-256 digest — grounded in sneller's and probeum's direct
// dependency on golang.org/x/crypto for exactly this kind of content
// addressing.
func CacheKey(source []byte) (string, error) {
	sum := blake2b.Sum256(source)
	return hex.EncodeToString(sum[:]), nil
}

// SaveChunk gzip-compresses a gob encoding of chunk into dir/key.luac,
// using github.com/klauspost/compress's gzip implementation (sneller's own
// dependency) in place of the standard library's compress/gzip writer.
func SaveChunk(dir, key string, chunk *Chunk) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(chunk); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, key+".luac"))
	if err != nil {
		return err
	}
	defer f.Close()

	gz := newGzipWriter(f)
	defer gz.Close()
	_, err = gz.Write(buf.Bytes())
	return err
}

// LoadChunk reverses SaveChunk. A missing cache entry is reported via the
// normal os.IsNotExist(err) convention, not a panic.
func LoadChunk(dir, key string) (*Chunk, error) {
	f, err := os.Open(filepath.Join(dir, key+".luac"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := newGzipReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, err
	}

	chunk := &Chunk{constIndex: make(map[string]int)}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}
