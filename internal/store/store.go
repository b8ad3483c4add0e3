// Package store keeps the compile journal: for each source file, the digest
// of the text it was last compiled from and the outputs that run produced.
package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// Output is a file written by a compile run.
type Output struct {
	Path   string
	Digest string
}

// Entry is the journal record of one source file.
type Entry struct {
	Source  string
	Digest  string
	Outputs []Output
	Ts      string
}

// Store is the interface for journal persistence.
type Store interface {
	// Get retrieves the entry of a source. Returns nil if not found.
	Get(source string) (*Entry, error)
	// Put stores an entry, replacing any previous one for the same source.
	Put(e Entry) error
	// Delete removes the entry of a source.
	Delete(source string) error
	// Close releases resources.
	Close() error
}

// Digest returns the hex SHA-256 digest of text.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// UpToDate reports whether the entry was recorded for a source with the given
// digest and every recorded output still has the content it was written
// with. read returns the current content of an output.
func (e *Entry) UpToDate(digest string, read func(path string) (string, error)) bool {
	if e == nil || e.Digest != digest || len(e.Outputs) == 0 {
		return false
	}
	for _, o := range e.Outputs {
		text, err := read(o.Path)
		if err != nil || Digest(text) != o.Digest {
			return false
		}
	}
	return true
}

// Produced reports whether path is among the recorded outputs.
func (e *Entry) Produced(path string) bool {
	if e == nil {
		return false
	}
	for _, o := range e.Outputs {
		if o.Path == path {
			return true
		}
	}
	return false
}
