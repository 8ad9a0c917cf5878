package object

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ID is the 40-character lowercase hex rendering of a 20-byte SHA-1 digest.
// Two objects with byte-identical canonical serializations always carry the
// same ID; the store relies on this for deduplication.
type ID string

const (
	// RawIDLen is the digest length in bytes.
	RawIDLen = 20
	// HexIDLen is the length of the hex rendering.
	HexIDLen = 2 * RawIDLen
)

// ParseID validates s as a 40-character lowercase hex identifier.
func ParseID(s string) (ID, error) {
	if len(s) != HexIDLen {
		return "", fmt.Errorf("parse id %q: want %d hex characters, got %d", s, HexIDLen, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return "", fmt.Errorf("parse id %q: invalid character %q at offset %d", s, c, i)
	}
	return ID(s), nil
}

// Raw returns the binary form of the digest, as embedded in tree entries.
func (id ID) Raw() ([]byte, error) {
	raw, err := hex.DecodeString(string(id))
	if err != nil || len(raw) != RawIDLen {
		return nil, fmt.Errorf("id %q is not a valid %d-byte digest", id, RawIDLen)
	}
	return raw, nil
}

// Short returns the abbreviated form used in human-facing output.
func (id ID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

func idFromRaw(raw []byte) ID {
	return ID(hex.EncodeToString(raw))
}

// Type identifies the kind of object stored.
type Type string

const (
	TypeBlob   Type = "blob"
	TypeTree   Type = "tree"
	TypeCommit Type = "commit"
)

func validType(t Type) bool {
	switch t {
	case TypeBlob, TypeTree, TypeCommit:
		return true
	default:
		return false
	}
}

// Mode tags a tree entry. The canonical format recognizes exactly two modes:
// regular content and subtree.
type Mode string

const (
	ModeFile Mode = "100644"
	ModeDir  Mode = "40000"
)

// Object is the closed variant over blob, tree and commit. Encode returns
// the canonical payload bytes, without the "type len\0" envelope.
type Object interface {
	Type() Type
	Encode() []byte
}

// Blob holds an opaque byte sequence.
type Blob struct {
	Data []byte
}

func (b *Blob) Type() Type { return TypeBlob }

// TreeEntry is one named child reference inside a tree.
type TreeEntry struct {
	Mode   Mode
	Name   string
	Target ID
}

// Tree holds entries sorted per the canonical comparator. Build trees with
// NewTree, which validates and normalizes the entry order.
type Tree struct {
	Entries []TreeEntry
}

func (t *Tree) Type() Type { return TypeTree }

// Actor is a named, emailed identity attached to a commit.
type Actor struct {
	Name  string
	Email string
}

// Timestamp is an instant plus the recording clock's UTC offset in minutes.
type Timestamp struct {
	Unix   int64
	Offset int
}

// Commit points at a root tree with authorship metadata. Parent ids are
// ordered and may be empty.
type Commit struct {
	Tree       ID
	Parents    []ID
	Author     Actor
	AuthorTime Timestamp
	Committer  Actor
	CommitTime Timestamp
	Message    string
}

func (c *Commit) Type() Type { return TypeCommit }

// ValidEntryName reports whether name is usable as a tree entry name:
// non-empty and free of path separators and NUL bytes.
func ValidEntryName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/\x00")
}
