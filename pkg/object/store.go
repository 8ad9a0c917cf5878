package object

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the zstd frame header; reads sniff it so plain and
// compressed stores interoperate on the same object directory.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithZstd makes the store compress loose objects on disk. Identifiers are
// computed over the uncompressed serialization, so compression never changes
// an object's id.
func WithZstd() StoreOption {
	return func(s *Store) { s.compress = true }
}

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
//
// Writes are idempotent: putting an object that is already present is a
// no-op that returns the same id. A single put is atomic with respect to a
// crash (temp file + rename), so a partially written object is never
// observable under its final id.
type Store struct {
	root     string
	compress bool
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// objectPath returns the filesystem path for a given id.
func (s *Store) objectPath(id ID) string {
	return filepath.Join(s.root, "objects", string(id[:2]), string(id[2:]))
}

// Has reports whether the store contains an object with the given id,
// without deserializing it.
func (s *Store) Has(id ID) bool {
	if _, err := ParseID(string(id)); err != nil {
		return false
	}
	_, err := os.Stat(s.objectPath(id))
	return err == nil
}

// Put computes the object's id and persists its canonical serialization
// under that id. If the id is already present the call is a no-op; content
// addressing guarantees the stored bytes are identical.
func (s *Store) Put(o Object) (ID, error) {
	raw := Serialize(o)
	id := HashBytes(raw)

	// Fast path: already exists.
	if s.Has(id) {
		return id, nil
	}

	if s.compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return "", fmt.Errorf("object write %s: zstd: %w", id, err)
		}
		raw = enc.EncodeAll(raw, nil)
		enc.Close()
	}

	dir := filepath.Join(s.root, "objects", string(id[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	// Atomic write via temp + rename.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	if err := os.Rename(tmpName, s.objectPath(id)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	return id, nil
}

// Get retrieves an object by id and parses it back into its typed variant.
// Returns ErrNotFound if no object with that id exists, ErrCorrupt if the
// stored bytes do not parse as a well-formed object.
func (s *Store) Get(id ID) (Object, error) {
	objType, payload, err := s.read(id)
	if err != nil {
		return nil, err
	}
	o, err := Decode(objType, payload)
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w", id, err)
	}
	return o, nil
}

// read fetches the serialization for id and splits the envelope, verifying
// the declared payload length.
func (s *Store) read(id ID) (Type, []byte, error) {
	if _, err := ParseID(string(id)); err != nil {
		return "", nil, fmt.Errorf("object read: %v: %w", err, ErrInvalidInput)
	}

	raw, err := os.ReadFile(s.objectPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("object read %s: %w", id, ErrNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", id, err)
	}

	if bytes.HasPrefix(raw, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return "", nil, fmt.Errorf("object read %s: zstd: %w", id, err)
		}
		raw, err = dec.DecodeAll(raw, nil)
		dec.Close()
		if err != nil {
			return "", nil, fmt.Errorf("object read %s: zstd: %v: %w", id, err, ErrCorrupt)
		}
	}

	// Parse envelope: "type len\0payload"
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object read %s: no envelope terminator: %w", id, ErrCorrupt)
	}
	header := string(raw[:nulIdx])
	payload := raw[nulIdx+1:]

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("object read %s: invalid envelope %q: %w", id, header, ErrCorrupt)
	}
	objType := Type(parts[0])
	if !validType(objType) {
		return "", nil, fmt.Errorf("object read %s: unknown type %q: %w", id, parts[0], ErrCorrupt)
	}
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: invalid length %q: %w", id, parts[1], ErrCorrupt)
	}
	if len(payload) != length {
		return "", nil, fmt.Errorf("object read %s: length mismatch (declared=%d, actual=%d): %w", id, length, len(payload), ErrCorrupt)
	}

	return objType, payload, nil
}

// Stats reports the number of stored objects and their on-disk size.
func (s *Store) Stats() (count int, size int64, err error) {
	objectsDir := filepath.Join(s.root, "objects")
	err = filepath.WalkDir(objectsDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		count++
		size += info.Size()
		return nil
	})
	if os.IsNotExist(err) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("store stats: %w", err)
	}
	return count, size, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// PutBlob stores a Blob.
func (s *Store) PutBlob(b *Blob) (ID, error) { return s.Put(b) }

// GetBlob retrieves a Blob, failing if the id holds a different type.
func (s *Store) GetBlob(id ID) (*Blob, error) {
	o, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	b, ok := o.(*Blob)
	if !ok {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", id, o.Type(), TypeBlob)
	}
	return b, nil
}

// PutTree stores a Tree.
func (s *Store) PutTree(t *Tree) (ID, error) { return s.Put(t) }

// GetTree retrieves a Tree, failing if the id holds a different type.
func (s *Store) GetTree(id ID) (*Tree, error) {
	o, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	t, ok := o.(*Tree)
	if !ok {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", id, o.Type(), TypeTree)
	}
	return t, nil
}

// PutCommit stores a Commit.
func (s *Store) PutCommit(c *Commit) (ID, error) { return s.Put(c) }

// GetCommit retrieves a Commit, failing if the id holds a different type.
func (s *Store) GetCommit(id ID) (*Commit, error) {
	o, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	c, ok := o.(*Commit)
	if !ok {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", id, o.Type(), TypeCommit)
	}
	return c, nil
}
