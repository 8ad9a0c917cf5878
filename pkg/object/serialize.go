package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Serialize returns the full canonical serialization of an object: the
// "type len\0" envelope followed by the payload. This is the byte sequence
// that is hashed and the byte sequence the store persists.
func Serialize(o Object) []byte {
	payload := o.Encode()
	envelope := fmt.Sprintf("%s %d\x00", o.Type(), len(payload))
	return append([]byte(envelope), payload...)
}

// Decode parses a canonical payload back into its typed variant.
func Decode(objType Type, payload []byte) (Object, error) {
	switch objType {
	case TypeBlob:
		return decodeBlob(payload), nil
	case TypeTree:
		return decodeTree(payload)
	case TypeCommit:
		return decodeCommit(payload)
	default:
		return nil, fmt.Errorf("decode: unknown object type %q: %w", objType, ErrCorrupt)
	}
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// Encode returns the blob payload: the content bytes themselves.
func (b *Blob) Encode() []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

func decodeBlob(payload []byte) *Blob {
	out := make([]byte, len(payload))
	copy(out, payload)
	return &Blob{Data: out}
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// NewTree validates entries and returns a Tree with the canonical entry
// order. Names must be valid entry names and unique within the tree; modes
// must be one of the two recognized values; targets must be well-formed ids.
func NewTree(entries []TreeEntry) (*Tree, error) {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !ValidEntryName(e.Name) {
			return nil, fmt.Errorf("tree entry name %q: %w", e.Name, ErrInvalidInput)
		}
		if e.Mode != ModeFile && e.Mode != ModeDir {
			return nil, fmt.Errorf("tree entry %q: unknown mode %q: %w", e.Name, e.Mode, ErrInvalidInput)
		}
		if _, err := ParseID(string(e.Target)); err != nil {
			return nil, fmt.Errorf("tree entry %q: %v: %w", e.Name, err, ErrInvalidInput)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("tree entry %q: duplicate name: %w", e.Name, ErrInvalidInput)
		}
		seen[e.Name] = struct{}{}
	}

	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return entrySortKey(sorted[i]) < entrySortKey(sorted[j])
	})
	return &Tree{Entries: sorted}, nil
}

// entrySortKey implements the canonical tree ordering: byte-wise ascending
// by name, with subtree names compared as though they carried a trailing
// path separator. A plain lexicographic sort would misplace a subtree whose
// name is a prefix of a sibling's and change the tree's identity.
func entrySortKey(e TreeEntry) string {
	if e.Mode == ModeDir {
		return e.Name + "/"
	}
	return e.Name
}

// Encode returns the tree payload: for each entry, in canonical order,
// "mode SP name NUL raw-20-byte-id".
func (t *Tree) Encode() []byte {
	var buf bytes.Buffer
	for _, e := range t.Entries {
		buf.WriteString(string(e.Mode))
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		raw, _ := e.Target.Raw()
		buf.Write(raw)
	}
	return buf.Bytes()
}

func decodeTree(payload []byte) (*Tree, error) {
	tr := &Tree{}
	rest := payload
	prevKey := ""
	for len(rest) > 0 {
		sp := bytes.IndexByte(rest, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("decode tree: truncated entry mode: %w", ErrCorrupt)
		}
		mode := Mode(rest[:sp])
		if mode != ModeFile && mode != ModeDir {
			return nil, fmt.Errorf("decode tree: unknown mode %q: %w", mode, ErrCorrupt)
		}
		rest = rest[sp+1:]

		nul := bytes.IndexByte(rest, 0)
		if nul < 0 {
			return nil, fmt.Errorf("decode tree: truncated entry name: %w", ErrCorrupt)
		}
		name := string(rest[:nul])
		if !ValidEntryName(name) {
			return nil, fmt.Errorf("decode tree: malformed entry name %q: %w", name, ErrCorrupt)
		}
		rest = rest[nul+1:]

		if len(rest) < RawIDLen {
			return nil, fmt.Errorf("decode tree: truncated entry id for %q: %w", name, ErrCorrupt)
		}
		entry := TreeEntry{
			Mode:   mode,
			Name:   name,
			Target: idFromRaw(rest[:RawIDLen]),
		}
		rest = rest[RawIDLen:]

		// Stored entries must already be in canonical order; an out-of-order
		// or duplicate name means the payload was not produced by this
		// serializer.
		key := entrySortKey(entry)
		if prevKey != "" && key <= prevKey {
			return nil, fmt.Errorf("decode tree: entry %q out of order: %w", name, ErrCorrupt)
		}
		prevKey = key
		tr.Entries = append(tr.Entries, entry)
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// Encode returns the commit payload:
//
//	tree H
//	parent H     (zero or more)
//	author Name <email> unix zone
//	committer Name <email> unix zone
//
//	message
func (c *Commit) Encode() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.Tree))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s\n", formatIdent(c.Author, c.AuthorTime))
	fmt.Fprintf(&buf, "committer %s\n", formatIdent(c.Committer, c.CommitTime))
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

func decodeCommit(payload []byte) (*Commit, error) {
	idx := bytes.Index(payload, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("decode commit: missing header/message separator: %w", ErrCorrupt)
	}
	header := string(payload[:idx])
	message := string(payload[idx+2:])

	c := &Commit{Message: message}
	var haveTree, haveAuthor, haveCommitter bool
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("decode commit: malformed header line %q: %w", line, ErrCorrupt)
		}
		switch key {
		case "tree":
			id, err := ParseID(val)
			if err != nil {
				return nil, fmt.Errorf("decode commit: %v: %w", err, ErrCorrupt)
			}
			c.Tree = id
			haveTree = true
		case "parent":
			id, err := ParseID(val)
			if err != nil {
				return nil, fmt.Errorf("decode commit: %v: %w", err, ErrCorrupt)
			}
			c.Parents = append(c.Parents, id)
		case "author":
			actor, ts, err := parseIdent(val)
			if err != nil {
				return nil, fmt.Errorf("decode commit: author: %v: %w", err, ErrCorrupt)
			}
			c.Author, c.AuthorTime = actor, ts
			haveAuthor = true
		case "committer":
			actor, ts, err := parseIdent(val)
			if err != nil {
				return nil, fmt.Errorf("decode commit: committer: %v: %w", err, ErrCorrupt)
			}
			c.Committer, c.CommitTime = actor, ts
			haveCommitter = true
		default:
			return nil, fmt.Errorf("decode commit: unknown header key %q: %w", key, ErrCorrupt)
		}
	}
	if !haveTree || !haveAuthor || !haveCommitter {
		return nil, fmt.Errorf("decode commit: missing required header: %w", ErrCorrupt)
	}
	return c, nil
}

// formatIdent renders "Name <email> unix zone" where zone is the signed
// four-digit hour-minute rendering of the UTC offset.
func formatIdent(a Actor, ts Timestamp) string {
	return fmt.Sprintf("%s <%s> %d %s", a.Name, a.Email, ts.Unix, formatOffset(ts.Offset))
}

func parseIdent(s string) (Actor, Timestamp, error) {
	gt := strings.LastIndexByte(s, '>')
	if gt < 0 {
		return Actor{}, Timestamp{}, fmt.Errorf("malformed identity %q", s)
	}
	lt := strings.LastIndex(s[:gt], "<")
	if lt < 0 {
		return Actor{}, Timestamp{}, fmt.Errorf("malformed identity %q", s)
	}

	actor := Actor{
		Name:  strings.TrimRight(s[:lt], " "),
		Email: s[lt+1 : gt],
	}

	fields := strings.Fields(s[gt+1:])
	if len(fields) != 2 {
		return Actor{}, Timestamp{}, fmt.Errorf("malformed identity timestamp in %q", s)
	}
	unix, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Actor{}, Timestamp{}, fmt.Errorf("bad epoch %q: %w", fields[0], err)
	}
	offset, err := parseOffset(fields[1])
	if err != nil {
		return Actor{}, Timestamp{}, err
	}
	return actor, Timestamp{Unix: unix, Offset: offset}, nil
}

func formatOffset(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%02d%02d", sign, minutes/60, minutes%60)
}

func parseOffset(s string) (int, error) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return 0, fmt.Errorf("bad zone %q", s)
	}
	hours, err := strconv.Atoi(s[1:3])
	if err != nil {
		return 0, fmt.Errorf("bad zone %q: %w", s, err)
	}
	mins, err := strconv.Atoi(s[3:5])
	if err != nil || mins > 59 {
		return 0, fmt.Errorf("bad zone %q", s)
	}
	offset := hours*60 + mins
	if s[0] == '-' {
		offset = -offset
	}
	return offset, nil
}
