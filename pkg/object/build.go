package object

import (
	"fmt"
	"sort"
	"strings"
)

// Node is a nested mapping of names to content: values are raw content
// (string or []byte) or a further nested mapping (Node or map[string]any).
// How the mapping is produced is the caller's business; the builder only
// requires valid entry names and supported value types.
type Node map[string]any

// BuildObserver receives a notification for each object written during a
// build. It replaces ambient debug state: callers that want build tracing
// inject one, everyone else passes nothing.
type BuildObserver func(objType Type, id ID, size int)

// TreeBuilder turns a nested mapping into a tree of stored objects: a blob
// per leaf, a tree per mapping, written bottom-up through Store. The root id
// it returns is independent of the order in which mapping keys are
// enumerated, because every tree is sorted before it is serialized.
type TreeBuilder struct {
	Store    *Store
	Observer BuildObserver // optional
}

// Build validates the whole node, then recursively stores its objects and
// returns the root tree id. Invalid input is rejected before the first
// store write, so a failed build never leaves a partial tree behind.
func (b *TreeBuilder) Build(root Node) (ID, error) {
	if b.Store == nil {
		return "", fmt.Errorf("tree build: no store configured")
	}
	if root == nil {
		return "", fmt.Errorf("tree build: nil node: %w", ErrInvalidInput)
	}
	if err := validateNode(root, ""); err != nil {
		return "", err
	}
	return b.buildNode(root)
}

// validateNode walks the mapping without touching the store, checking entry
// names and value types. at is the path context for error messages.
func validateNode(n Node, at string) error {
	for name, value := range n {
		full := name
		if at != "" {
			full = at + "/" + name
		}
		if !ValidEntryName(name) {
			return fmt.Errorf("tree build: entry name %q: %w", full, ErrInvalidInput)
		}
		switch v := value.(type) {
		case string, []byte:
		case Node:
			if err := validateNode(v, full); err != nil {
				return err
			}
		case map[string]any:
			if err := validateNode(Node(v), full); err != nil {
				return err
			}
		default:
			return fmt.Errorf("tree build: entry %q: unsupported value type %T: %w", full, value, ErrInvalidInput)
		}
	}
	return nil
}

func (b *TreeBuilder) buildNode(n Node) (ID, error) {
	// Deterministic traversal order; the tree's identity does not depend on
	// it, but observers see a stable write sequence.
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]TreeEntry, 0, len(n))
	for _, name := range names {
		var entry TreeEntry
		switch v := n[name].(type) {
		case string:
			id, err := b.put(&Blob{Data: []byte(v)})
			if err != nil {
				return "", fmt.Errorf("tree build: blob %q: %w", name, err)
			}
			entry = TreeEntry{Mode: ModeFile, Name: name, Target: id}
		case []byte:
			id, err := b.put(&Blob{Data: v})
			if err != nil {
				return "", fmt.Errorf("tree build: blob %q: %w", name, err)
			}
			entry = TreeEntry{Mode: ModeFile, Name: name, Target: id}
		case Node:
			id, err := b.buildNode(v)
			if err != nil {
				return "", err
			}
			entry = TreeEntry{Mode: ModeDir, Name: name, Target: id}
		case map[string]any:
			id, err := b.buildNode(Node(v))
			if err != nil {
				return "", err
			}
			entry = TreeEntry{Mode: ModeDir, Name: name, Target: id}
		}
		entries = append(entries, entry)
	}

	tree, err := NewTree(entries)
	if err != nil {
		return "", fmt.Errorf("tree build: %w", err)
	}
	return b.put(tree)
}

func (b *TreeBuilder) put(o Object) (ID, error) {
	id, err := b.Store.Put(o)
	if err != nil {
		return "", err
	}
	if b.Observer != nil {
		b.Observer(o.Type(), id, len(o.Encode()))
	}
	return id, nil
}

// CommitBuilder assembles a commit referencing a root tree and writes it
// through Store. It does not verify that the tree id exists in the store;
// that assertion belongs to the caller.
type CommitBuilder struct {
	Store    *Store
	Observer BuildObserver // optional
}

// Build constructs a commit from externally supplied metadata, stores it and
// returns its id. All fields are required except parents and message.
func (b *CommitBuilder) Build(tree ID, parents []ID, author Actor, authoredAt Timestamp, committer Actor, committedAt Timestamp, message string) (ID, error) {
	if b.Store == nil {
		return "", fmt.Errorf("commit build: no store configured")
	}
	if _, err := ParseID(string(tree)); err != nil {
		return "", fmt.Errorf("commit build: tree: %v: %w", err, ErrInvalidInput)
	}
	for _, p := range parents {
		if _, err := ParseID(string(p)); err != nil {
			return "", fmt.Errorf("commit build: parent: %v: %w", err, ErrInvalidInput)
		}
	}
	if err := validateActor("author", author); err != nil {
		return "", err
	}
	if err := validateActor("committer", committer); err != nil {
		return "", err
	}

	c := &Commit{
		Tree:       tree,
		Parents:    parents,
		Author:     author,
		AuthorTime: authoredAt,
		Committer:  committer,
		CommitTime: committedAt,
		Message:    message,
	}
	id, err := b.Store.Put(c)
	if err != nil {
		return "", fmt.Errorf("commit build: %w", err)
	}
	if b.Observer != nil {
		b.Observer(TypeCommit, id, len(c.Encode()))
	}
	return id, nil
}

// validateActor rejects identity values that would corrupt the canonical
// header line they are rendered into.
func validateActor(role string, a Actor) error {
	if a.Name == "" || strings.ContainsAny(a.Name, "\n<>") {
		return fmt.Errorf("commit build: %s name %q: %w", role, a.Name, ErrInvalidInput)
	}
	if a.Email == "" || strings.ContainsAny(a.Email, "\n<>") {
		return fmt.Errorf("commit build: %s email %q: %w", role, a.Email, ErrInvalidInput)
	}
	return nil
}
