package repo

import (
	"fmt"
	"strings"

	"github.com/caskvcs/cask/pkg/object"
)

// Commit builds the tree for node and records a commit advancing the
// current branch.
//
//  1. Build the tree of blobs and subtrees from node
//  2. Resolve HEAD to get the parent commit id (if any)
//  3. Write a commit referencing the root tree
//  4. Update the current branch ref to the new commit id
func (r *Repo) Commit(node object.Node, message string, author object.Actor, when object.Timestamp) (object.ID, error) {
	builder := &object.TreeBuilder{Store: r.Store, Observer: r.Observer}
	treeID, err := builder.Build(node)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return r.CommitTree(treeID, message, author, when)
}

// CommitTree records a commit for an already-stored root tree, advancing
// the current branch. The caller vouches that treeID names a tree.
func (r *Repo) CommitTree(treeID object.ID, message string, author object.Actor, when object.Timestamp) (object.ID, error) {
	// Resolve HEAD to get the parent (may not exist for the first commit).
	var parents []object.ID
	if parentID, err := r.ResolveRef("HEAD"); err == nil && parentID != "" {
		parents = append(parents, parentID)
	}

	builder := &object.CommitBuilder{Store: r.Store, Observer: r.Observer}
	commitID, err := builder.Build(treeID, parents, author, when, author, when, message)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("commit: read HEAD: %w", err)
	}
	// head is either a ref path ("refs/heads/main") or a detached id.
	target := "HEAD"
	if strings.HasPrefix(head, "refs/") {
		target = head
	}
	if err := r.UpdateRef(target, commitID); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	return commitID, nil
}
