package repo

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/caskvcs/cask/pkg/object"
)

// LoadNode reads TOML documents and deep-merges them, in order, into a
// single build node: tables become subtrees, scalar values become leaf
// content. Later documents override earlier ones; tables merge recursively,
// any other collision is replaced outright.
func LoadNode(paths ...string) (object.Node, error) {
	merged := object.Node{}
	for _, path := range paths {
		var raw map[string]any
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return nil, fmt.Errorf("load data %s: %w", path, err)
		}
		node, err := nodeFromTable(raw, "")
		if err != nil {
			return nil, fmt.Errorf("load data %s: %w", path, err)
		}
		merged = MergeNodes(merged, node)
	}
	return merged, nil
}

// nodeFromTable converts a decoded TOML table into a build node. Scalars
// render to their canonical string form; arrays and datetimes have no leaf
// representation and are rejected.
func nodeFromTable(table map[string]any, at string) (object.Node, error) {
	node := make(object.Node, len(table))
	for key, value := range table {
		full := key
		if at != "" {
			full = at + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			child, err := nodeFromTable(v, full)
			if err != nil {
				return nil, err
			}
			node[key] = child
		case string:
			node[key] = v
		case int64:
			node[key] = strconv.FormatInt(v, 10)
		case float64:
			node[key] = strconv.FormatFloat(v, 'g', -1, 64)
		case bool:
			node[key] = strconv.FormatBool(v)
		default:
			return nil, fmt.Errorf("key %q: unsupported value type %T: %w", full, value, object.ErrInvalidInput)
		}
	}
	return node, nil
}

// MergeNodes returns the deep merge of src over dst. Neither input is
// modified.
func MergeNodes(dst, src object.Node) object.Node {
	out := make(object.Node, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		dstChild, dstIsNode := out[k].(object.Node)
		srcChild, srcIsNode := v.(object.Node)
		if dstIsNode && srcIsNode {
			out[k] = MergeNodes(dstChild, srcChild)
			continue
		}
		out[k] = v
	}
	return out
}
