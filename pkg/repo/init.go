package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caskvcs/cask/pkg/object"
)

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// Init creates a new cask repository at path: the .cask/ directory with
// objects/, refs/heads/, a HEAD pointing at main, and a config recording the
// chosen store compression. Returns an error if .cask/ already exists.
func Init(path, compression string) (*Repo, error) {
	caskDir := filepath.Join(path, ".cask")

	if _, err := os.Stat(caskDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", caskDir)
	}

	if compression == "" {
		compression = CompressionNone
	}
	if compression != CompressionNone && compression != CompressionZstd {
		return nil, fmt.Errorf("init: unknown compression %q", compression)
	}

	dirs := []string{
		filepath.Join(caskDir, "objects"),
		filepath.Join(caskDir, "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(caskDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	r := &Repo{RootDir: path, CaskDir: caskDir}
	if err := r.WriteConfig(&Config{Store: StoreConfig{Compression: compression}}); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	r.Store = object.NewStore(caskDir, storeOptions(compression)...)
	return r, nil
}

// Open searches upward from path for a .cask/ directory and opens the
// repository, configuring the store from its config file.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		caskDir := filepath.Join(cur, ".cask")
		info, err := os.Stat(caskDir)
		if err == nil && info.IsDir() {
			r := &Repo{RootDir: cur, CaskDir: caskDir}
			cfg, err := r.ReadConfig()
			if err != nil {
				return nil, fmt.Errorf("open: %w", err)
			}
			r.Store = object.NewStore(caskDir, storeOptions(cfg.Store.Compression)...)
			return r, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a cask repository (or any parent up to /)")
		}
		cur = parent
	}
}

func storeOptions(compression string) []object.StoreOption {
	if compression == CompressionZstd {
		return []object.StoreOption{object.WithZstd()}
	}
	return nil
}

// Head reads .cask/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/main"). Otherwise it returns the raw content
// as a detached id string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.CaskDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// ResolveRef resolves a ref name to an object id.
//
// Resolution order:
//  1. If name is "HEAD", read HEAD. If HEAD is symbolic, resolve the target ref.
//  2. If name starts with "refs/", read .cask/<name>.
//  3. Otherwise, try "refs/heads/<name>".
func (r *Repo) ResolveRef(name string) (object.ID, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		return object.ID(head), nil
	}

	var refPath string
	if strings.HasPrefix(name, "refs/") {
		refPath = filepath.Join(r.CaskDir, name)
	} else {
		refPath = filepath.Join(r.CaskDir, "refs", "heads", name)
	}

	data, err := os.ReadFile(refPath)
	if err != nil {
		return "", fmt.Errorf("resolve ref %q: %w", name, err)
	}
	return object.ID(strings.TrimRight(string(data), "\n")), nil
}

// UpdateRef writes an id to the named ref file under .cask/ using lockfile
// + rename semantics, so concurrent updaters never interleave partial
// writes. Parent directories are created as needed.
func (r *Repo) UpdateRef(name string, id object.ID) error {
	refPath := filepath.Join(r.CaskDir, name)

	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}

	if _, err := lockFile.WriteString(string(id) + "\n"); err != nil {
		lockFile.Close()
		os.Remove(lockPath)
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		os.Remove(lockPath)
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}

	if err := os.Rename(lockPath, refPath); err != nil {
		os.Remove(lockPath)
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}
