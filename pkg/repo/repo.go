package repo

import (
	"github.com/caskvcs/cask/pkg/object"
)

// Repo represents an opened cask repository.
type Repo struct {
	RootDir string // working directory root
	CaskDir string // .cask/ directory
	Store   *object.Store

	// Observer, when set, receives a notification for every object the
	// repository's builders write.
	Observer object.BuildObserver
}
