package primitives

import (
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// Filepath names a heap file or the directory that holds heap files.
//
//	dataDir := primitives.Filepath("/data")
//	tablePath := dataDir.Join("users.dat")
//	tableID := tablePath.Hash()
type Filepath string

// Hash derives the TableID for the heap file at this path. Paths are
// cleaned first, so "/data/./users.dat" and "/data/users.dat" share an id
// and a table keeps its identity across restarts.
//
// A zero hash would collide with InvalidTableID and is remapped to 1.
func (f Filepath) Hash() TableID {
	h := xxhash.Sum64String(filepath.Clean(string(f)))
	if h == 0 {
		h = 1
	}
	return TableID(h)
}

func (f Filepath) String() string {
	return string(f)
}

func (f Filepath) Join(elem ...string) Filepath {
	return Filepath(filepath.Join(append([]string{string(f)}, elem...)...))
}

// Dir returns the directory containing the file.
func (f Filepath) Dir() Filepath {
	return Filepath(filepath.Dir(string(f)))
}

// Base returns the file name without its directory.
func (f Filepath) Base() string {
	return filepath.Base(string(f))
}

func (f Filepath) IsEmpty() bool {
	return f == ""
}

// Exists reports whether anything exists at the path.
func (f Filepath) Exists() bool {
	_, err := os.Stat(string(f))
	return err == nil
}

// EnsureDir creates the directory that will contain the file, with any
// missing parents.
func (f Filepath) EnsureDir(perm os.FileMode) error {
	return os.MkdirAll(string(f.Dir()), perm)
}
