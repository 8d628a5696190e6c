package build

import (
	"os"
	"path/filepath"
)

// Build-temp root layout:
//
//	targetDir/
//	  .ffbuild.lock        # held for the duration of a run
//	  <name>.ok            # zero-byte completion marker
//	  <archive>            # downloaded source archive
//	  <folder...>/         # extracted sources, the library's working directory
const (
	lockFile     = ".ffbuild.lock"
	markerSuffix = ".ok"
)

// MarkerPath returns the completion marker of a library.
func MarkerPath(targetDir, name string) string {
	return filepath.Join(targetDir, name+markerSuffix)
}

// IsBuilt reports whether the library has a completion marker.
func IsBuilt(targetDir, name string) bool {
	_, err := os.Stat(MarkerPath(targetDir, name))
	return err == nil
}

func markBuilt(targetDir, name string) error {
	return os.WriteFile(MarkerPath(targetDir, name), nil, 0o644)
}
