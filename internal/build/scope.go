package build

import (
	"fmt"
	"os"

	"github.com/goplus/ffbuild/internal/library"
)

// inDir runs fn with dir as the working directory, creating dir if needed.
// The previous directory is restored and the environment set through lc is
// reverted on every return path.
func inDir(dir string, lc *library.Context, fn func() error) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	prev, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := os.Chdir(dir); err != nil {
		return err
	}
	defer func() {
		lc.RevertEnv()
		if cerr := os.Chdir(prev); cerr != nil && err == nil {
			err = fmt.Errorf("restore working directory: %w", cerr)
		}
	}()
	return fn()
}
