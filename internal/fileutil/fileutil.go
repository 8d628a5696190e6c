// Package fileutil holds the small in-place file edits used to patch
// library sources before they are configured.
package fileutil

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Replace substitutes every occurrence of old with new in the file at path.
func Replace(path, old, new string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return writeKeepMode(path, bytes.ReplaceAll(data, []byte(old), []byte(new)))
}

// ReplaceRegexp substitutes every match of re in the file at path with the
// literal repl.
func ReplaceRegexp(path string, re *regexp.Regexp, repl string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return writeKeepMode(path, re.ReplaceAllLiteral(data, []byte(repl)))
}

// FindString returns the 0-based index of the first line containing text,
// or -1 when no line does.
func FindString(path, text string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return -1, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for i := 0; sc.Scan(); i++ {
		if strings.Contains(sc.Text(), text) {
			return i, nil
		}
	}
	return -1, sc.Err()
}

// DeleteLines removes the 0-based lines start through end, inclusive.
func DeleteLines(path string, start, end int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := bytes.SplitAfter(data, []byte("\n"))
	var out bytes.Buffer
	for i, line := range lines {
		if i < start || i > end {
			out.Write(line)
		}
	}
	return writeKeepMode(path, out.Bytes())
}

// Remove deletes path and everything below it. A missing path is not an
// error.
func Remove(path string) error {
	err := os.RemoveAll(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeKeepMode(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	return os.WriteFile(path, data, mode)
}
