// Package pathfix converts native Windows paths to the MSYS form that
// autotools and make accept.
package pathfix

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnrecognized is returned for a Windows path that matches no known form.
var ErrUnrecognized = errors.New("unrecognized windows path")

var (
	forwardDrive  = regexp.MustCompile(`([a-zA-Z]):/(.*)`)
	backwardDrive = regexp.MustCompile(`([a-zA-Z]):\\(.*)`)
	msysDrive     = regexp.MustCompile(`/([a-zA-Z])/(.*)`)
)

// For converts src as if running on goos. Outside Windows the path is
// returned unchanged.
func For(goos, src string) (string, error) {
	if goos != "windows" {
		return src, nil
	}
	if m := forwardDrive.FindStringSubmatch(src); m != nil {
		return "/" + strings.ToLower(m[1]) + "/" + m[2], nil
	}
	if m := backwardDrive.FindStringSubmatch(src); m != nil {
		return "/" + strings.ToLower(m[1]) + "/" + strings.ReplaceAll(m[2], `\`, "/"), nil
	}
	if m := msysDrive.FindStringSubmatch(src); m != nil {
		return "/" + strings.ToLower(m[1]) + "/" + m[2], nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnrecognized, src)
}
