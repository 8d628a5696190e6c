// Command ffbuild builds a static FFmpeg together with the third-party
// libraries it links.
package main

import "github.com/goplus/ffbuild/cmd/ffbuild/internal"

func main() {
	internal.Execute()
}
