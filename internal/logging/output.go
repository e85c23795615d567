package logging

import (
	"io"
	"os"
)

// stderr is a seam for tests that capture log output.
var stderrOverride io.Writer

func stderr() io.Writer {
	if stderrOverride != nil {
		return stderrOverride
	}
	return os.Stderr
}
