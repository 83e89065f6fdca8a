//go:build !unix

package voice

import (
	"errors"
	"os"
)

var errPauseUnsupported = errors.New("pausing playback is not supported on this platform")

func pauseProcess(*os.Process) error  { return errPauseUnsupported }
func resumeProcess(*os.Process) error { return errPauseUnsupported }
