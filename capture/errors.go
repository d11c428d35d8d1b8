package capture

import (
	"errors"

	"whisperwave/audio"
)

var (
	ErrPermissionDenied   = audio.ErrPermissionDenied
	ErrDeviceUnavailable  = audio.ErrDeviceUnavailable
	ErrEncoderUnavailable = errors.New("audio encoder unavailable")
	ErrNoActiveRecording  = errors.New("no active recording")
	ErrAlreadyRecording   = errors.New("already recording")
	ErrStopInProgress     = errors.New("stop already in progress")
)
