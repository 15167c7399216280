package domain

import "errors"

var ErrReplayDetected = errors.New("replay detected")
