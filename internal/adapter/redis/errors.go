package redis

import "errors"

var errInvalidURL = errors.New("invalid redis URL")
