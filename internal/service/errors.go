package service

import "errors"

// ErrInvalidInput marks a request the service refuses before touching the device
var ErrInvalidInput = errors.New("invalid input")
