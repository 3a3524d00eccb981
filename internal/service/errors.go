package service

import "errors"

var (
	ErrCoinNotTracked     = errors.New("coin is not an active managed coin")
	ErrInvalidInput       = errors.New("invalid input")
	ErrResolutionDisabled = errors.New("resolution is disabled")
	ErrIntakeDisabled     = errors.New("prediction intake is disabled")
)
