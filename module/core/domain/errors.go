package domain

import "errors"

var (
	ErrInvalidPosition = errors.New("invalid position")
	ErrNoWaypoints     = errors.New("no waypoints configured")
	ErrInvalidConfig   = errors.New("invalid access configuration")
)
