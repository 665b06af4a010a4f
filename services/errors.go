package services

import "errors"

// Sentinel errors handlers translate to HTTP statuses.
// Anything else bubbling out of a ledger write is treated as the
// storage layer being unavailable — writes are never silently dropped.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)
