package domain

import "errors"

// ErrInvalidArgument is returned when an operation receives a malformed value
// (negative amount, zero bead count, negative random count...).
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidChannel is returned when a channel would carry no funds or would
// connect a node to itself.
var ErrInvalidChannel = errors.New("invalid channel")

// ErrInsufficientFunds is returned when a debit exceeds the available balance,
// either a node's free balance or one side of a channel.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrNotFound is returned when a node or channel cannot be found.
var ErrNotFound = errors.New("not found")

// ErrDuplicateNode is returned when a node id is already taken.
var ErrDuplicateNode = errors.New("duplicate node")

// ErrDuplicateChannel is returned when a channel already exists between two nodes.
var ErrDuplicateChannel = errors.New("duplicate channel")

// ErrNotInPresentationMode is returned when a step is requested but no presentation was configured.
var ErrNotInPresentationMode = errors.New("not in presentation mode")

// ErrPresentationEnded is returned when every step of the presentation has been played.
var ErrPresentationEnded = errors.New("presentation ended")

// ErrSnapshotNotFound is returned when a snapshot name cannot be found in the store.
var ErrSnapshotNotFound = errors.New("snapshot not found")
