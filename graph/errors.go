package graph

import "errors"

var (
	// ErrInvalidFormat is returned when the region file's magic, version or
	// contents do not form a well-formed road network.
	ErrInvalidFormat = errors.New("invalid region file format")
	// ErrTruncated is returned when declared table sizes exceed the bytes
	// actually present in the region file.
	ErrTruncated = errors.New("truncated region file")
)
