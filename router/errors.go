package router

import "errors"

var (
	// ErrNoNearbyRoad is returned when a query coordinate has no graph node
	// within the snap radius.
	ErrNoNearbyRoad = errors.New("no road near coordinate")
	// ErrNoRoute is returned when the destination is unreachable from the
	// origin, or any waypoint leg is.
	ErrNoRoute = errors.New("no route between points")
	// ErrBadQuery is returned for queries that are malformed before any
	// search runs (invalid coordinates, unknown profile).
	ErrBadQuery = errors.New("bad route query")
)
