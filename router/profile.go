package router

import "fmt"

// Profile selects the edge weighting of a route query.
type Profile string

const (
	// ProfileFastest weights edges by traversal time (length / speed).
	ProfileFastest Profile = "fastest"
	// ProfileShortest weights edges by length.
	ProfileShortest Profile = "shortest"
)

// ParseProfile validates a wire-level profile string. The empty string means
// fastest.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case "":
		return ProfileFastest, nil
	case ProfileFastest, ProfileShortest:
		return Profile(s), nil
	default:
		return "", fmt.Errorf("%w: unknown profile %q", ErrBadQuery, s)
	}
}
