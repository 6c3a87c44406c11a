package model

import (
	"fmt"
	"strings"

	"github.com/tiendc/go-deepcopy"
)

// DefaultRootJoint is the joint whose translation is kept by RetargetFilter when no other is given.
const DefaultRootJoint = "Hips"

// TrackPredicate decides whether a track survives a clip filter.
type TrackPredicate func(track AnimationTrack) bool

// RetargetFilter returns a predicate that keeps the root joint's translation and every rotation
// track. Translation of non-root joints and all scale tracks are dropped so a clip authored on one
// body can drive another body with different proportions.
//
// Parameters:
//   - rootJoint: the root joint name; empty selects DefaultRootJoint
//
// Returns:
//   - TrackPredicate: the filter predicate
func RetargetFilter(rootJoint string) TrackPredicate {
	if rootJoint == "" {
		rootJoint = DefaultRootJoint
	}
	rootSuffix := rootJoint + "." + string(ChannelPosition)
	rotSuffix := "." + string(ChannelQuaternion)
	return func(track AnimationTrack) bool {
		name := track.Name()
		return strings.HasSuffix(name, rootSuffix) || strings.HasSuffix(name, rotSuffix)
	}
}

// Filter returns a deep copy of the clip containing only the tracks for which keep returns true.
// The receiver is never modified. A nil keep keeps every track.
//
// Parameters:
//   - keep: the track predicate
//
// Returns:
//   - *AnimationClip: the filtered copy
//   - error: an error if the clip could not be copied
func (c *AnimationClip) Filter(keep TrackPredicate) (*AnimationClip, error) {
	if c == nil {
		return nil, nil
	}

	var out AnimationClip
	if err := deepcopy.Copy(&out, *c); err != nil {
		return nil, fmt.Errorf("failed to copy clip %q: %w", c.Name, err)
	}
	if keep == nil {
		return &out, nil
	}

	kept := out.Tracks[:0]
	for _, track := range out.Tracks {
		if keep(track) {
			kept = append(kept, track)
		}
	}
	out.Tracks = kept
	return &out, nil
}

// TrackNames returns the names of all tracks in the clip in order.
//
// Returns:
//   - []string: the track names
func (c *AnimationClip) TrackNames() []string {
	names := make([]string, len(c.Tracks))
	for i, track := range c.Tracks {
		names[i] = track.Name()
	}
	return names
}
