package model

// --- Animation Types ---

// Channel names the node property an AnimationTrack drives.
type Channel string

const (
	// ChannelPosition drives a node's translation.
	ChannelPosition Channel = "position"
	// ChannelQuaternion drives a node's rotation.
	ChannelQuaternion Channel = "quaternion"
	// ChannelScale drives a node's scale.
	ChannelScale Channel = "scale"
)

// Interpolation selects how a track is sampled between keyframes.
type Interpolation string

const (
	// InterpolationLinear blends neighbouring keys (slerp for rotations). The zero value samples
	// the same way.
	InterpolationLinear Interpolation = "linear"
	// InterpolationStep holds each key until the next one.
	InterpolationStep Interpolation = "step"
	// InterpolationCubicSpline marks tracks imported from cubic-spline samplers. Their tangents
	// are dropped at import and the key values are blended linearly.
	InterpolationCubicSpline Interpolation = "cubicspline"
)

// AnimationClip represents a single named animation (idle, walk, wave, etc.).
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// Tracks contains the keyframe data, one track per animated node property.
	Tracks []AnimationTrack
}

// AnimationTrack contains keyframe data for a single property of a single node.
// Tracks address their target by node name so one clip can drive any avatar whose
// hierarchy uses the same joint names.
type AnimationTrack struct {
	// Target is the name of the node this track animates.
	Target string

	// Channel is the property this track animates.
	Channel Channel

	// Interpolation is how values between keys are sampled.
	Interpolation Interpolation

	// VectorKeys are keyframes for position and scale tracks.
	VectorKeys []VectorKeyframe

	// RotationKeys are keyframes for quaternion tracks.
	RotationKeys []QuaternionKeyframe
}

// Name returns the track identifier in "<node>.<channel>" form, e.g. "Hips.position".
//
// Returns:
//   - string: the track name
func (t AnimationTrack) Name() string {
	return t.Target + "." + string(t.Channel)
}

// Stepped reports whether the track holds each key instead of blending.
//
// Returns:
//   - bool: true for step interpolation
func (t AnimationTrack) Stepped() bool {
	return t.Interpolation == InterpolationStep
}

// KeyCount returns the number of keyframes on the track's active channel.
//
// Returns:
//   - int: the keyframe count
func (t AnimationTrack) KeyCount() int {
	if t.Channel == ChannelQuaternion {
		return len(t.RotationKeys)
	}
	return len(t.VectorKeys)
}

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the 3D vector value at this keyframe.
	Value [3]float32
}

// QuaternionKeyframe stores a quaternion rotation at a specific time.
type QuaternionKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the quaternion value at this keyframe (x, y, z, w).
	Value [4]float32
}

// --- Import Types ---

// ImportedMesh represents a single mesh primitive within an imported asset.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the mesh vertices.
	Vertices []GPUVertex

	// Indices are the triangle indices.
	Indices []uint32

	// BoundingMin is the minimum corner of the axis-aligned bounding box.
	BoundingMin [3]float32

	// BoundingMax is the maximum corner of the axis-aligned bounding box.
	BoundingMax [3]float32
}
