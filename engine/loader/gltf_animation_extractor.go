package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor defines the interface for extracting animation data from a parsed glTF document.
// Each glTF channel becomes one AnimationTrack addressed by its target node's name, so the
// resulting clip is independent of the document it came from and can drive any hierarchy that
// shares the joint names.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//
	// Returns:
	//   - *model.AnimationClip: the extracted animation clip
	//   - error: error if extraction fails
	ExtractAnimation(animIndex int) (*model.AnimationClip, error)

	// ExtractAllAnimations extracts every animation from the document.
	//
	// Returns:
	//   - []*model.AnimationClip: all extracted animation clips
	//   - error: error if extraction fails
	ExtractAllAnimations() ([]*model.AnimationClip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int) (*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}

	anim := &doc.Animations[animIndex]
	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}

	clip := &model.AnimationClip{Name: name}

	for i := range anim.Channels {
		ch := &anim.Channels[i]

		// Channels without a node target (e.g. driven by extensions) have nothing to bind to.
		if ch.Target.Node == nil {
			continue
		}

		var channel model.Channel
		var accessorType string
		switch ch.Target.Path {
		case gltfAnimPathTranslation:
			channel, accessorType = model.ChannelPosition, gltfAccessorTypeVec3
		case gltfAnimPathRotation:
			channel, accessorType = model.ChannelQuaternion, gltfAccessorTypeVec4
		case gltfAnimPathScale:
			channel, accessorType = model.ChannelScale, gltfAccessorTypeVec3
		default:
			// Morph target weights are not supported
			continue
		}

		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		times, err := e.parser.ReadFloats(sampler.Input, gltfAccessorTypeScalar)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", name, i, err)
		}
		values, err := e.parser.ReadFloats(sampler.Output, accessorType)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read %s values: %w", name, i, ch.Target.Path, err)
		}

		components := gltfAccessorTypeComponentCount(accessorType)
		values = gltfSplineValues(values, components, sampler.Interpolation)

		track := model.AnimationTrack{
			Target:        gltfNodeName(doc, *ch.Target.Node),
			Channel:       channel,
			Interpolation: gltfInterpolation(sampler.Interpolation),
		}
		keyCount := min(len(times), len(values)/components)
		if channel == model.ChannelQuaternion {
			track.RotationKeys = make([]model.QuaternionKeyframe, keyCount)
			for j := range track.RotationKeys {
				track.RotationKeys[j].Time = times[j]
				copy(track.RotationKeys[j].Value[:], values[j*4:j*4+4])
			}
		} else {
			track.VectorKeys = make([]model.VectorKeyframe, keyCount)
			for j := range track.VectorKeys {
				track.VectorKeys[j].Time = times[j]
				copy(track.VectorKeys[j].Value[:], values[j*3:j*3+3])
			}
		}

		if keyCount > 0 {
			clip.Duration = max(clip.Duration, times[keyCount-1])
		}
		clip.Tracks = append(clip.Tracks, track)
	}

	return clip, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations() ([]*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	clips := make([]*model.AnimationClip, len(doc.Animations))
	for i := range doc.Animations {
		clip, err := e.ExtractAnimation(i)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips[i] = clip
	}

	return clips, nil
}

// gltfInterpolation maps a sampler's interpolation name; an absent name means LINEAR.
func gltfInterpolation(name string) model.Interpolation {
	switch name {
	case gltfAnimInterpolationStep:
		return model.InterpolationStep
	case gltfAnimInterpolationCubicSpline:
		return model.InterpolationCubicSpline
	case gltfAnimInterpolationLinear:
		return model.InterpolationLinear
	default:
		// unknown names fall back to the glTF default
		return model.InterpolationLinear
	}
}

// gltfSplineValues strips the in and out tangents from CUBICSPLINE output, which stores
// (in-tangent, value, out-tangent) triples per keyframe. Other interpolations pass through.
func gltfSplineValues(values []float32, components int, interpolation string) []float32 {
	if interpolation != gltfAnimInterpolationCubicSpline {
		return values
	}
	keys := len(values) / (3 * components)
	out := make([]float32, keys*components)
	for k := 0; k < keys; k++ {
		copy(out[k*components:(k+1)*components], values[(3*k+1)*components:(3*k+2)*components])
	}
	return out
}
