package animator

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// keySpan locates the keyframes around t. It returns the index of the first key after t and the
// interpolation factor between that key and the previous one.
func keySpan(count int, timeAt func(int) float32, t float32) (int, float32) {
	i := sort.Search(count, func(i int) bool { return timeAt(i) > t })
	if i == 0 || i == count {
		return i, 0
	}
	t0, t1 := timeAt(i-1), timeAt(i)
	if t1 <= t0 {
		return i, 1
	}
	return i, (t - t0) / (t1 - t0)
}

// sampleVector linearly interpolates a vector track at time t, or holds the previous key when
// step is set. Times before the first key or after the last key hold the boundary value.
func sampleVector(keys []model.VectorKeyframe, t float32, step bool) ([3]float32, bool) {
	n := len(keys)
	if n == 0 {
		return [3]float32{}, false
	}
	i, f := keySpan(n, func(i int) float32 { return keys[i].Time }, t)
	switch i {
	case 0:
		return keys[0].Value, true
	case n:
		return keys[n-1].Value, true
	}
	if step {
		return keys[i-1].Value, true
	}

	v0 := mgl32.Vec3(keys[i-1].Value)
	v1 := mgl32.Vec3(keys[i].Value)
	return [3]float32(v0.Mul(1 - f).Add(v1.Mul(f))), true
}

// sampleQuaternion spherically interpolates a rotation track at time t, or holds the previous
// key when step is set.
func sampleQuaternion(keys []model.QuaternionKeyframe, t float32, step bool) ([4]float32, bool) {
	n := len(keys)
	if n == 0 {
		return [4]float32{}, false
	}
	i, f := keySpan(n, func(i int) float32 { return keys[i].Time }, t)
	switch i {
	case 0:
		return keys[0].Value, true
	case n:
		return keys[n-1].Value, true
	}
	if step {
		return keys[i-1].Value, true
	}

	q := mgl32.QuatSlerp(toQuat(keys[i-1].Value), toQuat(keys[i].Value), f).Normalize()
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}, true
}

// toQuat converts an (x, y, z, w) array into an mgl32 quaternion.
func toQuat(v [4]float32) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}
