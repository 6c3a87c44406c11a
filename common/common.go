// Package common holds small helpers shared across the engine packages. They are plain
// functions over plain values, not interface-wrapped types.
package common

// IdentityRotation is the identity quaternion in (x, y, z, w) order.
var IdentityRotation = [4]float32{0, 0, 0, 1}

// UnitScale is the neutral scale vector.
var UnitScale = [3]float32{1, 1, 1}
