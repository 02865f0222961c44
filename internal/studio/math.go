package studio

// Vector3 is a position or extent in model space.
type Vector3 struct {
	X, Y, Z float32
}

// Quaternion rotation, W last.
type Quaternion struct {
	X, Y, Z, W float32
}

// RadianEuler angles.
type RadianEuler struct {
	X, Y, Z float32
}

// Matrix3x4 is a row-major bone transform, rotation columns plus a
// translation column.
type Matrix3x4 [3][4]float32

// IdentityQuat is the no-rotation quaternion.
var IdentityQuat = Quaternion{0, 0, 0, 1}

// DeltaQuat is the 120 degree rotation around (1,1,1) that the runtime
// expects on a root delta bone.
var DeltaQuat = Quaternion{0.5, 0.5, 0.5, 0.5}

// IdentityMatrix3x4 returns the identity pose-to-bone transform.
func IdentityMatrix3x4() Matrix3x4 {
	return Matrix3x4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
}
