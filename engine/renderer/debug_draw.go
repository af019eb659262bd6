package renderer

import (
	"github.com/Carmen-Shannon/stride-go/engine/skeleton"
	"github.com/lucasb-eyer/go-colorful"
)

// DrawPosture draws a skeleton pose as bone lines from each parented joint to
// its parent, in world space.
//
// Parameters:
//   - r: the renderer receiving the lines
//   - skel: the skeleton describing the joint hierarchy
//   - models: model-space joint matrices, one per joint
//   - world: the character's column-major world matrix
//   - color: the bone color
func DrawPosture(r Renderer, skel *skeleton.Skeleton, models [][16]float32, world [16]float32, color colorful.Color) {
	if skel == nil || len(models) < skel.NumJoints() {
		return
	}
	for i := range skel.Joints {
		parent := skel.Joints[i].ParentIndex
		if parent < 0 {
			continue
		}
		from := transformPoint(world, matrixTranslation(models[parent]))
		to := transformPoint(world, matrixTranslation(models[i]))
		r.DrawLine(from, to, color)
	}
}

// DrawMotionTrail draws a polyline through the given points with a color
// gradient from the oldest to the newest point, blended in Luv space for
// perceptual smoothness.
//
// Parameters:
//   - r: the renderer receiving the lines
//   - points: trail points in world space, oldest first
//   - oldest: the color at the start of the trail
//   - newest: the color at the end of the trail
func DrawMotionTrail(r Renderer, points [][3]float32, oldest, newest colorful.Color) {
	if len(points) < 2 {
		return
	}
	n := float64(len(points) - 1)
	for i := 0; i+1 < len(points); i++ {
		c := oldest.BlendLuv(newest, float64(i)/n)
		r.DrawLine(points[i], points[i+1], c)
	}
}

// DrawGrid draws a square ground grid on the y=0 plane centered at the origin.
//
// Parameters:
//   - r: the renderer receiving the lines
//   - halfExtent: half the grid's side length
//   - step: spacing between grid lines
//   - color: the grid color
func DrawGrid(r Renderer, halfExtent, step float32, color colorful.Color) {
	if step <= 0 || halfExtent <= 0 {
		return
	}
	for x := -halfExtent; x <= halfExtent; x += step {
		r.DrawLine([3]float32{x, 0, -halfExtent}, [3]float32{x, 0, halfExtent}, color)
	}
	for z := -halfExtent; z <= halfExtent; z += step {
		r.DrawLine([3]float32{-halfExtent, 0, z}, [3]float32{halfExtent, 0, z}, color)
	}
}

// DrawBox draws the twelve edges of an axis-aligned box.
//
// Parameters:
//   - r: the renderer receiving the lines
//   - center: the box center in world space
//   - halfSize: the box half extents
//   - color: the edge color
func DrawBox(r Renderer, center, halfSize [3]float32, color colorful.Color) {
	var corners [8][3]float32
	for i := 0; i < 8; i++ {
		sx, sy, sz := float32(1), float32(1), float32(1)
		if i&1 == 0 {
			sx = -1
		}
		if i&2 == 0 {
			sy = -1
		}
		if i&4 == 0 {
			sz = -1
		}
		corners[i] = [3]float32{
			center[0] + sx*halfSize[0],
			center[1] + sy*halfSize[1],
			center[2] + sz*halfSize[2],
		}
	}
	edges := [12][2]int{
		{0, 1}, {2, 3}, {4, 5}, {6, 7},
		{0, 2}, {1, 3}, {4, 6}, {5, 7},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	for _, e := range edges {
		r.DrawLine(corners[e[0]], corners[e[1]], color)
	}
}

// matrixTranslation extracts the translation column of a column-major matrix.
func matrixTranslation(m [16]float32) [3]float32 {
	return [3]float32{m[12], m[13], m[14]}
}

// transformPoint applies a column-major affine matrix to a point.
func transformPoint(m [16]float32, p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}
