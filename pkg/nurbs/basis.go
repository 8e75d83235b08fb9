// Package nurbs evaluates NURBS curves and surfaces on the CPU.
//
// The routines follow the layout the evaluation shaders use: control points
// are (x, y, z, weight) with cartesian xyz, surface control points are
// row-major (v*NumU + u), and all scratch storage is sized by MaxDegree so
// the same code transliterates directly to GLSL.
package nurbs

// MaxDegree is the highest supported degree.
const MaxDegree = 8

// FindSpan returns the index i of the knot span with knots[i] <= u <
// knots[i+1]. The scan is linear from index degree; knot vectors are short.
// Parameters at or past the end of the domain resolve to the last non-empty
// span.
func FindSpan(u float32, degree int, knots []float32) int {
	last := len(knots) - degree - 2
	if last < degree {
		return degree
	}
	if u >= knots[last+1] {
		for last > degree && knots[last] == knots[last+1] {
			last--
		}
		return last
	}
	span := degree
	for span < last && u >= knots[span+1] {
		span++
	}
	return span
}

// BasisFuns computes the degree+1 non-vanishing basis functions at u for
// the given span into n (NURBS Book A2.2).
func BasisFuns(span int, u float32, degree int, knots []float32, n []float32) {
	var left, right [MaxDegree + 1]float32
	n[0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		var saved float32
		for r := 0; r < j; r++ {
			var temp float32
			if den := right[r+1] + left[j-r]; den != 0 {
				temp = n[r] / den
			}
			n[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		n[j] = saved
	}
}

// BasisFunsDerivs computes the basis functions and their first derivatives
// at u in one pass (NURBS Book A2.3 truncated to the first derivative).
func BasisFunsDerivs(span int, u float32, degree int, knots []float32, n, d []float32) {
	var ndu [MaxDegree + 1][MaxDegree + 1]float32
	var left, right [MaxDegree + 1]float32

	ndu[0][0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		var saved float32
		for r := 0; r < j; r++ {
			// Lower triangle: knot differences.
			ndu[j][r] = right[r+1] + left[j-r]
			var temp float32
			if ndu[j][r] != 0 {
				temp = ndu[r][j-1] / ndu[j][r]
			}
			// Upper triangle: basis functions.
			ndu[r][j] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		ndu[j][j] = saved
	}

	p := degree
	for r := 0; r <= p; r++ {
		n[r] = ndu[r][p]
	}
	if p == 0 {
		d[0] = 0
		return
	}
	for r := 0; r <= p; r++ {
		var v float32
		if r >= 1 && ndu[p][r-1] != 0 {
			v += ndu[r-1][p-1] / ndu[p][r-1]
		}
		if r <= p-1 && ndu[p][r] != 0 {
			v -= ndu[r][p-1] / ndu[p][r]
		}
		d[r] = float32(p) * v
	}
}
