// Package fractal generates the decorative Sierpinski triangle attached to
// mined blocks. The attachment is inert metadata: nothing in it feeds the
// proof-of-work path, and it is only persisted alongside the block that
// carries it.
package fractal

type Point struct {
	X, Y float64
}

// A Triangle is the unit triangle subdivided to a fixed depth. Vertices holds
// the corners of every leaf triangle in deterministic depth-first order.
type Triangle struct {
	Depth    uint
	Vertices []Point
}

// Corners of the unit triangle; 0.866 approximates sqrt(3)/2.
var base = [3]Point{{0, 0}, {1, 0}, {0.5, 0.866}}

// Generate builds the triangle for the given depth. Depth 0 is the plain base
// triangle; each further level replaces every triangle with its three corner
// triangles, leaving 3·3^depth vertices.
func Generate(depth uint) *Triangle {
	return &Triangle{
		Depth:    depth,
		Vertices: subdivide(nil, depth, base[0], base[1], base[2]),
	}
}

func subdivide(vertices []Point, depth uint, a, b, c Point) []Point {
	if depth == 0 {
		return append(vertices, a, b, c)
	}

	ab := midpoint(a, b)
	bc := midpoint(b, c)
	ca := midpoint(c, a)

	vertices = subdivide(vertices, depth-1, a, ab, ca)
	vertices = subdivide(vertices, depth-1, ab, b, bc)
	vertices = subdivide(vertices, depth-1, ca, bc, c)
	return vertices
}

func midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
