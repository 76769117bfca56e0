// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils provides utility functions for generating point sets for
// tetrahedral meshing.

package utils

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
)

// GenerateRandomPoints generates points uniformly distributed in the unit
// cube. The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, seed int64) []r3.Vector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	pts := make([]r3.Vector, cnt)

	for i := 0; i < cnt; i++ {
		pts[i] = r3.Vector{
			X: random.Float64(),
			Y: random.Float64(),
			Z: random.Float64(),
		}
	}

	return pts
}

// GenerateSpherePoints generates points uniformly distributed on the unit
// sphere. The seed parameter ensures reproducibility.
func GenerateSpherePoints(cnt int, seed int64) []r3.Vector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	pts := make([]r3.Vector, cnt)

	for i := 0; i < cnt; i++ {
		z := random.Float64()*2 - 1
		phi := random.Float64() * 2 * math.Pi
		r := math.Sqrt(1 - z*z)
		pts[i] = r3.Vector{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
	}

	return pts
}

// GenerateGridPoints generates the n by n by n lattice of the unit cube.
func GenerateGridPoints(n int) []r3.Vector {
	if n < 2 {
		n = 2
	}
	pts := make([]r3.Vector, 0, n*n*n)
	step := 1 / float64(n-1)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				pts = append(pts, r3.Vector{
					X: float64(i) * step,
					Y: float64(j) * step,
					Z: float64(k) * step,
				})
			}
		}
	}

	return pts
}
