// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package tetra

import (
	"log/slog"

	"github.com/2dChan/tetra/mesh"
)

const (
	defaultEps      = 1e-8
	defaultMinRatio = 2.0
)

// Behavior collects the switches controlling a tetrahedralization run.
type Behavior struct {
	// PLC treats the input as a piecewise linear complex: the facets are
	// recovered as mesh faces and the exterior is carved away.
	PLC bool
	// Refine re-meshes a previously generated mesh.
	Refine bool
	// Quality inserts points until every tetrahedron satisfies MinRatio.
	Quality bool
	// MinRatio bounds the squared circumradius to shortest edge ratio.
	MinRatio float64

	VarVolume   bool
	FixedVolume bool
	MaxVolume   float64

	RemoveSliver bool
	MaxDihedral  float64

	RegionAttrib         bool
	Epsilon              float64
	NoMerge              bool
	DetectIntersections  bool
	CheckClosure         bool
	Order                int
	NoBisect             bool
	Verbose              bool
	SteinerFactor        int

	Logger *slog.Logger
}

type BehaviorOption func(*Behavior)

// WithPLC enables piecewise linear complex input.
func WithPLC() BehaviorOption {
	return func(b *Behavior) {
		b.PLC = true
	}
}

// WithRefine reconstructs the connectivity of a previously generated mesh
// from its element list and refines it instead of meshing from scratch.
// The input must carry the elements of the earlier run; its boundary
// triangles and edges are restored as constrained faces.
func WithRefine() BehaviorOption {
	return func(b *Behavior) {
		b.Refine = true
	}
}

// WithNoBisect keeps the boundary of the input intact during quality
// meshing: no subsegment or subface is ever split. Tetrahedra that could
// only be repaired by a boundary split are reported as unconverged.
func WithNoBisect() BehaviorOption {
	return func(b *Behavior) {
		b.NoBisect = true
	}
}

// WithQuality enables quality meshing with the given squared radius-edge
// bound; 0 keeps the default.
func WithQuality(minRatio float64) BehaviorOption {
	if minRatio < 0 {
		panic("WithQuality: minRatio must be non-negative")
	}

	return func(b *Behavior) {
		b.Quality = true
		if minRatio > 0 {
			b.MinRatio = minRatio
		}
	}
}

// WithMaxVolume constrains every tetrahedron to the given volume.
func WithMaxVolume(v float64) BehaviorOption {
	if v <= 0 {
		panic("WithMaxVolume: volume must be positive")
	}

	return func(b *Behavior) {
		b.FixedVolume = true
		b.MaxVolume = v
	}
}

// WithRegionVolumes honors the per-region volume constraints of the input.
func WithRegionVolumes() BehaviorOption {
	return func(b *Behavior) {
		b.VarVolume = true
	}
}

// WithRegionAttribs assigns each tetrahedron the attribute of its region.
func WithRegionAttribs() BehaviorOption {
	return func(b *Behavior) {
		b.RegionAttrib = true
	}
}

// WithSliverRemoval enables the sliver repair pass; maxDihedral is in
// degrees, 0 keeps the default of 175.
func WithSliverRemoval(maxDihedral float64) BehaviorOption {
	if maxDihedral < 0 || maxDihedral > 180 {
		panic("WithSliverRemoval: maxDihedral must be within [0, 180]")
	}

	return func(b *Behavior) {
		b.RemoveSliver = true
		b.MaxDihedral = maxDihedral
	}
}

// WithEps sets the relative tolerance used to snap nearly coincident and
// nearly incident input.
func WithEps(eps float64) BehaviorOption {
	if eps <= 0 {
		panic("WithEps: eps must be positive")
	}

	return func(b *Behavior) {
		b.Epsilon = eps
	}
}

// WithOrder selects linear (1) or quadratic (2) output elements.
func WithOrder(order int) BehaviorOption {
	if order != 1 && order != 2 {
		panic("WithOrder: order must be 1 or 2")
	}

	return func(b *Behavior) {
		b.Order = order
	}
}

// WithDetectIntersections checks the input facets for improper crossings
// before meshing.
func WithDetectIntersections() BehaviorOption {
	return func(b *Behavior) {
		b.DetectIntersections = true
	}
}

// WithCheckClosure runs the internal consistency audits after meshing.
func WithCheckClosure() BehaviorOption {
	return func(b *Behavior) {
		b.CheckClosure = true
	}
}

// WithVerbose enables per-phase progress logging.
func WithVerbose() BehaviorOption {
	return func(b *Behavior) {
		b.Verbose = true
	}
}

// WithLogger routes logging through the given logger.
func WithLogger(l *slog.Logger) BehaviorOption {
	if l == nil {
		panic("WithLogger: logger must not be nil")
	}

	return func(b *Behavior) {
		b.Logger = l
	}
}

// NewBehavior returns a Behavior with defaults applied, then the given
// options.
func NewBehavior(setters ...BehaviorOption) *Behavior {
	b := &Behavior{
		MinRatio: defaultMinRatio,
		Epsilon:  defaultEps,
		Order:    1,
	}
	for _, set := range setters {
		set(b)
	}
	return b
}

// config maps the Behavior onto the engine's configuration.
func (b *Behavior) config() mesh.Config {
	return mesh.Config{
		PLC:           b.PLC,
		Quality:       b.Quality,
		MinRatio:      b.MinRatio,
		VarVolume:     b.VarVolume,
		FixedVolume:   b.FixedVolume,
		MaxVolume:     b.MaxVolume,
		RemoveSliver:  b.RemoveSliver,
		MaxDihedral:   b.MaxDihedral,
		RegionAttrib:  b.RegionAttrib,
		Epsilon:       b.Epsilon,
		NoMerge:       b.NoMerge,
		DetectInter:   b.DetectIntersections,
		CheckClosure:  b.CheckClosure,
		Order:         b.Order,
		NoBisect:      b.NoBisect,
		Verbose:       b.Verbose,
		SteinerFactor: b.SteinerFactor,
		Logger:        b.Logger,
	}
}
