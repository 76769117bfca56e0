// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package mesh implements the tetrahedral mesh engine: pooled element storage,
// the directed face/edge handle algebra, bistellar flips, incremental Delaunay
// construction, constrained segment/facet recovery, and Delaunay-refinement
// quality meshing. The package operates purely on in-memory structures; all
// file I/O lives outside.
package mesh

// VertexKind labels the role of a point in the mesh. Input vertices and the
// classified Acute/NonAcute/Facet vertices are fixed for the whole run; Free*
// vertices are created by the mesher and may be relocated or deleted.
type VertexKind int8

const (
	InputVertex VertexKind = iota
	AcuteVertex
	NonAcuteVertex
	FacetVertex
	FreeSegVertex
	FreeSubVertex
	FreeVolVertex
	DuplicateVertex
	DeadVertex
)

// SegKind labels a subsegment. A segment is sharp if two facets meet at it
// with a dihedral angle below 90 degrees.
type SegKind int8

const (
	InputSeg SegKind = iota
	SharpSeg
	NonSharpSeg
)

// EncSubKind buckets an encroached subface by whether it touches an acute
// vertex and/or a sharp segment. The order is the splitting priority,
// highest first.
type EncSubKind int8

const (
	AcuteVSharpS EncSubKind = iota
	AcuteV
	SharpS
	FSVSharpS
	NAVSharpS
	NAVNSharpS
)

// FlipType classifies a tetrahedron face for the flip engine.
type FlipType int8

const (
	T23 FlipType = iota
	T32
	T22
	T44
	Unflippable
	ForbiddenFace
	ForbiddenEdge
	NonConvex

	// Split rewrites, recorded in the same log as flips so one reverse
	// replay undoes an insertion completely.
	S14
	S26
	SEdge
	SHull
)

// InterResult is the outcome of an exact triangle-triangle intersection test.
type InterResult int8

const (
	Disjoint InterResult = iota
	ShareVertex
	ShareEdge
	ShareFace
	Intersect
)

// LocateResult is the outcome of a point-location walk.
type LocateResult int8

const (
	InTetrahedron LocateResult = iota
	OnFace
	OnEdge
	OnVertex
	Outside
)

// InsertResult is the outcome of a site insertion.
type InsertResult int8

const (
	SuccessInTet InsertResult = iota
	SuccessOnFace
	SuccessOnEdge
	DuplicatePoint
	OutsidePoint
)

// DirectionResult is the outcome of a directed walk from a vertex toward a
// target vertex.
type DirectionResult int8

const (
	AcrossEdge DirectionResult = iota
	AcrossFace
	LeftCollinear
	RightCollinear
	TopCollinear
	BelowHull
)

// Edge ring directions for adjustEdgeRing.
const (
	ccw = 0
	cw  = 1
)
