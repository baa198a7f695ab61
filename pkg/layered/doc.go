// Package layered implements the rank-based (Sugiyama-style) graph drawing
// pipeline at the heart of stratum.
//
// # Overview
//
// [Run] executes five phases on one graph:
//
//  1. Cycle breaking: a deterministic depth-first search marks back edges
//     as direction-reversed so the effective graph is acyclic. Rendering
//     direction is untouched.
//  2. Layering: longest-path layer assignment over effective directions;
//     every effective edge strictly increases layer, self-loops exempted.
//  3. Crossing minimization: bounded median/barycenter sweeps reorder each
//     layer, keeping the best ordering seen and never ending worse than
//     the initial order.
//  4. Coordinate assignment: in-layer placement under the node spacing
//     invariant, median straightening within slack, layer bands stacked
//     with scaled spacing, minimal-shift overlap removal, port placement.
//  5. Edge routing: polyline, orthogonal, or spline routes from port to
//     port; parallel-edge bundling; self-loops around the node boundary;
//     edge label placement.
//
// The caller's graph gains and loses nothing: edges that span several
// layers are subdivided into dummy nodes held in a private arena of
// integer-addressed vnodes, which exists only for the duration of one call.
//
// # Scope
//
// The pipeline lays out exactly one flat graph. Compound node recursion,
// connected-component separation, parallelism, and fallbacks live in the
// orchestrating layout package; by the time Run sees a compound node its
// size is already final.
//
// # Determinism
//
// Identical graph construction order, [Config], and seed produce bit-equal
// positions and bend points. All iteration orders derive from node and
// edge insertion order, sorts are stable, and the only randomness is a
// PRNG seeded from Config.Seed used to pick between equally good orderings.
package layered
