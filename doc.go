// Package lotplan recommends how to spend a cash amount on whole lots of a set
// of instruments so that a portfolio tracks its target weights.
//
// The core functionalities include:
//   - Catalog: an ordered, validated list of instruments with their lot size
//     and target weight. Weights must sum to 1.
//   - Price snapshot: the share prices captured once, concurrently, from a
//     PriceSource before a calculation. Missing prices are simply unavailable.
//   - Allocation: a pure, deterministic computation that splits the cash in
//     proportion to each instrument deficit against its target, buying whole
//     lots, and then spends what rounding left over on the most underweight
//     instruments first.
//
// The allocation is a heuristic, it does not search for the optimal integer
// solution. It never spends more than the available cash.
//
// This package serves as the foundational logic for the `lotplan` command-line
// tool.
package lotplan
