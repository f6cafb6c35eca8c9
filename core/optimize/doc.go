// Package optimize contains the battery dispatch strategies and the layer that
// compares them.
//
// Two strategies are provided:
//
//   - HeuristicStrategy, labelled "MILP", a greedy one-step lookahead over spot
//     spreads and grid-service prices.
//   - StochasticStrategy, labelled "SDP", a backward induction over a SoC grid
//     followed by a forward simulation.
//
// Strategies are stateless and safe to call from several goroutines.
package optimize
