// Package optimizer rewrites instruction trees with local peephole rules.
//
// A pass applies every rule once over the whole tree, recursing into loop
// bodies. Optimize repeats passes until one leaves the tree unchanged or
// the pass cap is reached. Failing to converge is not an error: the best
// tree so far is returned and a warning is logged.
package optimizer

import (
	"fmt"
	"log/slog"

	"codeberg.org/saruga/bfc/internal/ast"
)

// DefaultMaxPasses is the pass cap used when Options.MaxPasses is unset.
const DefaultMaxPasses = 20

// Options controls the fixpoint driver.
type Options struct {
	// MaxPasses caps the number of passes. Zero or negative means
	// DefaultMaxPasses.
	MaxPasses int

	// Logger receives progress and the non-convergence warning.
	// Nil means slog.Default().
	Logger *slog.Logger
}

// Result is the outcome of Optimize.
type Result struct {
	Program   []ast.Node
	Passes    int  // Passes executed, never more than the cap
	Converged bool // False if the cap stopped the search
	MaxPasses int  // The cap that was in effect
}

// Warning returns the non-convergence message, or "" if a fixed point was
// reached.
func (r Result) Warning() string {
	if r.Converged {
		return ""
	}
	return fmt.Sprintf("no fixed point after %d optimization passes; using the last result", r.MaxPasses)
}

// Optimize rewrites nodes toward a fixed point. The input is not modified.
func Optimize(nodes []ast.Node, opts Options) Result {
	maxPasses := opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result := Result{Program: nodes, MaxPasses: maxPasses}
	logger.Debug("Beginning optimization", "nodes", ast.Count(nodes), "maxPasses", maxPasses)

	for result.Passes < maxPasses {
		next := Pass(result.Program)
		result.Passes++
		logger.Debug("Optimization pass", "pass", result.Passes, "nodes", ast.Count(next))

		if ast.Equal(next, result.Program) {
			result.Converged = true
			logger.Debug("Optimization complete", "passes", result.Passes)
			return result
		}
		result.Program = next
	}

	logger.Warn("Optimization did not reach a fixed point", "passes", result.Passes)
	return result
}
