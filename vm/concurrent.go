package vm

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Program bundles the three arguments Execute needs, so a host can
// describe several independent top-level runs at once.
type Program struct {
	Function *Function
	Locals   Locals
	Globals  *Table
}

// RunIndependent executes each program concurrently and returns their
// results in the same order, realizing spec.md §5's "the host process may
// run multiple independent VM executions in parallel provided they do not
// share mutable tables." Nothing in the interpreter loop itself becomes
// concurrent — this only fans out whole top-level Execute calls, each
// presumed (by the caller) to touch disjoint tables.
//
// golang.org/x/sync/errgroup is probeum's own dependency for exactly this
// fan-out-and-collect-the-first-error shape.
func RunIndependent(ctx context.Context, cfg *Config, programs ...Program) ([]*Table, error) {
	results := make([]*Table, len(programs))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range programs {
		i, p := i, p
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			result, err := Execute(p.Function, p.Locals, p.Globals, 0, cfg)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
