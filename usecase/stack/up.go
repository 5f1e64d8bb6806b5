package stack

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yaegashi/botpressops/domain/graph"
	"github.com/yaegashi/botpressops/domain/output"
	"github.com/yaegashi/botpressops/domain/topology"
	"github.com/yaegashi/botpressops/internal/logging"
	"golang.org/x/sync/errgroup"
)

// UpInput holds parameters for applying a stack.
type UpInput struct {
	Stack *topology.Stack
	// Parallel bounds the number of resources applied concurrently.
	Parallel int
}

// UpOutput holds the result of applying a stack.
type UpOutput struct {
	Resources []ResourceResult  `json:"resources"`
	Exports   map[string]string `json:"exports"`

	// Pending lists the exports that are still unknown.
	Pending []string `json:"pending,omitempty"`
}

// Up applies the stack level by level. Resources with unresolved inputs are
// reported pending and their dependents skipped; the first apply error stops
// the run after the current level.
func (u *UseCase) Up(ctx context.Context, in *UpInput) (*UpOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	s, err := u.newSession(ctx, in.Stack)
	if err != nil {
		return nil, err
	}
	levels, err := in.Stack.Graph.Levels()
	if err != nil {
		return nil, err
	}
	parallel := in.Parallel
	if parallel <= 0 {
		parallel = defaultParallel
	}

	logger := logging.FromContext(ctx)
	for _, o := range s.orphans() {
		logger.Warn(ctx, "resource recorded in state is no longer declared", "urn", o.URN)
	}

	var (
		mu      sync.Mutex
		results = map[string]ResourceResult{}
		skipped = map[string]string{}
	)
	record := func(r ResourceResult) {
		mu.Lock()
		defer mu.Unlock()
		results[r.URN] = r
	}
	skipDependents := func(n *graph.Node) {
		mu.Lock()
		defer mu.Unlock()
		for _, d := range in.Stack.Graph.Dependents(n.URN) {
			if _, ok := skipped[d.URN]; !ok {
				skipped[d.URN] = n.URN
			}
		}
	}

	var runErr error
	for _, level := range levels {
		eg, egctx := errgroup.WithContext(ctx)
		eg.SetLimit(parallel)
		for _, n := range level {
			mu.Lock()
			cause, skip := skipped[n.URN]
			mu.Unlock()
			if skip {
				logger.Info(ctx, "STACK:"+n.URN+":SKIP", "waitingFor", cause)
				record(ResourceResult{URN: n.URN, Kind: n.Kind(), Action: ActionSkipped, Message: "waiting for " + cause})
				continue
			}
			eg.Go(func() error {
				res := n.Resource
				if pending := output.Pending(res.Inputs()...); len(pending) > 0 {
					deps := pendingDeps(pending)
					logger.Info(egctx, "STACK:"+n.URN+":PENDING", "waitingFor", deps)
					record(ResourceResult{URN: n.URN, Kind: n.Kind(), Action: ActionPending, Message: "waiting for " + strings.Join(deps, ", ")})
					skipDependents(n)
					return nil
				}
				start := time.Now()
				action, err := s.apply(egctx, res)
				if err != nil {
					logger.Warn(egctx, "STACK:"+n.URN+":FAILED", "err", err, "elapsed", time.Since(start).Seconds())
					record(ResourceResult{URN: n.URN, Kind: n.Kind(), Action: ActionFailed, Message: err.Error()})
					return fmt.Errorf("apply %s: %w", n.URN, err)
				}
				logger.Info(egctx, "STACK:"+n.URN+":APPLY", "action", action, "elapsed", time.Since(start).Seconds())
				record(ResourceResult{URN: n.URN, Kind: n.Kind(), Action: action})
				if action == ActionSkipped {
					return nil
				}
				return s.save(egctx, res)
			})
		}
		if runErr = eg.Wait(); runErr != nil {
			break
		}
	}

	out := &UpOutput{}
	for _, n := range in.Stack.Graph.Nodes() {
		if r, ok := results[n.URN]; ok {
			out.Resources = append(out.Resources, r)
		}
	}
	out.Exports, out.Pending = exports(in.Stack)
	return out, runErr
}

// exports returns the resolved exports and the names still pending.
func exports(st *topology.Stack) (map[string]string, []string) {
	values := map[string]string{}
	var pending []string
	for name, o := range st.Exports {
		if v, ok := o.Get(); ok {
			values[name] = v
		} else {
			pending = append(pending, name)
		}
	}
	sort.Strings(pending)
	return values, pending
}

func pendingDeps(in []output.Input) []string {
	seen := map[string]bool{}
	var out []string
	for _, i := range in {
		for _, d := range i.Deps() {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Strings(out)
	return out
}
