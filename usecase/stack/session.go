package stack

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/domain/topology"
)

// session holds the state of one engine run over a stack.
type session struct {
	uc     *UseCase
	stack  *topology.Stack
	states map[string]*model.ResourceState

	mu  sync.Mutex
	seq int

	kubeMu sync.Mutex
	kube   model.KubePort
}

// newSession loads the recorded state of the stack and restores the outputs
// of every declared resource that has a record.
func (u *UseCase) newSession(ctx context.Context, st *topology.Stack) (*session, error) {
	if st == nil || st.Graph == nil {
		return nil, fmt.Errorf("stack is nil")
	}
	if u.State == nil {
		return nil, fmt.Errorf("state repository is not configured")
	}
	list, err := u.State.List(ctx, st.Name)
	if err != nil {
		return nil, fmt.Errorf("list state of %s: %w", st.Name, err)
	}
	s := &session{uc: u, stack: st, states: make(map[string]*model.ResourceState, len(list))}
	for _, rs := range list {
		s.states[rs.URN] = rs
		if rs.Seq > s.seq {
			s.seq = rs.Seq
		}
	}
	for _, n := range st.Graph.Nodes() {
		if rs, ok := s.states[n.URN]; ok {
			n.Resource.Restore(rs.Outputs)
		}
	}
	return s, nil
}

func (s *session) recorded(urn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.states[urn]
	return ok
}

// orphans returns recorded URNs that are no longer declared.
func (s *session) orphans() []*model.ResourceState {
	var out []*model.ResourceState
	for urn, rs := range s.states {
		if !s.stack.Graph.Has(urn) {
			out = append(out, rs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// save records the outputs of an applied resource.
func (s *session) save(ctx context.Context, res model.Resource) error {
	m := res.Metadata()
	outputs := res.Outputs()

	s.mu.Lock()
	rs, ok := s.states[m.URN()]
	if !ok {
		s.seq++
		rs = &model.ResourceState{Stack: s.stack.Name, URN: m.URN(), Kind: m.Kind(), Seq: s.seq}
		s.states[m.URN()] = rs
	}
	rs.ID = outputs["id"]
	rs.Outputs = outputs
	cp := *rs
	s.mu.Unlock()

	if err := s.uc.State.Put(ctx, &cp); err != nil {
		return fmt.Errorf("record state of %s: %w", m.URN(), err)
	}
	return nil
}

// forget removes the record of a destroyed resource.
func (s *session) forget(ctx context.Context, urn string) error {
	s.mu.Lock()
	delete(s.states, urn)
	s.mu.Unlock()
	if err := s.uc.State.Delete(ctx, s.stack.Name, urn); err != nil && !errors.Is(err, model.ErrResourceStateNotFound) {
		return fmt.Errorf("forget state of %s: %w", urn, err)
	}
	return nil
}

// kubePort connects to the stack's cluster on first use.
func (s *session) kubePort(ctx context.Context) (model.KubePort, error) {
	s.kubeMu.Lock()
	defer s.kubeMu.Unlock()
	if s.kube != nil {
		return s.kube, nil
	}
	if s.uc.KubeFactory == nil {
		return nil, fmt.Errorf("kube port factory is not configured")
	}
	kc, err := s.uc.Provider.ClusterKubeconfig(ctx, s.stack.Cluster)
	if err != nil {
		return nil, fmt.Errorf("get kubeconfig: %w", err)
	}
	p, err := s.uc.KubeFactory(ctx, kc)
	if err != nil {
		return nil, fmt.Errorf("connect to cluster: %w", err)
	}
	s.kube = p
	return p, nil
}
