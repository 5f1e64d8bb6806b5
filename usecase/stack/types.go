// Package stack materializes a declared topology: it applies the resource
// graph through provider and Kubernetes ports and records what it applied.
package stack

import (
	"github.com/sethvargo/go-password/password"
	"github.com/yaegashi/botpressops/domain"
	"github.com/yaegashi/botpressops/domain/model"
)

// Provider is the set of cloud-side ports a driver implements.
type Provider interface {
	model.ClusterPort
	model.DatabasePort
	model.TrustGrantPort
	model.DNSPort
}

// UseCase wires the state repository and ports needed by stack use cases.
type UseCase struct {
	State       domain.ResourceStateRepository
	Provider    Provider
	KubeFactory model.KubePortFactory

	// NewPassword returns database administrator passwords.
	NewPassword func() (string, error)
}

// Actions reported per resource.
const (
	ActionCreate    = "create"
	ActionUpdate    = "update"
	ActionUnchanged = "unchanged"
	ActionPending   = "pending"
	ActionSkipped   = "skipped"
	ActionFailed    = "failed"
	ActionDelete    = "delete"
	ActionOrphaned  = "orphaned"
)

// ResourceResult describes what happened to one resource.
type ResourceResult struct {
	URN     string     `json:"urn"`
	Kind    model.Kind `json:"kind"`
	Action  string     `json:"action"`
	Message string     `json:"message,omitempty"`
}

const (
	defaultParallel  = 4
	defaultAdminUser = "bpadmin"
)

func (u *UseCase) newPassword() (string, error) {
	if u.NewPassword != nil {
		return u.NewPassword()
	}
	// Upper, lower and digits: three character classes, no URL-reserved symbols.
	return password.Generate(24, 6, 0, false, true)
}
