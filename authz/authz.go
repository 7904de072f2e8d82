// Package authz decides whether an authenticated principal may perform a
// restricted action. Policies are named lists of requirements; a policy
// passes only when every requirement succeeds.
package authz

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision is the outcome of a single requirement.
type Decision int

const (
	// Abstain neither grants nor fails; the policy treats it as a denial.
	Abstain Decision = iota
	Succeed
)

func (d Decision) String() string {
	if d == Succeed {
		return "succeed"
	}
	return "abstain"
}

// Principal is the authenticated identity of a request.
type Principal struct {
	ID string
}

func (p Principal) Authenticated() bool { return p.ID != "" }

// Request carries what a requirement may inspect: the caller and the route values.
type Request struct {
	Principal   Principal
	RouteValues map[string]string
}

// Requirement is evaluated once per policy check. Implementations must not
// mutate persistent state.
type Requirement interface {
	Handle(ctx context.Context, req Request) Decision
}

// RequirementFunc adapts a function to Requirement.
type RequirementFunc func(ctx context.Context, req Request) Decision

func (f RequirementFunc) Handle(ctx context.Context, req Request) Decision { return f(ctx, req) }

// Authenticated succeeds for any principal with an identifier.
var Authenticated = RequirementFunc(func(_ context.Context, req Request) Decision {
	if req.Principal.Authenticated() {
		return Succeed
	}
	return Abstain
})

var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "activityhub_authz_decisions_total",
	Help: "Authorization policy outcomes.",
}, []string{"policy", "outcome"})

// Policies is a registry of named policies.
type Policies struct {
	mu       sync.RWMutex
	policies map[string][]Requirement
}

func NewPolicies() *Policies {
	return &Policies{policies: make(map[string][]Requirement)}
}

// Add registers reqs under name, appending to any already registered.
func (p *Policies) Add(name string, reqs ...Requirement) *Policies {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policies[name] = append(p.policies[name], reqs...)
	return p
}

// Authorize reports whether req satisfies the named policy. An unknown policy
// or a policy without requirements is an error, never an allow.
func (p *Policies) Authorize(ctx context.Context, name string, req Request) (bool, error) {
	p.mu.RLock()
	reqs := p.policies[name]
	p.mu.RUnlock()
	if len(reqs) == 0 {
		return false, fmt.Errorf("authz: policy %q is not registered", name)
	}

	allowed := true
	for _, r := range reqs {
		if r.Handle(ctx, req) != Succeed {
			allowed = false
			break
		}
	}

	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	decisionsTotal.WithLabelValues(name, outcome).Inc()
	return allowed, nil
}
