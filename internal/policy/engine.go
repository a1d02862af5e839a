// Package policy decides whether a user may use the relay.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA access policy engine.
type Engine struct {
	query   rego.PreparedEvalQuery
	allowed []string
}

// NewEngine creates a new access policy engine. allowedUsers is the
// configured allow list; an empty list admits everyone.
func NewEngine(ctx context.Context, policyContent string, allowedUsers []string) (*Engine, error) {
	// A nil slice would reach rego as null, where count() is undefined and
	// the default deny wins. Normalize so "no list" means an empty list.
	if allowedUsers == nil {
		allowedUsers = []string{}
	}

	r := rego.New(
		rego.Query("data.access_policy.decision"),
		rego.Module("access_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query, allowed: allowedUsers}, nil
}

// Allowed checks whether the user may perform the operation.
func (e *Engine) Allowed(ctx context.Context, userID, operation string) (bool, error) {
	input := map[string]interface{}{
		"user_id":   userID,
		"operation": operation,
		"allowed":   e.allowed,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy is expected to define a default.
		return false, nil
	}

	decision, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return false, fmt.Errorf("unexpected policy return type %T", results[0].Expressions[0].Value)
	}
	return decision == "allow", nil
}

// DefaultPolicy admits everyone when the allow list is empty, otherwise
// only listed users.
const DefaultPolicy = `
package access_policy

default decision = "deny"

decision = "allow" {
	count(input.allowed) == 0
}

decision = "allow" {
	input.allowed[_] == input.user_id
}
`
