// Package matcher provides a simple "rule" language that may be used
// inside nextpan plugin directives. The matcher library is based on
// github.com/Knetic/govaluate. Expressions may reference every placeholder
// known to the replacer as a variable:
//
//	if event == 'ASSOCIATE_INDIC' && state == 'granted'
package matcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/core/replacer"
)

type (
	// Matcher matches indications and their responses
	Matcher struct {
		// expr holds the pre-compiled expression
		expr *govaluate.EvaluableExpression
	}

	// ExprFunc can be used expose functions to matcher expressions
	ExprFunc func(args ...interface{}) (interface{}, error)

	// params resolves expression variables using a replacer
	params struct {
		r replacer.Replacer
	}
)

// Get implements govaluate.Parameters
func (p params) Get(name string) (interface{}, error) {
	return p.r.Get(name), nil
}

// SetupMatcher parses the current dispenser block and returns a
// matcher for all if and if_op lines
func SetupMatcher(c *caddy.Controller, fns ...map[string]ExprFunc) (*Matcher, error) {
	exprStr, err := ParseConditions(c)
	if err != nil {
		return nil, err
	}

	return New(exprStr, fns...)
}

// SetupMatcherRemainingArgs creates a matcher from the remaining arguments
// of the current line
func SetupMatcherRemainingArgs(c *caddy.Controller, fns ...map[string]ExprFunc) (*Matcher, error) {
	return New(strings.Join(c.RemainingArgs(), " "), fns...)
}

// New compiles expr. An empty expression matches everything
func New(expr string, fns ...map[string]ExprFunc) (*Matcher, error) {
	if expr == "" {
		return &Matcher{}, nil
	}

	functions := make(map[string]govaluate.ExpressionFunction)

	for _, m := range fns {
		for name, fn := range m {
			functions[name] = govaluate.ExpressionFunction(fn)
		}
	}

	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, functions)
	if err != nil {
		return nil, err
	}

	return &Matcher{
		expr: e,
	}, nil
}

// Empty returns true if the matcher has no conditions
func (m *Matcher) Empty() bool {
	return m.expr == nil
}

// Match evaluates the expression stored in the matcher against the given
// indication and response. The replacer stored in ctx is used to resolve
// variables, if any
func (m *Matcher) Match(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) (bool, error) {
	if m.expr == nil {
		return true, nil
	}

	result, err := m.expr.Eval(params{r: replacer.NewReplacer(ctx, req, resp)})
	if err != nil {
		return false, err
	}

	if b, ok := result.(bool); ok {
		return b, nil
	}

	return false, fmt.Errorf("expression did not evaluate to a boolean. instead, got: %v", result)
}
