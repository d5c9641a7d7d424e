// Package policy evaluates user-defined rules against a validated dashboard
// configuration. Rules are boolean expr-lang expressions over the document
// form of the configuration, so field names match the files users edit:
//
//	rules:
//	  - name: fast-refresh
//	    expr: refresh_interval <= 300
//	    message: dashboards must refresh at least every 5 minutes
//	  - name: tested-before-deploy
//	    expr: findIndex(order, # == "Test") < findIndex(order, # == "Deploy")
//
// Besides the document fields, rules see "order", the stage execution order.
package policy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/devopsdash/dashconfig/internal/config"
	"github.com/devopsdash/dashconfig/internal/logger"
	"github.com/devopsdash/dashconfig/internal/pathutil"
	"github.com/devopsdash/dashconfig/pkg/dashboard"
)

// CodePolicyFailed is the violation code of a rule that evaluated to false.
const CodePolicyFailed = "policy.failed"

// orderKey is the environment variable holding the stage execution order.
const orderKey = "order"

var (
	// ErrInvalidRule is matched by every *RuleError.
	ErrInvalidRule = errors.New("invalid policy rule")
	// ErrEvaluation is returned when a rule fails to run against a configuration.
	ErrEvaluation = errors.New("policy evaluation failed")
)

// Rule is a named boolean expression.
type Rule struct {
	// Name identifies the rule in violations (required, unique)
	Name string `yaml:"name"`
	// Expr is the expr-lang expression; it must evaluate to a boolean
	Expr string `yaml:"expr"`
	// Message is reported when the rule fails (optional)
	Message string `yaml:"message"`
}

// RuleError reports a rule that cannot be compiled.
type RuleError struct {
	// Index is the position of the rule in the policy file
	Index int
	// Name is the rule name, empty if the rule has none
	Name string
	// Reason is a human-readable explanation
	Reason string
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("rules[%d]: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("rules[%d] (%s): %s", e.Index, e.Name, e.Reason)
}

// Is matches ErrInvalidRule.
func (e *RuleError) Is(target error) bool {
	return target == ErrInvalidRule
}

type compiledRule struct {
	Rule
	program *vm.Program
}

// Policy is a compiled set of rules. It is immutable and safe for concurrent use.
type Policy struct {
	rules []compiledRule
}

type policyFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads and compiles a policy file.
func LoadFile(path string) (*Policy, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	p, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a YAML (or JSON) policy document and compiles its rules.
// Unknown keys are rejected.
func Parse(content []byte) (*Policy, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var file policyFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return Compile(file.Rules)
}

// Compile type-checks every rule against the shape of a dashboard document and
// returns all problems found.
func Compile(rules []Rule) (*Policy, error) {
	env, err := environment(dashboard.Default(), dashboard.Default().Pipeline.StageNames())
	if err != nil {
		return nil, err
	}

	p := &Policy{rules: make([]compiledRule, 0, len(rules))}
	seen := make(map[string]bool, len(rules))
	var errs []error
	for i, r := range rules {
		r.Name = strings.TrimSpace(r.Name)
		switch {
		case r.Name == "":
			errs = append(errs, &RuleError{Index: i, Reason: "rule name must not be empty"})
			continue
		case seen[r.Name]:
			errs = append(errs, &RuleError{Index: i, Name: r.Name, Reason: "duplicate rule name"})
			continue
		case strings.TrimSpace(r.Expr) == "":
			errs = append(errs, &RuleError{Index: i, Name: r.Name, Reason: "expression must not be empty"})
			continue
		}
		seen[r.Name] = true

		program, err := expr.Compile(r.Expr, expr.Env(env), expr.AsBool())
		if err != nil {
			errs = append(errs, &RuleError{Index: i, Name: r.Name, Reason: err.Error()})
			continue
		}
		p.rules = append(p.rules, compiledRule{Rule: r, program: program})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return p, nil
}

// Rules returns the rules of the policy in file order.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	for i, r := range p.rules {
		out[i] = r.Rule
	}
	return out
}

// Evaluate runs every rule against doc and returns one violation per failed
// rule. Rules never short-circuit each other.
func (p *Policy) Evaluate(doc *config.Document) ([]config.Violation, error) {
	if doc == nil || doc.Config == nil {
		return nil, fmt.Errorf("%w: no configuration", ErrEvaluation)
	}
	env, err := environment(doc.Config, doc.Order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}

	violations := []config.Violation{}
	for _, r := range p.rules {
		out, err := expr.Run(r.program, env)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %q: %v", ErrEvaluation, r.Name, err)
		}
		if passed, _ := out.(bool); passed {
			continue
		}
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("policy rule %q failed: %s", r.Name, r.Expr)
		}
		violations = append(violations, config.Violation{
			Code:    CodePolicyFailed,
			Path:    pathutil.Field("policy", r.Name),
			Message: msg,
		})
	}

	logger.Debug("policy evaluated",
		slog.Int("rules", len(p.rules)),
		slog.Int("failed", len(violations)))
	return violations, nil
}

// Check is Evaluate returning a *config.ValidationError when any rule fails.
func (p *Policy) Check(doc *config.Document) error {
	violations, err := p.Evaluate(doc)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		return &config.ValidationError{Violations: violations}
	}
	return nil
}

// environment builds the expression environment for cfg: its document tree
// with numbers as int or float64, plus the stage order.
func environment(cfg *dashboard.Config, order []string) (map[string]interface{}, error) {
	doc, err := config.ToDocument(cfg)
	if err != nil {
		return nil, err
	}
	env := numbers(doc).(map[string]interface{})
	if order == nil {
		order = []string{}
	}
	env[orderKey] = order
	return env, nil
}

// numbers replaces json.Number leaves: integers become int, others float64.
func numbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = numbers(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = numbers(val)
		}
		return t
	case json.Number:
		if i, err := strconv.Atoi(t.String()); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(t.String(), 64)
		return f
	default:
		return v
	}
}
