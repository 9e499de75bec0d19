package alert

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"pharmstock/internal/core/apperror"
)

// conditionVars are the variables available to a custom alert condition.
// quantity is the scoped batch quantity (0 for item-scoped rules), stock the
// item aggregate, days_until_expiry the scoped expiry horizon.
func conditionEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("quantity", cel.IntType),
		cel.Variable("stock", cel.IntType),
		cel.Variable("days_until_expiry", cel.IntType),
		cel.Variable("threshold", cel.IntType),
	)
}

// CompileCondition validates and compiles a custom alert condition.
// Called at alert creation so invalid expressions are rejected up front,
// and again at evaluation time.
func CompileCondition(expr string) (cel.Program, error) {
	env, err := conditionEnv()
	if err != nil {
		return nil, fmt.Errorf("build condition env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, apperror.NewValidation("invalid alert condition").
			WithDetail("condition", expr).
			WithDetail("error", issues.Err().Error())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperror.NewValidation("alert condition must evaluate to a boolean").
			WithDetail("condition", expr)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build condition program: %w", err)
	}
	return prg, nil
}

// evalCondition runs a compiled condition against observed values.
func evalCondition(prg cel.Program, quantity, stock, daysUntilExpiry, threshold int64) (bool, error) {
	out, _, err := prg.Eval(map[string]any{
		"quantity":          quantity,
		"stock":             stock,
		"days_until_expiry": daysUntilExpiry,
		"threshold":         threshold,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate condition: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T, want bool", out.Value())
	}
	return b, nil
}
