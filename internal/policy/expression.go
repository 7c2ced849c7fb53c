package policy

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// exprCache компилирует CEL-выражения условий один раз и переиспользует программы.
type exprCache struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

func newExprCache() (*exprCache, error) {
	env, err := cel.NewEnv(
		cel.Variable("subtotal", cel.IntType),
		cel.Variable("item_count", cel.IntType),
		cel.Variable("distinct_items", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	return &exprCache{env: env, programs: make(map[string]cel.Program)}, nil
}

// compile возвращает закэшированную программу или компилирует новую.
func (c *exprCache) compile(expr string) (cel.Program, error) {
	c.mu.RLock()
	prg, ok := c.programs[expr]
	c.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := c.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, iss.Err())
	}
	prg, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}

	c.mu.Lock()
	c.programs[expr] = prg
	c.mu.Unlock()
	return prg, nil
}

func (c *exprCache) eval(expr string, facts cartFacts) (bool, error) {
	prg, err := c.compile(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{
		"subtotal":       facts.subtotal,
		"item_count":     int64(facts.itemCount),
		"distinct_items": int64(facts.distinctItems),
	})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %s, want bool", expr, out.Type().TypeName())
	}
	return result, nil
}

// ValidateExpression компилирует выражение, не вычисляя его.
func (e *Engine) ValidateExpression(expr string) error {
	_, err := e.exprs.compile(expr)
	return err
}
