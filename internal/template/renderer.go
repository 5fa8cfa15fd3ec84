package template

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"taskrun/internal/domain/task"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Renderer substitutes `{{ expression }}` placeholders in script text with
// values evaluated against a variable context. Text without placeholders is
// returned unchanged.
type Renderer struct {
	strict bool
}

// New returns a strict renderer: an unresolvable reference fails the render.
func New() *Renderer {
	return &Renderer{strict: true}
}

// NewPermissive returns a renderer that substitutes an empty string for
// unresolvable references instead of failing.
func NewPermissive() *Renderer {
	return &Renderer{strict: false}
}

// Render resolves every placeholder in text against vars. Under the strict
// policy it returns a *task.RenderError identifying the first reference that
// cannot be resolved.
func (r *Renderer) Render(text string, vars map[string]any) (string, error) {
	if !strings.Contains(text, openDelim) {
		return text, nil
	}

	env := vars
	if env == nil {
		env = map[string]any{}
	}

	var out strings.Builder
	remaining := text
	for {
		start := strings.Index(remaining, openDelim)
		if start < 0 {
			out.WriteString(remaining)
			return out.String(), nil
		}

		end := strings.Index(remaining[start:], closeDelim)
		if end < 0 {
			// Unterminated delimiter is treated as literal text.
			out.WriteString(remaining)
			return out.String(), nil
		}
		end += start

		out.WriteString(remaining[:start])
		expression := strings.TrimSpace(remaining[start+len(openDelim) : end])
		remaining = remaining[end+len(closeDelim):]

		value, err := r.eval(expression, env)
		if err != nil {
			return "", err
		}
		out.WriteString(value)
	}
}

func (r *Renderer) eval(expression string, env map[string]any) (string, error) {
	opts := []expr.Option{expr.Env(env)}
	if !r.strict {
		opts = append(opts, expr.AllowUndefinedVariables())
	}

	program, err := expr.Compile(expression, opts...)
	if err != nil {
		return "", &task.RenderError{Ref: expression, Err: err}
	}

	value, err := expr.Run(program, env)
	if err != nil {
		if !r.strict {
			return "", nil
		}
		return "", &task.RenderError{Ref: expression, Err: err}
	}

	if value == nil {
		if r.strict {
			return "", &task.RenderError{Ref: expression, Err: fmt.Errorf("expression evaluated to nil")}
		}
		return "", nil
	}

	return fmt.Sprint(value), nil
}
