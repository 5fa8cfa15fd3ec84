package ports

// Renderer resolves variable placeholders embedded in script text against a
// caller-supplied variable context. Strict versus permissive handling of
// unresolved references is a renderer-level policy.
type Renderer interface {
	Render(text string, vars map[string]any) (string, error)
}
