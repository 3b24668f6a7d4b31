package view

// Panel is the main view. It posts a typed message for every UI call and
// relies on its surface to keep what it has already received.
type Panel struct {
	*Controller
}

// NewPanel creates a Panel and restores its persisted state.
func NewPanel(opts Options) *Panel {
	if opts.Name == "" {
		opts.Name = "panel"
	}
	return &Panel{Controller: newController(opts, false)}
}
