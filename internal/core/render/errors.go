package render

import "fmt"

// RenderError is an item that could not be materialized. The item is
// rendered as a Placeholder and the rest of the document is unaffected.
type RenderError struct {
	Section int
	Item    int
	Title   string
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render sections[%d].items[%d] %q: %v", e.Section, e.Item, e.Title, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
