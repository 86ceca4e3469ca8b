package customer

import "io"

// Renderer describes the template renderer contract used for dashboard fragments.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}
