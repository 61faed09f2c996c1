package loginform

import (
	"io/fs"

	"github.com/goliatone/go-loginform/pkg/view"
)

// EmbeddedTemplates exposes the built-in text templates so callers can reuse
// or extend them without importing the view package directly.
func EmbeddedTemplates() fs.FS {
	return view.TemplatesFS()
}
