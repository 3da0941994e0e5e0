package output

import (
	"fmt"
	"io"

	"github.com/dshills/gavel/internal/review"
)

// MarkdownWriter outputs the same markdown body that gets posted as a PR
// comment, so local runs can preview it.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	_, err := fmt.Fprintln(w, review.RenderMarkdown(report, ""))
	return err
}
