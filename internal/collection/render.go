package collection

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/tellsiddh/collections/internal/domain"
)

// displayLayout renders dates like "Mar 14, 2025, 09:26 AM".
const displayLayout = "Jan 2, 2006, 03:04 PM"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("collection").
		Funcs(template.FuncMap{"displayDate": displayDate}).
		ParseFS(templateFS, "templates/*.html"),
)

// FormValues is what the user typed into the add form.
type FormValues struct {
	URL   string
	Title string
	Notes string
}

// Page is everything the collection page shows.
type Page struct {
	Items  []domain.Item
	Form   FormValues
	Notice string
	Error  string
}

// Render turns the collection into markup. Every user supplied field is
// escaped for its context; an empty collection yields the empty state.
func Render(items []domain.Item) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "list", items); err != nil {
		return "", fmt.Errorf("failed to render collection: %w", err)
	}
	// Output of html/template is already escaped.
	return template.HTML(buf.String()), nil
}

// RenderPage writes the full collection page to w.
func RenderPage(w io.Writer, page Page) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "page", page); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func displayDate(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.Format(displayLayout)
}
