package export

import "fmt"

// Export renders the entry to the requested format.
func Export(entry Entry, format Format) (*Result, error) {
	html, err := RenderEntryHTML(TemplateData{
		Title:       entry.Title,
		Slug:        entry.Slug,
		ContentHTML: entry.Content,
		CreatedAt:   entry.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("render entry html: %w", err)
	}

	switch format {
	case FormatPDF:
		return exportPDF(html, entry.Title)
	case FormatDOCX:
		return exportDOCX(html, entry.Title)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
