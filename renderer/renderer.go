// Package renderer turns allocation results into markdown reports.
//
// Reports are text/template assemblies made of partials. Both are embedded
// .md files: a partial is named after its assembly followed by an underscore.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed *.md
var templates embed.FS

var funcs = template.FuncMap{
	"join": strings.Join,
}

// RenderAllocation renders the purchase recommendation.
func RenderAllocation(a *Allocation) string {
	partials := map[string]string{
		"allocation_title":  "allocation_title.md",
		"allocation_lines":  "allocation_lines.md",
		"allocation_totals": "allocation_totals.md",
	}
	return renderTemplate("allocation", "allocation.md", partials, a)
}

// RenderPrices renders the price snapshot of a catalog.
func RenderPrices(p *Prices) string {
	partials := map[string]string{
		"prices_table": "prices_table.md",
	}
	return renderTemplate("prices", "prices.md", partials, p)
}

// RenderCatalog renders the catalog instruments and target weights.
func RenderCatalog(c *Catalog) string {
	partials := map[string]string{
		"catalog_table": "catalog_table.md",
	}
	return renderTemplate("catalog", "catalog.md", partials, c)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
