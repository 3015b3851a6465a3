// Package pdftest builds minimal single-font PDF documents for tests.
// The generated files use uncompressed content streams and the built-in
// Helvetica font so the extractor can parse them without filter support.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Page describes one generated page.
type Page struct {
	// Lines are drawn top-down starting at y=720, 16 points apart.
	Lines []string
	// FontSize applies to every line; zero defaults to 12.
	FontSize float64
	// ContentOps is appended verbatim to the content stream, for color and
	// drawing operators.
	ContentOps string
}

// TextPages builds a document with one text line per page.
func TextPages(lines ...string) []byte {
	pages := make([]Page, len(lines))
	for i, line := range lines {
		pages[i] = Page{Lines: []string{line}}
	}
	return Build(pages)
}

// Build assembles a complete PDF from the given pages.
func Build(pages []Page) []byte {
	type object struct {
		num  int
		body string
	}
	var objects []object
	add := func(body string) int {
		objects = append(objects, object{num: len(objects) + 1, body: body})
		return len(objects)
	}

	fontNum := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	// Reserve the pages object number; kids are appended below.
	pagesNum := add("")

	var kidRefs []string
	for _, page := range pages {
		content := contentStream(page)
		contentNum := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
		pageNum := add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F0 %d 0 R >> >> /Contents %d 0 R >>",
			pagesNum, fontNum, contentNum))
		kidRefs = append(kidRefs, fmt.Sprintf("%d 0 R", pageNum))
	}

	objects[pagesNum-1].body = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kidRefs, " "), len(pages))

	catalogNum := add(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesNum))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects)+1)
	for _, obj := range objects {
		offsets[obj.num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", obj.num, obj.body)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= len(objects); num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, catalogNum, xrefStart)

	return buf.Bytes()
}

func contentStream(page Page) string {
	size := page.FontSize
	if size == 0 {
		size = 12
	}

	var ops strings.Builder
	if page.ContentOps != "" {
		ops.WriteString(page.ContentOps)
		ops.WriteString("\n")
	}
	y := 720.0
	for _, line := range page.Lines {
		fmt.Fprintf(&ops, "BT /F0 %g Tf 72 %g Td (%s) Tj ET\n", size, y, escape(line))
		y -= 16
	}
	return strings.TrimRight(ops.String(), "\n")
}

func escape(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return replacer.Replace(s)
}
