package markdown

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
)

const (
	pdfFont     = "Arial"
	pdfFontSize = 9.0
	pdfLine     = 5.0
)

// RenderPDF lays markdown out on A4 pages. Headings, paragraphs, lists, links,
// emphasis and code are supported; anything else is rendered as its text.
func RenderPDF(markdown, title string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("LiteMark", true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfFontSize)

	source := []byte(markdown)
	r := &pdfRenderer{
		pdf:       pdf,
		source:    source,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if err := ast.Walk(parse(source), r.walk); err != nil {
		return nil, fmt.Errorf("failed to lay out PDF: %w", err)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	translate func(string) string
	bold      bool
	italic    bool
	link      string
	listLevel int
}

func (r *pdfRenderer) write(s string) {
	if r.link != "" {
		r.pdf.WriteLinkString(pdfLine, r.translate(s), r.link)
		return
	}
	r.pdf.Write(pdfLine, r.translate(s))
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	if r.link != "" {
		style += "U"
	}
	r.pdf.SetFont(pdfFont, style, pdfFontSize)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			r.pdf.Ln(4)
			size := 10.0
			switch node.Level {
			case 1:
				size = 14
			case 2:
				size = 12
			case 3:
				size = 11
			}
			r.pdf.SetFont(pdfFont, "B", size)
		} else {
			r.pdf.Ln(7)
			r.updateFont()
		}

	case *ast.Paragraph:
		if !entering {
			r.pdf.Ln(pdfLine + 1)
		}

	case *ast.Text:
		if entering {
			r.write(string(node.Segment.Value(r.source)))
			if node.SoftLineBreak() {
				r.write(" ")
			}
			if node.HardLineBreak() {
				r.pdf.Ln(pdfLine)
			}
		}

	case *ast.String:
		if entering {
			r.write(string(node.Value))
		}

	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()

	case *ast.Link:
		if entering {
			r.link = string(node.Destination)
			r.pdf.SetTextColor(30, 80, 180)
		} else {
			r.link = ""
			r.pdf.SetTextColor(0, 0, 0)
		}
		r.updateFont()

	case *ast.AutoLink:
		if entering {
			url := string(node.URL(r.source))
			r.pdf.SetTextColor(30, 80, 180)
			r.pdf.WriteLinkString(pdfLine, r.translate(string(node.Label(r.source))), url)
			r.pdf.SetTextColor(0, 0, 0)
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeSpan:
		if entering {
			r.pdf.SetFont("Courier", "", pdfFontSize)
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					r.write(string(t.Segment.Value(r.source)))
				}
			}
			r.updateFont()
		}
		return ast.WalkSkipChildren, nil

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			r.pdf.SetFont("Courier", "", pdfFontSize)
			r.pdf.SetFillColor(245, 245, 245)
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				r.pdf.MultiCell(0, pdfLine, r.translate(string(segment.Value(r.source))), "", "L", true)
			}
			r.pdf.SetFillColor(255, 255, 255)
			r.updateFont()
			r.pdf.Ln(2)
		}
		return ast.WalkSkipChildren, nil

	case *ast.List:
		if entering {
			r.listLevel++
		} else {
			r.listLevel--
			if r.listLevel == 0 {
				r.pdf.Ln(2)
			}
		}

	case *ast.ListItem:
		if entering {
			r.pdf.Ln(pdfLine)
			r.pdf.SetX(10 + float64(r.listLevel)*5)
			r.pdf.Write(pdfLine, "- ")
		}

	case *ast.ThematicBreak:
		if entering {
			r.pdf.Ln(2)
			r.pdf.Line(10, r.pdf.GetY(), 200, r.pdf.GetY())
			r.pdf.Ln(2)
		}
	}
	return ast.WalkContinue, nil
}
