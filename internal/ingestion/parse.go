package ingestion

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"code.sajari.com/docconv"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/jonathan/candidate-intel/internal/types"
)

// Formats recognized from the declared extension
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatDOC  = "doc"
	FormatHTML = "html"
	FormatText = "text"
)

// ExtractFunc turns document bytes into text and a page count (0 when unknown)
type ExtractFunc func(data []byte) (text string, pages int, err error)

type handler struct {
	name    string
	extract ExtractFunc
}

// Parser converts document bytes into text using per-format handler chains.
// Handlers are tried in order; later handlers are fallbacks.
type Parser struct {
	handlers map[string][]handler
}

// NewParser returns a parser with the default handler chains
func NewParser() *Parser {
	p := &Parser{handlers: make(map[string][]handler)}
	p.Register(FormatPDF, "docconv-pdf", extractPDF)
	p.Register(FormatPDF, "pdf-relaxed", extractPDFRelaxed)
	p.Register(FormatDOCX, "docconv-docx", extractDOCX)
	p.Register(FormatDOC, "docconv-doc", extractDOC)
	p.Register(FormatHTML, "goquery-html", extractHTML)
	p.Register(FormatText, "text", extractPlainText)
	return p
}

// NewEmptyParser returns a parser with no handlers, for custom chains
func NewEmptyParser() *Parser {
	return &Parser{handlers: make(map[string][]handler)}
}

// Register appends a handler to the chain for format
func (p *Parser) Register(format, name string, fn ExtractFunc) {
	p.handlers[format] = append(p.handlers[format], handler{name: name, extract: fn})
}

// Parse converts a document using the default handlers
func Parse(data []byte, fileName string) (*types.ParsedDocument, error) {
	return NewParser().Parse(data, fileName)
}

// Parse converts data to text based on the declared file extension.
// It fails with UnreadableDocumentError when every handler fails or the text is blank.
func (p *Parser) Parse(data []byte, fileName string) (*types.ParsedDocument, error) {
	format := FormatFor(fileName)
	chain := p.handlers[format]
	if len(chain) == 0 {
		return nil, &UnreadableDocumentError{FileName: fileName, Format: format, Message: "no handler for format"}
	}
	if len(data) == 0 {
		return nil, &UnreadableDocumentError{FileName: fileName, Format: format, Message: "empty file"}
	}

	var lastErr error
	for i, h := range chain {
		text, pages, err := h.extract(data)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", h.name, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			lastErr = fmt.Errorf("%s: no text extracted", h.name)
			continue
		}
		return &types.ParsedDocument{
			RawText:      text,
			LayoutBlocks: SplitLayoutBlocks(text),
			Metadata:     newMetadata(format, h.name, data, text, pages, i > 0),
		}, nil
	}

	return nil, &UnreadableDocumentError{
		FileName: fileName,
		Format:   format,
		Message:  "no text could be extracted",
		Cause:    lastErr,
	}
}

// FormatFor maps a file name to a format. Unknown and missing extensions are read as text.
func FormatFor(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".doc":
		return FormatDOC
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatText
	}
}

func extractPDF(data []byte) (string, int, error) {
	text, meta, err := docconv.ConvertPDF(bytes.NewReader(data))
	if err != nil {
		return "", 0, err
	}
	pages, _ := strconv.Atoi(strings.TrimSpace(meta["Pages"]))
	return CleanText(text), pages, nil
}

// extractPDFRelaxed reads the PDF content streams directly, for files the
// primary converter rejects or renders as blank.
func extractPDFRelaxed(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", 0, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", 0, err
	}
	return relaxWhitespace(buf.String()), reader.NumPage(), nil
}

func extractDOCX(data []byte) (string, int, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", 0, err
	}
	return CleanText(text), 0, nil
}

func extractDOC(data []byte) (string, int, error) {
	text, _, err := docconv.ConvertDoc(bytes.NewReader(data))
	if err != nil {
		return "", 0, err
	}
	return CleanText(text), 0, nil
}

func extractPlainText(data []byte) (string, int, error) {
	return decodeText(data), 0, nil
}

// extractHTML keeps visible text, turning block elements into line breaks so
// layout blocks survive.
func extractHTML(data []byte) (string, int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li, tr, div, dt, dd").AppendHtml("\n")
	doc.Find("p, h1, h2, h3, h4, h5, h6, section, ul, ol, table, header, article").AppendHtml("\n\n")

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	return CleanText(body.Text()), 0, nil
}

var (
	yearRunRegex = regexp.MustCompile(`\d{4}`)
)

// SplitLayoutBlocks splits text on blank lines and tags each block:
// an '@' marks contact, a 4-digit run marks experience, and
// "university" or "degree" marks education.
func SplitLayoutBlocks(text string) []types.LayoutBlock {
	parts := strings.Split(text, "\n\n")
	blocks := make([]types.LayoutBlock, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		blocks = append(blocks, types.LayoutBlock{Kind: classifyBlock(part), Text: part})
	}
	return blocks
}

func classifyBlock(block string) types.BlockKind {
	lower := strings.ToLower(block)
	switch {
	case strings.Contains(block, "@"):
		return types.BlockContact
	case yearRunRegex.MatchString(block):
		return types.BlockExperience
	case strings.Contains(lower, "university") || strings.Contains(lower, "degree"):
		return types.BlockEducation
	default:
		return types.BlockText
	}
}
