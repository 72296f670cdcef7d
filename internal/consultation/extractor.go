package consultation

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nexconsult/cnpj-docs/internal/utils"
)

const (
	// NamePlaceholder names outputs when no company name can be read.
	NamePlaceholder = "Empresa_CNPJ"
	// MaxNameLength bounds the name used as a folder and file name.
	MaxNameLength = 50
)

var companyLabel = regexp.MustCompile(`(?i)^(?:NOME EMPRESARIAL|RAZ[ÃA]O SOCIAL)\s*:?\s*(.*)$`)

// Extractor recovers the company name from a rendered result page.
type Extractor struct {
	placeholder string
	maxLen      int
}

// NewExtractor returns an extractor using NamePlaceholder and MaxNameLength.
func NewExtractor() *Extractor {
	return &Extractor{placeholder: NamePlaceholder, maxLen: MaxNameLength}
}

// ExtractName finds the first value following a company-name label and
// sanitizes it. It never fails and never returns "".
func (e *Extractor) ExtractName(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return e.placeholder
	}

	lines := textLines(doc.Selection)
	for i, line := range lines {
		m := companyLabel.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" && i+1 < len(lines) {
			value = lines[i+1]
		}
		if name := utils.SanitizeName(value, "", e.maxLen); name != "" {
			return name
		}
	}
	return e.placeholder
}

// textLines flattens the visible text nodes under sel, one trimmed,
// whitespace-collapsed line per node.
func textLines(sel *goquery.Selection) []string {
	var lines []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				if t := strings.Join(strings.Fields(c.Text()), " "); t != "" {
					lines = append(lines, t)
				}
			case "#comment", "script", "style", "noscript", "head", "title":
			default:
				walk(c)
			}
		})
	}
	walk(sel)
	return lines
}
