// Package render composes card and roster PDFs from registry data.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/nexconsult/cnpj-docs/internal/receitaws"
	"golang.org/x/sync/errgroup"
)

const (
	missing   = "N/A"
	noPartner = "Nenhum sócio encontrado."
	footer    = "Documento gerado via API pública da Receita Federal"

	marginMM  = 20.0
	labelCol  = 40.0
	rowHeight = 6.0
)

type field struct {
	label   string
	value   string
	heading bool
}

// Renderer builds A4 documents. Now is the clock used in footers.
type Renderer struct {
	Now func() time.Time
}

// New returns a renderer using the wall clock.
func New() *Renderer {
	return &Renderer{Now: time.Now}
}

// Documents renders the card and the roster concurrently.
func (r *Renderer) Documents(c *receitaws.Company) (card, roster []byte, err error) {
	var g errgroup.Group
	g.Go(func() error {
		var err error
		card, err = r.Card(c)
		return err
	})
	g.Go(func() error {
		var err error
		roster, err = r.Roster(c)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return card, roster, nil
}

// Card renders the registration card.
func (r *Renderer) Card(c *receitaws.Company) ([]byte, error) {
	pdf, tr := r.newDocument("Cartão CNPJ")
	r.title(pdf, tr, "CARTÃO CNPJ")

	fields := []field{
		{"CNPJ:", c.CNPJ, false},
		{"Razão Social:", c.Nome, false},
		{"Nome Fantasia:", c.Fantasia, false},
		{"Data Abertura:", c.Abertura, false},
		{"Situação:", c.Situacao, false},
		{"Tipo:", c.Tipo, false},
		{"Porte:", c.Porte, false},
		{"Natureza Jurídica:", c.NaturezaJuridica, false},
		{"Capital Social:", "R$ " + orMissing(c.CapitalSocial), false},
		{"Endereço:", "", true},
		{"Logradouro:", c.Logradouro, false},
		{"Número:", c.Numero, false},
		{"Complemento:", c.Complemento, false},
		{"Bairro:", c.Bairro, false},
		{"Município:", c.Municipio, false},
		{"UF:", c.UF, false},
		{"CEP:", c.CEP, false},
		{"Contato:", "", true},
		{"Telefone:", c.Telefone, false},
		{"Email:", c.Email, false},
	}

	for _, f := range fields {
		if f.heading {
			pdf.Ln(rowHeight / 2)
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, rowHeight, tr(f.label), "", 1, "L", false, 0, "")
			continue
		}
		row(pdf, tr, f.label, orMissing(f.value))
	}

	return output(pdf)
}

// Roster renders the partners and administrators roster.
func (r *Renderer) Roster(c *receitaws.Company) ([]byte, error) {
	pdf, tr := r.newDocument("Quadro de Sócios e Administradores")
	r.title(pdf, tr, "QUADRO DE SÓCIOS E ADMINISTRADORES (QSA)")

	row(pdf, tr, "CNPJ:", orMissing(c.CNPJ))
	row(pdf, tr, "Razão Social:", orMissing(c.Nome))

	pdf.Ln(rowHeight * 2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, rowHeight+1, tr("Sócios e Administradores:"), "", 1, "L", false, 0, "")
	pdf.Ln(rowHeight / 2)

	if len(c.QSA) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, rowHeight, tr(noPartner), "", 1, "L", false, 0, "")
		return output(pdf)
	}

	for i, p := range c.QSA {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, rowHeight, tr(fmt.Sprintf("%d. %s", i+1, orMissing(p.Nome))), "", "L", false)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetX(marginMM + 5)
		pdf.MultiCell(0, rowHeight-1, tr("Qualificação: "+orMissing(p.Qual)), "", "L", false)
		pdf.Ln(rowHeight / 2)
	}

	return output(pdf)
}

func (r *Renderer) newDocument(title string) (*fpdf.Fpdf, func(string) string) {
	generated := r.Now()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("cnpj-docs", true)
	pdf.SetCreationDate(generated)
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, 30)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-25)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 4, tr(footer), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 4, "Data: "+generated.Format("02/01/2006 15:04:05"), "", 0, "L", false, 0, "")
	})
	pdf.AddPage()
	return pdf, tr
}

func (r *Renderer) title(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(text), "", 1, "L", false, 0, "")
	y := pdf.GetY() + 1
	pdf.Line(marginMM, y, 210-marginMM, y)
	pdf.Ln(rowHeight)
}

func row(pdf *fpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelCol, rowHeight, tr(label), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, rowHeight, tr(value), "", "L", false)
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}
