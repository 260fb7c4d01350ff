package offer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"ofertas/internal/model"
)

type csvRow struct {
	BrandName  string `csv:"brand_name"`
	Brand      string `csv:"brand"`
	Product    string `csv:"product"`
	PriceValue string `csv:"price_value"`
	PriceText  string `csv:"price_text"`
	Conditions string `csv:"conditions"`
}

type fileCSVRow struct {
	File       string `csv:"arquivo"`
	BrandName  string `csv:"brand_name"`
	Brand      string `csv:"brand"`
	Product    string `csv:"product"`
	PriceValue string `csv:"price_value"`
	PriceText  string `csv:"price_text"`
	Conditions string `csv:"conditions"`
}

// FileRecords agrupa os registros extraídos de um arquivo de imagem.
type FileRecords struct {
	File    string
	Records []model.ProductRecord
}

// WriteCSV grava uma linha de cabeçalho com as seis colunas canônicas e uma linha por registro.
func WriteCSV(w io.Writer, records []model.ProductRecord) error {
	if len(records) == 0 {
		return writeHeader(w, model.Columns)
	}
	rows := make([]csvRow, 0, len(records))
	for _, r := range records {
		c := toCells(r)
		rows = append(rows, csvRow{
			BrandName:  c[0],
			Brand:      c[1],
			Product:    c[2],
			PriceValue: c[3],
			PriceText:  c[4],
			Conditions: c[5],
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteFileCSV é a exportação de várias imagens: acrescenta a coluna "arquivo" à esquerda.
func WriteFileCSV(w io.Writer, files []FileRecords) error {
	var rows []fileCSVRow
	for _, f := range files {
		for _, r := range f.Records {
			c := toCells(r)
			rows = append(rows, fileCSVRow{
				File:       sanitizeCell(f.File),
				BrandName:  c[0],
				Brand:      c[1],
				Product:    c[2],
				PriceValue: c[3],
				PriceText:  c[4],
				Conditions: c[5],
			})
		}
	}
	if len(rows) == 0 {
		return writeHeader(w, append([]string{"arquivo"}, model.Columns...))
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeHeader(w io.Writer, header []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func toCells(r model.ProductRecord) [6]string {
	var price string
	if r.PriceValue != nil {
		price = r.PriceValue.StringFixed(2)
	}
	return [6]string{
		sanitizeCell(r.BrandName),
		sanitizeCell(deref(r.Brand)),
		sanitizeCell(deref(r.Product)),
		price,
		sanitizeCell(deref(r.PriceText)),
		sanitizeCell(deref(r.Conditions)),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sanitizeCell evita que planilhas interpretem o texto como fórmula.
// Sinal seguido de número ("-20% na 2ª unidade") é dado e passa intacto.
func sanitizeCell(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return s
	}
	switch t[0] {
	case '=', '@':
		return "'" + s
	case '+', '-':
		rest := strings.TrimLeft(t[1:], " ")
		if rest == "" || rest[0] < '0' || rest[0] > '9' {
			return "'" + s
		}
	}
	return s
}
