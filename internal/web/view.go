package web

import (
	"html/template"

	"github.com/shopspring/decimal"

	"ofertas/internal/extraction"
	"ofertas/internal/offer"
)

type pageData struct {
	Models   []string
	Selected string
	Samples  int
	Error    string
	Results  []extraction.FileResult
	Products int
}

var templateFuncs = template.FuncMap{
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"brl": func(d *decimal.Decimal) string {
		if d == nil {
			return ""
		}
		return offer.FormatBRL(*d)
	},
}
