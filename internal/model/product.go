package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Colunas canônicas, na ordem usada pela tabela e pelo CSV.
const (
	FieldBrandName  = "brand_name"
	FieldBrand      = "brand"
	FieldProduct    = "product"
	FieldPriceValue = "price_value"
	FieldPriceText  = "price_text"
	FieldConditions = "conditions"
)

var Columns = []string{
	FieldBrandName,
	FieldBrand,
	FieldProduct,
	FieldPriceValue,
	FieldPriceText,
	FieldConditions,
}

// CandidateRecord é um objeto JSON cru devolvido pelo modelo, antes da normalização.
// As chaves podem estar em português, inglês ou em qualquer variação que o modelo inventar.
type CandidateRecord map[string]any

// ProductRecord é a linha normalizada consumida pela UI e pelo exportador CSV.
// Campos nulos são representados por ponteiros nil.
type ProductRecord struct {
	BrandName  string
	Brand      *string
	Product    *string
	PriceValue *decimal.Decimal
	PriceText  *string
	Conditions *string
	IsValid    bool
}

// Equal compara os seis campos canônicos. Preços são comparados por valor (3.5 == 3.50).
func (p ProductRecord) Equal(o ProductRecord) bool {
	if p.BrandName != o.BrandName {
		return false
	}
	if !equalStr(p.Brand, o.Brand) || !equalStr(p.Product, o.Product) ||
		!equalStr(p.PriceText, o.PriceText) || !equalStr(p.Conditions, o.Conditions) {
		return false
	}
	if (p.PriceValue == nil) != (o.PriceValue == nil) {
		return false
	}
	return p.PriceValue == nil || p.PriceValue.Equal(*o.PriceValue)
}

func equalStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type productJSON struct {
	BrandName  string       `json:"brand_name"`
	Brand      *string      `json:"brand"`
	Product    *string      `json:"product"`
	PriceValue *json.Number `json:"price_value"`
	PriceText  *string      `json:"price_text"`
	Conditions *string      `json:"conditions"`
	IsValid    bool         `json:"is_valid"`
}

// MarshalJSON sempre emite todas as chaves; o preço sai como número, não como string.
func (p ProductRecord) MarshalJSON() ([]byte, error) {
	out := productJSON{
		BrandName:  p.BrandName,
		Brand:      p.Brand,
		Product:    p.Product,
		PriceText:  p.PriceText,
		Conditions: p.Conditions,
		IsValid:    p.IsValid,
	}
	if p.PriceValue != nil {
		n := json.Number(p.PriceValue.StringFixed(2))
		out.PriceValue = &n
	}
	return json.Marshal(out)
}

// Outcome distingue "resposta ilegível" de "nenhum produto na imagem".
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeParseFailure Outcome = "parse_failure"
	OutcomeNoProducts   Outcome = "no_products"
)

// Message devolve o texto exibido ao usuário para cada resultado.
func (o Outcome) Message() string {
	switch o {
	case OutcomeParseFailure:
		return "Não foi possível ler a resposta do modelo."
	case OutcomeNoProducts:
		return "Nenhum produto encontrado nesta imagem."
	default:
		return ""
	}
}

// Result é a saída do pipeline de normalização.
type Result struct {
	Outcome Outcome         `json:"outcome"`
	Records []ProductRecord `json:"records"`
	// Skipped conta elementos descartados (não-objetos ou objetos vazios).
	Skipped int `json:"skipped"`
}
