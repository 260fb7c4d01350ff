package offer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ofertas/internal/model"
)

const fieldPrice = "price"

// fieldAliases lista, em ordem de prioridade, as chaves aceitas para cada campo.
// Para aceitar um novo apelido do modelo basta acrescentá-lo aqui.
var fieldAliases = []struct {
	target  string
	aliases []string
}{
	{model.FieldBrandName, []string{"marca_nome", "brand_name", "marca+nome", "nome_completo"}},
	{model.FieldBrand, []string{"marca", "brand"}},
	{model.FieldProduct, []string{"produto", "product", "name", "nome"}},
	{model.FieldConditions, []string{"condicoes", "condições", "conditions"}},
	{fieldPrice, []string{"preco_brl_texto", "preco_brl", "preco", "preço", "price", "price_text", "preco_texto", "price_value"}},
}

func aliasesFor(target string) []string {
	for _, f := range fieldAliases {
		if f.target == target {
			return f.aliases
		}
	}
	return nil
}

// looksLikeProduct indica se o objeto já tem alguma chave de produto conhecida.
func looksLikeProduct(obj map[string]any) bool {
	c := model.CandidateRecord(obj)
	for _, f := range fieldAliases {
		for _, a := range f.aliases {
			if _, ok := lookup(c, a); ok {
				return true
			}
		}
	}
	return false
}

// Normalize mapeia um candidato para o esquema fixo de ProductRecord.
// Campos ausentes viram nil; nenhum candidato é descartado aqui.
func Normalize(c model.CandidateRecord) model.ProductRecord {
	var rec model.ProductRecord

	rec.Brand = firstString(c, aliasesFor(model.FieldBrand))
	rec.Product = firstString(c, aliasesFor(model.FieldProduct))

	if bn := firstString(c, aliasesFor(model.FieldBrandName)); bn != nil {
		rec.BrandName = *bn
	} else if rec.Brand != nil && rec.Product != nil {
		rec.BrandName = *rec.Brand + " " + *rec.Product
	}

	if v, ok := first(c, aliasesFor(model.FieldConditions)); ok {
		rec.Conditions = nullable(flattenConditions(v))
	}

	rec.PriceValue, rec.PriceText = resolvePrice(c)
	rec.IsValid = rec.Brand != nil || rec.Product != nil
	return rec
}

// resolvePrice usa o primeiro apelido preenchido. Se ele for texto sem número legível,
// um apelido numérico posterior ainda pode fornecer o valor; o texto é mantido.
func resolvePrice(c model.CandidateRecord) (*decimal.Decimal, *string) {
	aliases := aliasesFor(fieldPrice)
	for i, a := range aliases {
		v, ok := lookup(c, a)
		if !ok || blank(v) {
			continue
		}
		value, text := InterpretPrice(v)
		if value == nil && text == nil {
			continue
		}
		if text != nil {
			text = nullable(*text)
		}
		if value == nil && text != nil {
			for _, later := range aliases[i+1:] {
				if lv, ok := lookup(c, later); ok && isNumber(lv) {
					value, _ = InterpretPrice(lv)
					break
				}
			}
		}
		return value, text
	}
	return nil, nil
}

// lookup procura a chave exata e depois sem diferenciar maiúsculas.
func lookup(c model.CandidateRecord, key string) (any, bool) {
	if v, ok := c[key]; ok {
		return v, true
	}
	for k, v := range c {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return v, true
		}
	}
	return nil, false
}

func first(c model.CandidateRecord, aliases []string) (any, bool) {
	for _, a := range aliases {
		if v, ok := lookup(c, a); ok && !blank(v) {
			return v, true
		}
	}
	return nil, false
}

func firstString(c model.CandidateRecord, aliases []string) *string {
	for _, a := range aliases {
		v, ok := lookup(c, a)
		if !ok {
			continue
		}
		if s := nullable(stringify(v)); s != nil {
			return s
		}
	}
	return nil
}

func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case json.Number, float64, float32, int, int64:
		return true
	}
	return false
}

// nullable aplica trim e converte string vazia em nil.
func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64, float32, int, int64:
		return fmt.Sprint(t)
	default:
		return compactJSON(t)
	}
}

// flattenConditions achata a forma pedida no prompt ([{"tipo": "desconto", "valor": "20%"}])
// em "desconto: 20%; data: até 30/06". Texto simples passa direto.
func flattenConditions(v any) string {
	switch t := v.(type) {
	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			if s := strings.TrimSpace(conditionItem(el)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return conditionItem(t)
	}
}

func conditionItem(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return stringify(v)
	}
	c := model.CandidateRecord(obj)
	kind := firstString(c, []string{"tipo", "type"})
	value := firstString(c, []string{"valor", "value", "descricao", "description"})
	switch {
	case value == nil && kind == nil:
		if len(obj) == 0 {
			return ""
		}
		return compactJSON(obj)
	case value == nil:
		return *kind
	case kind == nil:
		return "outro: " + *value
	default:
		return *kind + ": " + *value
	}
}
