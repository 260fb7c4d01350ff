package offer

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Sequência que começa com dígito e segue com dígitos e separadores (ex: 1.234,56).
var numberToken = regexp.MustCompile(`-?\d[\d.,]*`)

// InterpretPrice converte o campo de preço cru (texto ou número) em valor e texto de exibição.
// Nunca falha: quando não há número legível o valor é nil e o texto original é preservado.
// Para entradas textuais o texto volta exatamente como veio; o trim fica com o normalizador.
func InterpretPrice(raw any) (*decimal.Decimal, *string) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return numericPrice(d)
		}
		return textPrice(v.String())
	case float64:
		return numericPrice(decimal.NewFromFloat(v))
	case float32:
		return numericPrice(decimal.NewFromFloat32(v))
	case int:
		return numericPrice(decimal.NewFromInt(int64(v)))
	case int64:
		return numericPrice(decimal.NewFromInt(v))
	case decimal.Decimal:
		return numericPrice(v)
	case string:
		return textPrice(v)
	default:
		// bool, listas e objetos não carregam preço
		return nil, nil
	}
}

func numericPrice(d decimal.Decimal) (*decimal.Decimal, *string) {
	text := FormatBRL(d)
	return &d, &text
}

func textPrice(s string) (*decimal.Decimal, *string) {
	text := s
	if d, ok := ParsePriceText(s); ok {
		return &d, &text
	}
	return nil, &text
}

// ParsePriceText devolve o primeiro número legível do texto.
// Em faixas ("R$ 10,00 a R$ 15,00") vale o primeiro valor.
func ParsePriceText(s string) (decimal.Decimal, bool) {
	for _, loc := range numberToken.FindAllStringIndex(s, -1) {
		tok := s[loc[0]:loc[1]]
		neg := tok[0] == '-'
		tok = strings.TrimPrefix(tok, "-")
		// "10-15" é faixa, não sinal
		if neg && loc[0] > 0 && isWordByte(s[loc[0]-1]) {
			neg = false
		}
		if d, ok := parseNumberToken(tok); ok {
			if neg {
				d = d.Neg()
			}
			return d, true
		}
	}
	return decimal.Decimal{}, false
}

func isWordByte(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// parseNumberToken escolhe a convenção pelo último separador que aparece:
// "1.234,56" é decimal com vírgula, "1,234.56" é decimal com ponto.
// Um único separador seguido de exatamente três dígitos é tratado como milhar ("1.234").
func parseNumberToken(tok string) (decimal.Decimal, bool) {
	tok = strings.TrimRight(tok, ".,")
	if tok == "" {
		return decimal.Decimal{}, false
	}

	lastComma := strings.LastIndex(tok, ",")
	lastDot := strings.LastIndex(tok, ".")

	var num string
	switch {
	case lastComma < 0 && lastDot < 0:
		num = tok
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			num = strings.ReplaceAll(tok, ".", "")
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(tok, ",", "")
		}
	default:
		sep, idx := ",", lastComma
		if lastDot >= 0 {
			sep, idx = ".", lastDot
		}
		if strings.Count(tok, sep) > 1 || len(tok)-idx-1 == 3 {
			num = strings.ReplaceAll(tok, sep, "")
		} else {
			num = strings.Replace(tok, sep, ".", 1)
		}
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// FormatBRL formata no padrão brasileiro: "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString("R$ ")
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
