package offer

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"ofertas/internal/model"
)

// ErrParseFailure indica que nenhuma estrutura JSON pôde ser recuperada da resposta.
var ErrParseFailure = errors.New("offer: no JSON payload found in model response")

// Chaves de "envelope" que o prompt pede ({"products": [...]}) e variações comuns.
var envelopeKeys = []string{"products", "produtos", "items", "itens"}

// ParseCandidates extrai os objetos candidatos da resposta crua do modelo.
// Tolera cercas de Markdown, texto ao redor e respostas truncadas.
// Devolve também quantos elementos foram descartados por não serem objetos.
func ParseCandidates(raw string) ([]model.CandidateRecord, int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, 0, ErrParseFailure
	}
	text := stripCodeFence(raw)
	if cands, skipped, ok := salvage(text); ok {
		return cands, skipped, nil
	}
	if text != raw {
		if cands, skipped, ok := salvage(raw); ok {
			return cands, skipped, nil
		}
	}
	return nil, 0, ErrParseFailure
}

func salvage(text string) ([]model.CandidateRecord, int, bool) {
	if v, ok := decodeStrict(text); ok {
		if cands, skipped, ok := candidatesFrom(v); ok {
			return cands, skipped, true
		}
	}

	// Fallback: procura a primeira estrutura balanceada que seja JSON válido.
	attempts := 0
	for _, sp := range balancedSpans(text) {
		if sp.end < 0 {
			continue
		}
		if attempts++; attempts > maxSalvageAttempts {
			break
		}
		if v, ok := decodeStrict(text[sp.start:sp.end]); ok {
			if cands, skipped, ok := candidatesFrom(v); ok {
				return cands, skipped, true
			}
		}
	}
	return nil, 0, false
}

// stripCodeFence devolve o conteúdo do primeiro bloco ```...``` se existir.
func stripCodeFence(s string) string {
	open := strings.Index(s, "```")
	if open < 0 {
		return s
	}
	body := s[open+3:]
	// descarta a tag de linguagem (```json)
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// decodeStrict aceita apenas um único valor JSON, sem lixo depois dele.
func decodeStrict(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return v, true
}

// span marca uma estrutura aberta em start; end fica logo após o fechamento,
// ou -1 se ela não fecha (resposta truncada) ou fecha com o colchete errado.
type span struct {
	start, end int
}

// Limite de decodificações no fallback; cada uma custa até o tamanho da entrada.
const maxSalvageAttempts = 256

// balancedSpans percorre o texto uma única vez e devolve, em ordem de abertura,
// cada '{' ou '[' fora de string com o índice do seu fechamento.
// Uma varredura termina quando a estrutura inicial fecha, quando aparece um
// fechamento errado (todas as abertas ficam -1) ou no fim do texto.
func balancedSpans(s string) []span {
	var spans []span
	var stack []int // índices em spans das estruturas ainda abertas
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			// aspas soltas em prosa não abrem string fora de uma estrutura
			inString = len(stack) > 0
		case '{', '[':
			stack = append(stack, len(spans))
			spans = append(spans, span{start: i, end: -1})
		case '}', ']':
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if closerOf(s[spans[top].start]) != c {
				stack = stack[:0]
				continue
			}
			spans[top].end = i + 1
			stack = stack[:len(stack)-1]
		}
	}
	return spans
}

func closerOf(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ']'
}

// candidatesFrom converte o valor decodificado na sequência de candidatos.
// ok=false quando o valor não é uma estrutura (string, número, null).
func candidatesFrom(v any) ([]model.CandidateRecord, int, bool) {
	switch t := v.(type) {
	case map[string]any:
		if inner, found := unwrapEnvelope(t); found {
			return candidatesFrom(inner)
		}
		if isEmpty(t) {
			return []model.CandidateRecord{}, 1, true
		}
		return []model.CandidateRecord{model.CandidateRecord(t)}, 0, true
	case []any:
		out := make([]model.CandidateRecord, 0, len(t))
		skipped := 0
		for _, el := range t {
			obj, ok := el.(map[string]any)
			if !ok || isEmpty(obj) {
				skipped++
				continue
			}
			out = append(out, model.CandidateRecord(obj))
		}
		return out, skipped, true
	default:
		return nil, 0, false
	}
}

// unwrapEnvelope só desembrulha objetos que não são, eles mesmos, um produto.
func unwrapEnvelope(obj map[string]any) (any, bool) {
	if looksLikeProduct(obj) {
		return nil, false
	}
	for _, k := range envelopeKeys {
		switch inner := obj[k].(type) {
		case []any:
			return inner, true
		case map[string]any:
			return []any{inner}, true
		}
	}
	return nil, false
}

// isEmpty trata {} e objetos só com valores nulos/vazios como ausência de produto.
func isEmpty(obj map[string]any) bool {
	for _, v := range obj {
		switch t := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(t) != "" {
				return false
			}
		case []any:
			if len(t) > 0 {
				return false
			}
		case map[string]any:
			if !isEmpty(t) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compactJSON renderiza valores não-string (números, listas) como texto JSON.
func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
