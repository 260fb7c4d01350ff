package offer

import "ofertas/internal/model"

// Assemble monta o resultado final na ordem em que o modelo listou os produtos,
// removendo duplicatas exatas (mantém a primeira). Registros inválidos permanecem.
func Assemble(records []model.ProductRecord) ([]model.ProductRecord, model.Outcome) {
	out := make([]model.ProductRecord, 0, len(records))
	for _, r := range records {
		if containsRecord(out, r) {
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return out, model.OutcomeNoProducts
	}
	return out, model.OutcomeSuccess
}

// Lotes vêm de uma única imagem, então a busca linear é suficiente.
func containsRecord(list []model.ProductRecord, r model.ProductRecord) bool {
	for _, existing := range list {
		if existing.Equal(r) {
			return true
		}
	}
	return false
}
