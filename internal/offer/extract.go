package offer

import "ofertas/internal/model"

// Extract executa o pipeline completo sobre a resposta crua do modelo:
// parser, normalizador (com interpretação de preço) e montagem do lote.
// É puro e nunca devolve erro; o Outcome diz como a UI deve reagir.
func Extract(raw string) model.Result {
	candidates, skipped, err := ParseCandidates(raw)
	if err != nil {
		return model.Result{
			Outcome: model.OutcomeParseFailure,
			Records: []model.ProductRecord{},
		}
	}

	records := make([]model.ProductRecord, 0, len(candidates))
	for _, c := range candidates {
		records = append(records, Normalize(c))
	}

	assembled, outcome := Assemble(records)
	return model.Result{
		Outcome: outcome,
		Records: assembled,
		Skipped: skipped,
	}
}
