package normalizer

import (
	"fmt"

	"github.com/radieske/event-odds-gateway/internal/odds-gateway/dto"
)

// Mapeamento genérico: o payload é uma árvore arbitrária que contém, em algum
// lugar, um objeto com listas de bookmakers/mercados/outcomes sob aliases
// permissivos. As tabelas de aliases abaixo são dados estáticos do contrato
// de extração; a ordem importa (primeiro alias presente vence).

var (
	eventNodeCandidates = []string{"event", "eventOdds", "eventOddsV2", "event_data", "eventOddsResponse"}

	eventNodeMarkerKeys = []string{"bookmakers", "bookmakerOdds", "odds", "event", "fixture", "details", "eventDetails"}

	bookmakerListKeys = []string{"bookmakers", "bookmakerOdds", "odds"}

	eventNameKeys   = []string{"name", "eventName", "shortName", "eventLabel", "eventTitle"}
	competitionKeys = []string{"competition", "tournament", "league", "competitionName"}
	startTimeKeys   = []string{"startTime", "startTimestamp", "kickoff", "startDate"}
	descriptiveKeys = []string{"name", "eventName", "shortName", "competition", "tournament", "league", "competitionName", "startTime", "startTimestamp", "kickoff", "startDate"}
	sourceKeys      = []string{"source", "provider", "origin"}
)

func (n *Normalizer) mapGeneric(eventID string, payload map[string]any) dto.OddsResponse {
	eventNode := extractEventNode(payload)

	// Campos descritivos: primeiro objeto não vazio entre event/fixture/details,
	// senão o próprio nó do evento, senão varredura em largura por chave conhecida
	var eventInfo map[string]any
	if v := coalesce(eventNode, "event", "fixture", "details"); truthy(v) {
		eventInfo = asMap(v)
	} else {
		eventInfo = eventNode
	}
	if len(eventInfo) == 0 {
		walkNodes(eventNode, func(node map[string]any) bool {
			if hasAnyKey(node, descriptiveKeys...) {
				eventInfo = node
				return true
			}
			return false
		})
	}

	bookmakers := normalizeBookmakers(ensureList(coalesce(eventNode, bookmakerListKeys...)))
	if len(bookmakers) == 0 {
		walkNodes(eventNode, func(node map[string]any) bool {
			candidates := coalesce(node, bookmakerListKeys...)
			if !truthy(candidates) {
				return false
			}
			if found := normalizeBookmakers(ensureList(candidates)); len(found) > 0 {
				bookmakers = found
				return true
			}
			return false
		})
	}

	source := n.sourceOr(extractText(firstKey(payload, sourceKeys...)))

	return dto.OddsResponse{
		Event: dto.Event{
			EventID:         eventID,
			EventName:       extractText(firstKey(eventInfo, eventNameKeys...)),
			CompetitionName: extractText(firstKey(eventInfo, competitionKeys...)),
			StartTime:       parseTime(firstKey(eventInfo, startTimeKeys...)),
			Bookmakers:      bookmakers,
		},
		RetrievedAt: n.now(),
		Source:      source,
	}
}

// extractEventNode localiza o objeto que representa o evento: primeiro pelas
// chaves candidatas no topo (e um nível abaixo de "data"), depois por busca em
// largura pelo primeiro objeto com alguma chave marcadora; em último caso o
// próprio payload.
func extractEventNode(payload map[string]any) map[string]any {
	working := asMap(payload["data"])
	if len(working) == 0 {
		working = payload
	}

	for _, candidate := range eventNodeCandidates {
		if node := asMap(working[candidate]); node != nil {
			return node
		}
	}

	var found map[string]any
	walkNodes(working, func(node map[string]any) bool {
		if hasAnyKey(node, eventNodeMarkerKeys...) {
			found = node
			return true
		}
		return false
	})
	if found != nil {
		return found
	}

	return working
}

// normalizeBookmakers mapeia as entradas brutas mesclando duplicatas: mesma
// identidade (id, senão nome, senão chave sintética) vira um único bookmaker
// com a união dos mercados; campos escalares só preenchem quando ausentes.
// A ordem de primeira aparição é preservada.
func normalizeBookmakers(raw []any) []dto.Bookmaker {
	type accum struct {
		id, name, region *string
		markets          []dto.Market
	}

	order := make([]string, 0, len(raw))
	index := make(map[string]*accum, len(raw))

	for _, item := range raw {
		bookmaker := asMap(item)
		if bookmaker == nil {
			continue
		}

		id := stringify(coalesce(bookmaker, "id", "bookmakerId", "bookmakerID"))
		name := extractText(firstKey(bookmaker, "name", "bookmakerName", "label"))
		region := extractText(firstKey(bookmaker, "region", "country", "jurisdiction"))

		// Entradas "grupo" carregam uma lista aninhada de mercados que é
		// expandida no lugar; entradas planas passam direto
		rawMarkets := ensureList(coalesce(bookmaker, "markets", "marketGroups", "groups"))
		expanded := make([]any, 0, len(rawMarkets))
		for _, candidate := range rawMarkets {
			if group := asMap(candidate); group != nil {
				if _, ok := group["markets"]; ok {
					expanded = append(expanded, ensureList(group["markets"])...)
					continue
				}
			}
			expanded = append(expanded, candidate)
		}
		markets := normalizeMarkets(expanded)

		key := ""
		switch {
		case id != nil:
			key = "id:" + *id
		case name != nil:
			key = "name:" + *name
		default:
			// sem identidade: chave sintética, nunca mescla
			key = fmt.Sprintf("anon:%d", len(order))
		}

		entry, ok := index[key]
		if !ok {
			entry = &accum{id: id, name: name, region: region}
			index[key] = entry
			order = append(order, key)
		}
		if entry.name == nil {
			entry.name = name
		}
		if entry.region == nil {
			entry.region = region
		}
		if len(markets) > 0 {
			entry.markets = append(entry.markets, markets...)
		}
	}

	result := make([]dto.Bookmaker, 0, len(order))
	for _, key := range order {
		entry := index[key]
		markets := entry.markets
		if markets == nil {
			markets = []dto.Market{}
		}
		result = append(result, dto.Bookmaker{
			ID:      entry.id,
			Name:    entry.name,
			Region:  entry.region,
			Markets: markets,
		})
	}
	return result
}

func normalizeMarkets(raw []any) []dto.Market {
	markets := make([]dto.Market, 0, len(raw))
	for _, item := range raw {
		market := asMap(item)
		if market == nil {
			continue
		}
		markets = append(markets, dto.Market{
			ID:       stringify(coalesce(market, "id", "marketId")),
			Name:     extractText(firstKey(market, "name", "marketName", "label", "text")),
			Key:      stringify(firstKey(market, "key", "marketKey")),
			Outcomes: normalizeOutcomes(ensureList(coalesce(market, "outcomes", "selections"))),
		})
	}
	return markets
}

func normalizeOutcomes(raw []any) []dto.Outcome {
	outcomes := make([]dto.Outcome, 0, len(raw))
	for _, item := range raw {
		outcome := asMap(item)
		if outcome == nil {
			continue
		}
		outcomes = append(outcomes, dto.Outcome{
			ID:             stringify(coalesce(outcome, "id", "outcomeId")),
			Label:          extractText(firstKey(outcome, "name", "label", "displayName", "text")),
			SelectionKey:   stringify(firstKey(outcome, "key", "selectionKey", "outcomeKey")),
			OddsDecimal:    parseFloat(firstKey(outcome, "oddsDecimal", "decimalOdds", "value")),
			OddsFractional: stringify(firstKey(outcome, "oddsFractional", "fractionalOdds")),
			Probability:    parseFloat(firstKey(outcome, "probability", "impliedProbability")),
		})
	}
	return outcomes
}
