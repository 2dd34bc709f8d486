package normalizer

import (
	"fmt"
	"strings"

	"github.com/radieske/event-odds-gateway/internal/odds-gateway/dto"
)

// Mapeamento do formato agregado: o nó "findOddsByEventId" traz os bookmakers
// em settings.bookmakers e os mercados numa lista plana "odds", cada entrada
// marcada com bookmakerId, bettingType e bettingScope.

// Rótulos humanos para os tipos de aposta conhecidos; valores fora da tabela
// caem no title-case do próprio código (ex: "ASIAN_CORNERS" -> "Asian Corners")
var bettingTypeLabels = map[string]string{
	"HOME_DRAW_AWAY":      "1X2",
	"DOUBLE_CHANCE":       "Double Chance",
	"DRAW_NO_BET":         "Draw No Bet",
	"OVER_UNDER":          "Over/Under",
	"ASIAN_HANDICAP":      "Asian Handicap",
	"EUROPEAN_HANDICAP":   "European Handicap",
	"HALF_FULL_TIME":      "Half-Time/Full-Time",
	"CORRECT_SCORE":       "Correct Score",
	"BOTH_TEAMS_TO_SCORE": "Both Teams To Score",
	"ODD_OR_EVEN":         "Odd or Even",
}

// "Market" é sentinela: quando o escopo resolve para ele, o sufixo é omitido
var bettingScopeLabels = map[string]string{
	"FULL_TIME":   "Full Time",
	"FIRST_HALF":  "First Half",
	"SECOND_HALF": "Second Half",
	"UNKNOWN":     "Market",
}

func (n *Normalizer) mapAggregate(eventID string, node map[string]any) dto.OddsResponse {
	details, detailOrder := aggregateBookmakerDetails(node)
	marketsByBookmaker, marketOrder := aggregateMarkets(node)

	bookmakers := make([]dto.Bookmaker, 0, len(detailOrder)+len(marketOrder))
	for _, id := range detailOrder {
		markets := marketsByBookmaker[id]
		if markets == nil {
			markets = []dto.Market{}
		}
		bookmakers = append(bookmakers, dto.Bookmaker{
			ID:      details[id].ID,
			Name:    details[id].Name,
			Region:  nil,
			Markets: markets,
		})
	}

	// Bookmakers descobertos só pela lista de odds (sem entrada em settings)
	// ainda produzem registro, com nome e região desconhecidos
	for _, id := range marketOrder {
		if _, known := details[id]; known {
			continue
		}
		bid := id
		bookmakers = append(bookmakers, dto.Bookmaker{
			ID:      &bid,
			Name:    nil,
			Region:  nil,
			Markets: marketsByBookmaker[id],
		})
	}

	// Campos descritivos do evento: primeiro objeto não vazio entre
	// event/eventDetails/fixture
	eventInfo := map[string]any{}
	for _, key := range []string{"event", "eventDetails", "fixture"} {
		if candidate := asMap(node[key]); len(candidate) > 0 {
			eventInfo = candidate
			break
		}
	}

	return dto.OddsResponse{
		Event: dto.Event{
			EventID:         eventID,
			EventName:       extractText(firstKey(eventInfo, eventNameKeys...)),
			CompetitionName: extractText(firstKey(eventInfo, competitionKeys...)),
			StartTime:       parseTime(firstKey(eventInfo, startTimeKeys...)),
			Bookmakers:      bookmakers,
		},
		RetrievedAt: n.now(),
		Source:      n.sourceOr(extractText(node["source"])),
	}
}

// aggregateBookmakerDetails lê identidade e nome de settings.bookmakers.
// Entradas sem id utilizável são puladas.
func aggregateBookmakerDetails(node map[string]any) (map[string]dto.Bookmaker, []string) {
	details := make(map[string]dto.Bookmaker)
	order := []string{}

	settings := asMap(node["settings"])
	for _, item := range ensureList(settings["bookmakers"]) {
		entry := asMap(item)
		if entry == nil {
			continue
		}
		info := asMap(entry["bookmaker"])
		id := stringify(firstTruthy(info["id"], entry["bookmakerId"]))
		if id == nil {
			continue
		}
		if _, seen := details[*id]; seen {
			continue
		}
		name := extractText(firstTruthy(info["name"], entry["name"]))
		details[*id] = dto.Bookmaker{ID: id, Name: name}
		order = append(order, *id)
	}

	return details, order
}

// aggregateMarkets agrupa a lista plana "odds" por bookmaker e por chave de
// mercado (TYPE:SCOPE), preservando a ordem de primeira aparição de ambos
func aggregateMarkets(node map[string]any) (map[string][]dto.Market, []string) {
	type marketAccum struct {
		order []string
		byKey map[string]*dto.Market
	}

	grouped := make(map[string]*marketAccum)
	bookmakerOrder := []string{}

	for _, item := range ensureList(node["odds"]) {
		entry := asMap(item)
		if entry == nil {
			continue
		}

		bookmakerID := stringify(entry["bookmakerId"])
		if bookmakerID == nil {
			continue
		}

		marketKey, marketName := marketNameFor(extractText(entry["bettingType"]), extractText(entry["bettingScope"]))

		accum, ok := grouped[*bookmakerID]
		if !ok {
			accum = &marketAccum{byKey: make(map[string]*dto.Market)}
			grouped[*bookmakerID] = accum
			bookmakerOrder = append(bookmakerOrder, *bookmakerID)
		}

		market, ok := accum.byKey[marketKey]
		if !ok {
			key := marketKey
			name := marketName
			market = &dto.Market{ID: &key, Name: &name, Key: &key, Outcomes: []dto.Outcome{}}
			accum.byKey[marketKey] = market
			accum.order = append(accum.order, marketKey)
		}

		for _, rawOutcome := range ensureList(entry["odds"]) {
			outcome := asMap(rawOutcome)
			if outcome == nil {
				continue
			}

			id := stringify(coalesce(outcome, "eventParticipantId", "selection", "score"))
			if id == nil {
				synthetic := fmt.Sprintf("%s:%d", marketKey, len(market.Outcomes))
				id = &synthetic
			}
			label := outcomeLabel(outcome)

			market.Outcomes = append(market.Outcomes, dto.Outcome{
				ID:           id,
				Label:        &label,
				SelectionKey: id,
				OddsDecimal:  parseFloat(outcome["value"]),
				Probability:  parseFloat(outcome["probability"]),
			})
		}
	}

	result := make(map[string][]dto.Market, len(grouped))
	for id, accum := range grouped {
		markets := make([]dto.Market, 0, len(accum.order))
		for _, key := range accum.order {
			markets = append(markets, *accum.byKey[key])
		}
		result[id] = markets
	}
	return result, bookmakerOrder
}

// marketNameFor devolve a chave estável e o nome humano de um mercado.
// Tipo e escopo ausentes valem "UNKNOWN"; escopo "Market" suprime o sufixo.
func marketNameFor(bettingType, bettingScope *string) (string, string) {
	typeCode := "UNKNOWN"
	if bettingType != nil && *bettingType != "" {
		typeCode = strings.ToUpper(*bettingType)
	}
	scopeCode := "UNKNOWN"
	if bettingScope != nil && *bettingScope != "" {
		scopeCode = strings.ToUpper(*bettingScope)
	}

	marketKey := typeCode + ":" + scopeCode

	typeLabel, ok := bettingTypeLabels[typeCode]
	if !ok {
		typeLabel = titleCase(typeCode)
	}
	scopeLabel, ok := bettingScopeLabels[scopeCode]
	if !ok {
		scopeLabel = titleCase(scopeCode)
	}

	if scopeLabel == "Market" {
		return marketKey, typeLabel
	}
	return marketKey, typeLabel + " - " + scopeLabel
}

// outcomeLabel monta o rótulo da seleção: primeiro texto disponível entre
// selection/winner/score/position, handicap estruturado entre parênteses,
// fallback para o participante e, por fim, o literal "Selection"
func outcomeLabel(outcome map[string]any) string {
	parts := []string{}
	for _, key := range []string{"selection", "winner", "score", "position"} {
		if text := extractText(outcome[key]); text != nil {
			parts = append(parts, *text)
			break
		}
	}

	if handicap := asMap(outcome["handicap"]); handicap != nil {
		if value := extractText(handicap["value"]); value != nil {
			parts = append(parts, "("+*value+")")
		}
	}

	if len(parts) == 0 {
		if participant := extractText(outcome["eventParticipantId"]); participant != nil {
			parts = append(parts, *participant)
		}
	}

	label := strings.TrimSpace(strings.Join(parts, " "))
	if label == "" {
		return "Selection"
	}
	return label
}

// titleCase transforma códigos como "ASIAN_CORNERS" em "Asian Corners"
func titleCase(code string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(code), "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
