package dto

import "time"

// Campos opcionais são ponteiros: nil significa "desconhecido no upstream",
// nunca erro. A serialização emite null para manter o contrato estável.

// Outcome representa uma seleção dentro de um mercado (ex: vitória do mandante)
type Outcome struct {
	ID             *string  `json:"id"`
	Label          *string  `json:"label"`
	SelectionKey   *string  `json:"selection_key"`
	OddsDecimal    *float64 `json:"odds_decimal"`
	OddsFractional *string  `json:"odds_fractional"`
	Probability    *float64 `json:"probability"`
}

// Market agrupa as seleções de um mercado de aposta (ex: resultado final)
// Key é estável entre atualizações (ex: "HOME_DRAW_AWAY:FULL_TIME")
type Market struct {
	ID       *string   `json:"id"`
	Name     *string   `json:"name"`
	Key      *string   `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Bookmaker agrupa os mercados oferecidos por uma casa de apostas
type Bookmaker struct {
	ID      *string  `json:"id"`
	Name    *string  `json:"name"`
	Region  *string  `json:"region"`
	Markets []Market `json:"markets"`
}

// Event é o contêiner de odds de um evento esportivo.
// EventID é sempre o identificador pedido pelo caller, nunca derivado do upstream.
type Event struct {
	EventID         string      `json:"event_id"`
	EventName       *string     `json:"event_name"`
	CompetitionName *string     `json:"competition_name"`
	StartTime       *time.Time  `json:"start_time"` // UTC
	Bookmakers      []Bookmaker `json:"bookmakers"`
}

// OddsResponse é o retorno de mais alto nível do serviço.
// RetrievedAt é o instante da normalização, nunca um timestamp do upstream.
type OddsResponse struct {
	Event       Event     `json:"event"`
	RetrievedAt time.Time `json:"retrieved_at"` // UTC
	Source      *string   `json:"source"`
}
