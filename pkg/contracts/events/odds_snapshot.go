package events

import (
	"encoding/json"
	"time"
)

// Evento publicado no tópico "odds_snapshots" depois de cada fetch+normalização
// bem-sucedido. Payload carrega a resposta canônica completa serializada; os
// demais campos existem para roteamento e inspeção sem desserializar o payload.
type OddsSnapshot struct {
	EventID     string          `json:"event_id"`
	Bookmakers  int             `json:"bookmakers"` // quantidade de bookmakers no snapshot
	RetrievedAt time.Time       `json:"retrieved_at"`
	Source      string          `json:"source"` // ex: "livesport"
	Payload     json.RawMessage `json:"payload"`
}
