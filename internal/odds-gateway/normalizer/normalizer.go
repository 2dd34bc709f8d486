// Package normalizer converte o JSON bruto e instável do fornecedor de odds
// no esquema canônico do serviço. A estrutura do upstream aparece em pelo
// menos duas formas incompatíveis: um agregado achatado sob
// data.findOddsByEventId e uma árvore genérica aninhada. A detecção de forma
// é ordenada e a primeira que casar vence.
//
// Campos malformados ou ausentes nunca geram erro: viram "desconhecido"
// (nil). Só um payload de topo que não seja objeto JSON é tratado como
// defeito, porque indica problema na camada de fetch e não no conteúdo.
package normalizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/radieske/event-odds-gateway/internal/odds-gateway/dto"
)

// ErrNonObjectPayload indica payload de topo que não é objeto JSON
var ErrNonObjectPayload = errors.New("upstream payload is not a JSON object")

// Normalizer é puro: sem I/O e sem estado mutável
type Normalizer struct {
	// DefaultSource identifica o fornecedor quando o payload não informa origem
	DefaultSource string

	// Now permite fixar o relógio em testes; nil usa time.Now
	Now func() time.Time
}

// Normalize mapeia o payload bruto para o esquema canônico.
// eventID é sempre o identificador pedido pelo caller, nunca derivado do payload.
func (n *Normalizer) Normalize(eventID string, payload any) (dto.OddsResponse, error) {
	var root map[string]any
	switch p := payload.(type) {
	case nil:
		root = map[string]any{}
	case map[string]any:
		root = p
	default:
		return dto.OddsResponse{}, fmt.Errorf("%w: got %T", ErrNonObjectPayload, payload)
	}

	// Forma agregada: nó pré-agrupado sob data.findOddsByEventId
	if data, ok := root["data"].(map[string]any); ok {
		if node, ok := data["findOddsByEventId"].(map[string]any); ok {
			return n.mapAggregate(eventID, node), nil
		}
	}

	return n.mapGeneric(eventID, root), nil
}

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now().UTC()
	}
	return time.Now().UTC()
}

func (n *Normalizer) sourceOr(fromPayload *string) *string {
	if fromPayload != nil {
		return fromPayload
	}
	source := n.DefaultSource
	return &source
}
