package normalizer

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// Helpers de extração defensiva sobre o payload bruto, decodificado pelo
// encoding/json como any (null/bool/float64/string/[]any/map[string]any).
// Nenhum deles retorna erro: valor fora do formato esperado vira nil.

// asMap retorna o valor como objeto JSON, ou nil quando não for objeto
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// ensureList normaliza o valor para lista: listas passam direto,
// nil vira lista vazia e escalares viram lista de um elemento
func ensureList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

// firstKey tenta cada alias em ordem e retorna o valor do primeiro presente,
// mesmo que seja null. A ordem dos aliases é parte do contrato de extração.
func firstKey(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// coalesce é como firstKey, mas pula valores "vazios" (null, "", 0, false,
// listas e objetos sem elementos) e retorna o primeiro valor útil
func coalesce(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

// firstTruthy devolve o primeiro valor útil entre os candidatos
func firstTruthy(values ...any) any {
	for _, v := range values {
		if truthy(v) {
			return v
		}
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

// textAliasKeys são as chaves prováveis de conter texto quando um campo
// "livre" chega como objeto aninhado em vez de string
var textAliasKeys = []string{"text", "label", "name", "value", "displayName"}

// extractText resolve um campo de texto livre que pode chegar como string,
// número, objeto aninhado ou lista. Esgotar as opções resulta em nil.
func extractText(v any) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return &t
	case float64:
		s := formatNumber(t)
		return &s
	case bool:
		s := strconv.FormatBool(t)
		return &s
	case map[string]any:
		for _, key := range textAliasKeys {
			if inner, ok := t[key]; ok {
				if extracted := extractText(inner); extracted != nil {
					return extracted
				}
			}
		}
		return nil
	case []any:
		for _, item := range t {
			if extracted := extractText(item); extracted != nil {
				return extracted
			}
		}
		return nil
	}
	return nil
}

// stringify converte escalares em string para uso como identificador
func stringify(v any) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return &t
	case float64:
		s := formatNumber(t)
		return &s
	case bool:
		s := strconv.FormatBool(t)
		return &s
	}
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseFloat aceita número ou string numérica; strings não numéricas viram nil
func parseFloat(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if t == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return &f
		}
	}
	return nil
}

// Layouts aceitos para timestamps ISO-8601, com e sem fração/offset
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime aceita string ISO-8601 ou timestamp Unix numérico.
// Números acima de 10^12 são interpretados como milissegundos.
// O resultado é sempre normalizado para UTC; valores inválidos viram nil.
func parseTime(v any) *time.Time {
	switch t := v.(type) {
	case float64:
		ts := t
		if ts > 1e12 { // milissegundos
			ts /= 1000
		}
		sec, frac := math.Modf(ts)
		parsed := time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
		return &parsed
	case string:
		if t == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				utc := parsed.UTC()
				return &utc
			}
		}
	}
	return nil
}

// walkNodes percorre o payload em largura e chama visit para cada objeto
// encontrado; visit retorna true para interromper a busca. As chaves de cada
// objeto são visitadas em ordem lexicográfica porque mapas em Go não
// preservam ordem de inserção e a busca precisa ser determinística.
func walkNodes(root any, visit func(map[string]any) bool) {
	queue := []any{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		switch node := current.(type) {
		case map[string]any:
			if visit(node) {
				return
			}
			keys := make([]string, 0, len(node))
			for k := range node {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				queue = append(queue, node[k])
			}
		case []any:
			queue = append(queue, node...)
		}
	}
}

// hasAnyKey informa se o objeto expõe alguma das chaves marcadoras
func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
