// Package planos implements the installment plan management listing: filter
// normalization, predicate building, paged fetching over the management view,
// approximate totals and the block operations.
package planos

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Situacao enumerates the canonical situation codes a plan can be in.
type Situacao string

const (
	SituacaoEmDia            Situacao = "EM_DIA"
	SituacaoEmAtraso         Situacao = "EM_ATRASO"
	SituacaoPassivelRescisao Situacao = "PASSIVEL_RESCISAO"
	SituacaoEspecial         Situacao = "ESPECIAL"
	SituacaoRescindido       Situacao = "RESCINDIDO"
	SituacaoLiquidado        Situacao = "LIQUIDADO"
	SituacaoGRDE             Situacao = "GRDE"
)

var situacoesValidas = map[Situacao]struct{}{
	SituacaoEmDia:            {},
	SituacaoEmAtraso:         {},
	SituacaoPassivelRescisao: {},
	SituacaoEspecial:         {},
	SituacaoRescindido:       {},
	SituacaoLiquidado:        {},
	SituacaoGRDE:             {},
}

// ocorrências are the terminal situations that demand an audit trail, as
// opposed to the collectible states a plan moves between.
var ocorrencias = map[Situacao]struct{}{
	SituacaoRescindido: {},
	SituacaoLiquidado:  {},
	SituacaoGRDE:       {},
}

var acentos = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// RemoverAcentos strips diacritics so upstream spellings like "Passível"
// and "Passivel" compare equal.
func RemoverAcentos(s string) string {
	out, _, err := transform.String(acentos, s)
	if err != nil {
		return s
	}
	return out
}

// chaveSituacao reduces raw situation text to the form classification runs
// on: accent-stripped, uppercased, with separators removed.
func chaveSituacao(raw string) string {
	key := strings.ToUpper(RemoverAcentos(raw))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
}

// ParseSituacao normalizes a filter value onto a canonical code. It reports
// false for values outside the known set, which the filter normalizer drops.
func ParseSituacao(raw string) (Situacao, bool) {
	key := chaveSituacao(strings.TrimSpace(raw))
	for s := range situacoesValidas {
		if chaveSituacao(string(s)) == key {
			return s, true
		}
	}
	return "", false
}

// ClassificarSituacao maps the free-form situation text of the upstream view
// onto a canonical code. Upstream spellings vary per source system
// ("Passível de Rescisão", "PASSIVELDERESCISAO"), so the match runs on the
// reduced key. Text that matches no family is passed through trimmed, so new
// upstream states surface instead of disappearing.
//
// The passive-rescission check runs before the rescinded one: the reduced
// key of "Passível de Rescisão" contains the rescission stem as well.
func ClassificarSituacao(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	key := chaveSituacao(trimmed)
	switch {
	case strings.Contains(key, "PASSIVEL"):
		return string(SituacaoPassivelRescisao)
	case strings.Contains(key, "RESCIND"):
		return string(SituacaoRescindido)
	case strings.Contains(key, "LIQUID"):
		return string(SituacaoLiquidado)
	case strings.Contains(key, "GRDE"):
		return string(SituacaoGRDE)
	case strings.Contains(key, "ATRASO"):
		return string(SituacaoEmAtraso)
	case strings.Contains(key, "ESPECIAL"):
		return string(SituacaoEspecial)
	case strings.Contains(key, "EMDIA"):
		return string(SituacaoEmDia)
	default:
		return trimmed
	}
}

// EhOcorrencia reports whether raw situation text classifies as an
// occurrence, one of the terminal states audited by the backoffice.
func EhOcorrencia(raw string) bool {
	_, ok := ocorrencias[Situacao(ClassificarSituacao(raw))]
	return ok
}
