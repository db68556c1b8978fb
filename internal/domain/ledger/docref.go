package ledger

import (
	"regexp"
	"strings"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// Patrones de referencia de documento, en orden de prioridad.
var (
	hashRefRe    = regexp.MustCompile(`#([A-Za-z0-9](?:[A-Za-z0-9_/-]*[A-Za-z0-9])?)`)
	prefixRefRe  = regexp.MustCompile(`(?i)\b(?:POS|GR|PO|SO|DO|INV|ADJ)-\d+(?:-\d+)*\b`)
	genericRefRe = regexp.MustCompile(`\b[A-Z]{2,}-\d+(?:-\d+)*\b`)
)

type docRefInput struct {
	note        string
	structured  string
	refType     entity.RefType
	isOpening   bool
	destroyNote bool
}

// documentRef resuelve la referencia legible del movimiento. El campo estructurado tiene
// prioridad sobre la nota; la nota solo se usa para registros heredados.
func documentRef(in docRefInput) string {
	if in.isOpening || in.refType == entity.RefTypeOpening {
		return entity.DocumentRefOpening
	}
	if in.structured != "" {
		return in.structured
	}
	if in.destroyNote {
		return entity.DocumentRefDestroy
	}
	if m := hashRefRe.FindStringSubmatch(in.note); m != nil {
		return m[1]
	}
	if m := prefixRefRe.FindString(in.note); m != "" {
		return strings.ToUpper(m)
	}
	if m := genericRefRe.FindString(in.note); m != "" {
		return m
	}
	if in.refType == entity.RefTypeDestroy {
		return entity.DocumentRefDestroy
	}
	return entity.DocumentRefNone
}
