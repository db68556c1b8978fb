// Package ledger reconstruye el kardex (tarjeta de stock) a partir del historial de
// movimientos: normalización, saldos acumulados, reproyección por rango y resumen.
//
// Todas las operaciones son funciones puras y totales: no hacen I/O, no fallan y no
// modifican los slices recibidos.
package ledger

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// directionPolicy dirección por tipo de referencia cuando el registro no trae una explícita.
var directionPolicy = map[entity.RefType]int{
	entity.RefTypeSale:         -1,
	entity.RefTypeDestroy:      -1,
	entity.RefTypeSaleVoid:     1,
	entity.RefTypeGoodsReceipt: 1,
	entity.RefTypeAdd:          1,
	entity.RefTypeOpening:      0,
}

// Frases de saldo inicial y destrucción, evaluadas sobre la nota ya plegada (case folding).
var (
	openingNoteRe = regexp.MustCompile(`\b(?:(?:stok|stock|saldo|persediaan)\s+awal|opening\s+(?:stock|stok|balance|qty|quantity)|initial\s+stock|(?:saldo|inventario|stock)\s+inicial)\b`)
	destroyNoteRe = regexp.MustCompile(`\b(?:destroy|destroyed|destruction|musnah|pemusnahan|dimusnahkan)\b`)
)

// Layouts de fecha aceptados. Los que no traen zona se leen en la ubicación del Normalizer.
var (
	zonedLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05Z07:00"}
	localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02"}
)

// Normalizer convierte movimientos crudos en NormalizedEntry.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer construye el normalizador. loc nil equivale a UTC.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

var defaultNormalizer = NewNormalizer(time.UTC)

// Normalize normaliza con el normalizador por defecto (UTC).
func Normalize(raw entity.RawMovement) entity.NormalizedEntry {
	return defaultNormalizer.Normalize(raw)
}

// NormalizeAll normaliza una lista completa; devuelve un slice nuevo.
func (n *Normalizer) NormalizeAll(raws []entity.RawMovement) []entity.NormalizedEntry {
	out := make([]entity.NormalizedEntry, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Normalize(raw))
	}
	return out
}

// Normalize resuelve alias, determina apertura/dirección, calcula deltas firmados y
// extrae la referencia de documento. Campos ausentes o mal formados quedan en cero/vacío.
func (n *Normalizer) Normalize(raw entity.RawMovement) entity.NormalizedEntry {
	note := entity.First(raw.Note, raw.Notes).String()
	folded := cases.Fold().String(note)

	refType := parseRefType(entity.First(raw.RefType, raw.ReferenceType, raw.RefTypeCamel).String())
	isOpening := refType == entity.RefTypeOpening || openingNoteRe.MatchString(folded)
	destroyNote := destroyNoteRe.MatchString(folded)
	if refType == "" {
		// sin tipo: la nota decide si es apertura o destrucción
		switch {
		case isOpening:
			refType = entity.RefTypeOpening
		case destroyNote:
			refType = entity.RefTypeDestroy
		}
	}

	direction, known := directionPolicy[refType]
	defaulted := false
	if explicit := parseDirection(raw.Direction.String()); explicit != 0 {
		direction = explicit
	} else if !known {
		direction = 1
		defaulted = true
	}
	if isOpening {
		direction = 0
		defaulted = false
	}

	qty := parseDecimal(entity.First(raw.Qty, raw.Quantity).String()).Abs()
	unitCost := parseDecimal(entity.First(raw.UnitCost, raw.Cost, raw.UnitCostCamel).String())

	e := entity.NormalizedEntry{
		ID:                 entity.First(raw.ID).String(),
		Sequence:           parseSequence(entity.First(raw.Sequence, raw.Seq).String()),
		Date:               n.parseDate(entity.First(raw.Date, raw.CreatedAt, raw.CreatedAtCamel).String()),
		RefType:            refType,
		Quantity:           qty,
		UnitCost:           unitCost,
		Note:               note,
		Direction:          direction,
		SignedQuantity:     decimal.Zero,
		SignedCost:         decimal.Zero,
		IsOpening:          isOpening,
		DirectionDefaulted: defaulted,
	}
	if !isOpening {
		d := decimal.NewFromInt(int64(direction))
		e.SignedQuantity = qty.Mul(d)
		e.SignedCost = qty.Mul(unitCost).Mul(d)
	}
	e.DocumentRef = documentRef(docRefInput{
		note:        note,
		structured:  entity.First(raw.DocumentRef, raw.DocumentRefCamel).String(),
		refType:     refType,
		isOpening:   isOpening,
		destroyNote: destroyNote,
	})
	return e
}

// DefaultedRefTypes lista (ordenada, sin repetidos) los tipos a los que se aplicó la
// dirección por defecto.
func DefaultedRefTypes(entries []entity.NormalizedEntry) []entity.RefType {
	seen := make(map[entity.RefType]struct{})
	var out []entity.RefType
	for _, e := range entries {
		if !e.DirectionDefaulted {
			continue
		}
		if _, ok := seen[e.RefType]; ok {
			continue
		}
		seen[e.RefType] = struct{}{}
		out = append(out, e.RefType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// parseRefType pasa a mayúsculas y unifica separadores ("sale-void", "Sale Void" → SALE_VOID).
func parseRefType(s string) entity.RefType {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return entity.RefType(s)
}

// parseDirection acepta números (se usa el signo) o in/out/+/-; 0 si no hay dirección.
func parseDirection(s string) int {
	switch strings.ToLower(s) {
	case "":
		return 0
	case "in", "+", "inbound":
		return 1
	case "out", "-", "outbound":
		return -1
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.Sign()
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseSequence(s string) int64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return parseDecimal(s).IntPart()
}

func (n *Normalizer) parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t
		}
	}
	// epoch numérico: milisegundos si supera 1e12, si no segundos
	if d, err := decimal.NewFromString(s); err == nil {
		v := d.IntPart()
		if v > 1e12 {
			return time.UnixMilli(v).In(n.loc)
		}
		return time.Unix(v, 0).In(n.loc)
	}
	return time.Time{}
}

// ParseTime interpreta una fecha con las mismas reglas que los registros de movimiento.
func (n *Normalizer) ParseTime(s string) (time.Time, bool) {
	t := n.parseDate(strings.TrimSpace(s))
	return t, !t.IsZero()
}

// ParseAmount decimal tolerante: texto vacío o inválido vale cero.
func ParseAmount(s string) decimal.Decimal {
	return parseDecimal(strings.TrimSpace(s))
}
