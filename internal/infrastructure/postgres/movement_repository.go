package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.MovementSource = (*MovementRepo)(nil)

// snapshotRunner lo cumple *TxRunner; se abstrae para poder leer sin transacción.
type snapshotRunner interface {
	ReadSnapshot(ctx context.Context, fn func(q Querier) error) error
}

// MovementRepo lee el historial de stock_movements y stock_openings.
type MovementRepo struct {
	q  Querier
	tx snapshotRunner
}

// NewMovementRepository construye el adaptador. tx puede ser nil: entonces aperturas y
// movimientos se leen con consultas independientes sobre q.
func NewMovementRepository(q Querier, tx snapshotRunner) *MovementRepo {
	return &MovementRepo{q: q, tx: tx}
}

// movementRow fila de stock_movements.
type movementRow struct {
	ID          int64
	Sequence    int64
	MovedAt     time.Time
	RefType     string
	DocumentRef *string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	Note        *string
}

// openingRow fila de stock_openings (saldo inicial por bodega).
type openingRow struct {
	WarehouseID string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	OpenedAt    time.Time
	Note        *string
}

// toRaw convierte la fila al formato crudo común. Una cantidad negativa almacenada se
// traduce en dirección explícita -1 con magnitud positiva.
func (r movementRow) toRaw() entity.RawMovement {
	raw := entity.RawMovement{
		ID:       entity.NewScalar(strconv.FormatInt(r.ID, 10)),
		Sequence: entity.NewScalar(strconv.FormatInt(r.Sequence, 10)),
		Date:     entity.NewScalar(r.MovedAt.UTC().Format(time.RFC3339Nano)),
		RefType:  entity.NewScalar(r.RefType),
		Qty:      entity.NewScalar(r.Quantity.Abs().String()),
		UnitCost: entity.NewScalar(r.UnitCost.Abs().String()),
	}
	if r.Quantity.IsNegative() {
		raw.Direction = entity.NewScalar("-1")
	}
	if r.DocumentRef != nil {
		raw.DocumentRef = entity.NewScalar(*r.DocumentRef)
	}
	if r.Note != nil {
		raw.Note = entity.NewScalar(*r.Note)
	}
	return raw
}

func (o openingRow) toRaw() entity.RawMovement {
	raw := entity.RawMovement{
		ID:       entity.NewScalar("OPENING-" + o.WarehouseID),
		Date:     entity.NewScalar(o.OpenedAt.UTC().Format(time.RFC3339Nano)),
		RefType:  entity.NewScalar(string(entity.RefTypeOpening)),
		Qty:      entity.NewScalar(o.Quantity.String()),
		UnitCost: entity.NewScalar(o.UnitCost.String()),
	}
	if o.Note != nil {
		raw.Note = entity.NewScalar(*o.Note)
	}
	return raw
}

const listOpeningsSQL = `
	SELECT warehouse_id, quantity, unit_cost, opened_at, note
	FROM stock_openings
	WHERE company_id = $1 AND product_id = $2 AND ($3 = '' OR warehouse_id = $3)
	ORDER BY opened_at, warehouse_id`

const listMovementsSQL = `
	SELECT id, sequence, moved_at, ref_type, document_ref, quantity, unit_cost, note
	FROM stock_movements
	WHERE company_id = $1 AND product_id = $2 AND ($3 = '' OR warehouse_id = $3)
	ORDER BY moved_at, id`

// ListMovements devuelve aperturas seguidas de movimientos, leídos en la misma foto cuando hay TxRunner.
func (r *MovementRepo) ListMovements(ctx context.Context, q entity.MovementQuery) ([]entity.RawMovement, error) {
	var out []entity.RawMovement
	read := func(db Querier) error {
		openings, err := listOpenings(ctx, db, q)
		if err != nil {
			return err
		}
		movements, err := listMovements(ctx, db, q)
		if err != nil {
			return err
		}
		out = append(openings, movements...)
		return nil
	}

	var err error
	if r.tx != nil {
		err = r.tx.ReadSnapshot(ctx, read)
	} else {
		err = read(r.q)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func listOpenings(ctx context.Context, db Querier, q entity.MovementQuery) ([]entity.RawMovement, error) {
	rows, err := db.Query(ctx, listOpeningsSQL, q.CompanyID, q.ProductID, q.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("list stock openings: %w", err)
	}
	defer rows.Close()

	var out []entity.RawMovement
	for rows.Next() {
		var o openingRow
		if err := rows.Scan(&o.WarehouseID, &o.Quantity, &o.UnitCost, &o.OpenedAt, &o.Note); err != nil {
			return nil, fmt.Errorf("scan stock opening: %w", err)
		}
		out = append(out, o.toRaw())
	}
	return out, rows.Err()
}

func listMovements(ctx context.Context, db Querier, q entity.MovementQuery) ([]entity.RawMovement, error) {
	rows, err := db.Query(ctx, listMovementsSQL, q.CompanyID, q.ProductID, q.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var out []entity.RawMovement
	for rows.Next() {
		var m movementRow
		if err := rows.Scan(&m.ID, &m.Sequence, &m.MovedAt, &m.RefType, &m.DocumentRef, &m.Quantity, &m.UnitCost, &m.Note); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		out = append(out, m.toRaw())
	}
	return out, rows.Err()
}

// summarySQL agrega el periodo en la base. La dirección se deriva del signo almacenado y del
// ref_type con la misma tabla que el normalizador; las notas no se interpretan aquí.
const summarySQL = `
	WITH m AS (
		SELECT moved_at,
		       abs(quantity) AS qty,
		       abs(quantity) * abs(unit_cost) AS cost,
		       CASE
		           WHEN upper(ref_type) = 'OPENING' THEN 0
		           WHEN quantity < 0 THEN -1
		           WHEN upper(replace(ref_type, '-', '_')) IN ('SALE', 'DESTROY') THEN -1
		           ELSE 1
		       END AS dir
		FROM stock_movements
		WHERE company_id = $1 AND product_id = $2 AND ($3 = '' OR warehouse_id = $3)
	), o AS (
		SELECT COALESCE(SUM(quantity), 0) AS qty,
		       COALESCE(SUM(quantity * unit_cost), 0) AS cost
		FROM stock_openings
		WHERE company_id = $1 AND product_id = $2 AND ($3 = '' OR warehouse_id = $3)
	)
	SELECT
		o.qty + COALESCE((SELECT SUM(qty) FROM m WHERE dir = 0), 0)
		      + COALESCE((SELECT SUM(qty * dir) FROM m WHERE dir <> 0 AND $4::timestamptz IS NOT NULL AND moved_at < $4::timestamptz), 0),
		o.cost + COALESCE((SELECT SUM(cost) FROM m WHERE dir = 0), 0)
		       + COALESCE((SELECT SUM(cost * dir) FROM m WHERE dir <> 0 AND $4::timestamptz IS NOT NULL AND moved_at < $4::timestamptz), 0),
		COALESCE((SELECT SUM(qty) FROM m WHERE dir = 1 AND ($4::timestamptz IS NULL OR moved_at >= $4::timestamptz) AND ($5::timestamptz IS NULL OR moved_at <= $5::timestamptz)), 0),
		COALESCE((SELECT SUM(qty) FROM m WHERE dir = -1 AND ($4::timestamptz IS NULL OR moved_at >= $4::timestamptz) AND ($5::timestamptz IS NULL OR moved_at <= $5::timestamptz)), 0),
		COALESCE((SELECT SUM(cost) FROM m WHERE dir = 1 AND ($4::timestamptz IS NULL OR moved_at >= $4::timestamptz) AND ($5::timestamptz IS NULL OR moved_at <= $5::timestamptz)), 0),
		COALESCE((SELECT SUM(cost) FROM m WHERE dir = -1 AND ($4::timestamptz IS NULL OR moved_at >= $4::timestamptz) AND ($5::timestamptz IS NULL OR moved_at <= $5::timestamptz)), 0)
	FROM o`

// GetSummary calcula el resumen del periodo directamente en la base.
func (r *MovementRepo) GetSummary(ctx context.Context, q entity.MovementQuery, period entity.DateRange) (*entity.UpstreamSummary, error) {
	var s entity.UpstreamSummary
	err := r.q.QueryRow(ctx, summarySQL, q.CompanyID, q.ProductID, q.WarehouseID, period.From, period.To).Scan(
		&s.OpeningQty, &s.OpeningCost, &s.QtyIn, &s.QtyOut, &s.CostIn, &s.CostOut,
	)
	if err != nil {
		return nil, fmt.Errorf("stock summary: %w", err)
	}
	// Sin límite inferior no se informa apertura: ListMovements ya entrega cada fila de
	// stock_openings y el saldo inicial se deriva de las filas normalizadas, notas incluidas.
	s.HasOpening = period.From != nil
	s.From, s.To = period.From, period.To
	return &s, nil
}
