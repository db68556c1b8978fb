package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	core "github.com/jhoicas/kardex-api/internal/domain/ledger"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

const dateOnlyLayout = "2006-01-02"

// Options configuración del caso de uso.
type Options struct {
	Location       *time.Location // zona para fechas sin offset; nil = UTC
	StrictRefTypes bool           // tipos de referencia desconocidos → ErrUnknownRefType
	PDF            StockCardPDFGenerator
	CSV            StockCardCSVWriter
}

// StockCardUseCase calcula el kardex de un producto sobre el historial del origen.
type StockCardUseCase struct {
	source     repository.MovementSource
	normalizer *core.Normalizer
	loc        *time.Location
	strict     bool
	pdf        StockCardPDFGenerator
	csv        StockCardCSVWriter
	log        zerolog.Logger
}

// NewStockCardUseCase construye el caso de uso.
func NewStockCardUseCase(source repository.MovementSource, opts Options, log zerolog.Logger) *StockCardUseCase {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &StockCardUseCase{
		source:     source,
		normalizer: core.NewNormalizer(loc),
		loc:        loc,
		strict:     opts.StrictRefTypes,
		pdf:        opts.PDF,
		csv:        opts.CSV,
		log:        log,
	}
}

// StockCardInput consulta del kardex.
type StockCardInput struct {
	Query      entity.MovementQuery
	Range      entity.DateRange
	Descending bool
	Reconcile  bool
}

// PreviewInput cálculo sobre movimientos aportados por el cliente. OpeningQty/OpeningCost
// nil se derivan de las aperturas.
type PreviewInput struct {
	Movements   []entity.RawMovement
	OpeningQty  *decimal.Decimal
	OpeningCost *decimal.Decimal
	Range       entity.DateRange
	Descending  bool
}

// GetStockCard lee el historial y el resumen global en paralelo, normaliza, siembra el saldo
// inicial (resumen del origen si trae apertura; si no, las aperturas del historial),
// reproyecta al rango pedido y opcionalmente concilia con el resumen del periodo.
func (uc *StockCardUseCase) GetStockCard(ctx context.Context, in StockCardInput) (*StockCardReport, error) {
	if strings.TrimSpace(in.Query.ProductID) == "" || strings.TrimSpace(in.Query.CompanyID) == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.Range.Valid() {
		return nil, domain.ErrInvalidRange
	}

	var (
		raws    []entity.RawMovement
		globalS *entity.UpstreamSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raws, err = uc.source.ListMovements(gctx, in.Query)
		if err != nil {
			return fmt.Errorf("listar movimientos: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s, err := uc.source.GetSummary(gctx, in.Query, entity.DateRange{})
		if err != nil {
			// sin resumen global se siembra desde las aperturas
			uc.log.Warn().Err(err).Str("product_id", in.Query.ProductID).Msg("resumen global no disponible")
			return nil
		}
		globalS = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := uc.normalizer.NormalizeAll(raws)

	if unknown := core.DefaultedRefTypes(entries); len(unknown) > 0 {
		if uc.strict {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownRefType, joinRefTypes(unknown))
		}
		uc.log.Warn().
			Str("product_id", in.Query.ProductID).
			Strs("ref_types", refTypeStrings(unknown)).
			Msg("tipos de referencia desconocidos tratados como entrada")
	}

	seedQty, seedCost, source := uc.seed(entries, globalS)
	report := buildReport(entries, seedQty, seedCost, source, in.Range, in.Descending)
	report.ProductID = in.Query.ProductID
	report.WarehouseID = in.Query.WarehouseID

	if in.Reconcile {
		up, err := uc.source.GetSummary(ctx, in.Query, in.Range)
		if err != nil {
			return nil, fmt.Errorf("conciliar: %w", err)
		}
		report.Reconciliation = reconcile(report.Summary, up)
		if !report.Reconciliation.Matches() && report.Reconciliation.Available {
			uc.log.Info().
				Str("product_id", in.Query.ProductID).
				Int("diffs", len(report.Reconciliation.Diffs)).
				Msg("kardex difiere del resumen del origen")
		}
	}

	uc.log.Debug().
		Str("product_id", in.Query.ProductID).
		Int("movements", len(entries)).
		Int("rows", len(report.Projection.Rows)).
		Str("seed_source", string(source)).
		Msg("kardex calculado")
	return &report, nil
}

// Preview calcula el kardex sin I/O. Nunca falla: los registros malformados se normalizan
// con valores neutros.
func (uc *StockCardUseCase) Preview(in PreviewInput) StockCardReport {
	entries := uc.normalizer.NormalizeAll(in.Movements)
	seedQty, seedCost := core.SeedFromOpenings(entries)
	source := SeedFromOpenings
	if in.OpeningQty != nil || in.OpeningCost != nil {
		source = SeedFromRequest
		seedQty, seedCost = decimal.Zero, decimal.Zero
		if in.OpeningQty != nil {
			seedQty = *in.OpeningQty
		}
		if in.OpeningCost != nil {
			seedCost = *in.OpeningCost
		}
	}
	return buildReport(entries, seedQty, seedCost, source, in.Range, in.Descending)
}

// seed elige el saldo inicial global. La apertura del origen solo se usa si ninguna fila con
// tipo propio quedó como apertura por su nota: el origen no interpreta notas y esas
// cantidades se perderían.
func (uc *StockCardUseCase) seed(entries []entity.NormalizedEntry, s *entity.UpstreamSummary) (decimal.Decimal, decimal.Decimal, SeedSource) {
	if s != nil && s.HasOpening {
		n := noteOpenings(entries)
		if n == 0 {
			return s.OpeningQty, s.OpeningCost, SeedFromUpstream
		}
		uc.log.Warn().
			Int("note_openings", n).
			Str("upstream_opening_qty", s.OpeningQty.String()).
			Msg("aperturas por nota no reflejadas en el resumen del origen; se siembra desde el historial")
	}
	qty, cost := core.SeedFromOpenings(entries)
	return qty, cost, SeedFromOpenings
}

// noteOpenings cuenta las aperturas cuyo ref_type no es OPENING.
func noteOpenings(entries []entity.NormalizedEntry) int {
	n := 0
	for _, e := range entries {
		if e.IsOpening && e.RefType != entity.RefTypeOpening {
			n++
		}
	}
	return n
}

// ParseRange interpreta los extremos del rango en la zona del caso de uso. Un To de solo
// fecha cubre el día completo. Texto vacío deja el extremo abierto.
func (uc *StockCardUseCase) ParseRange(from, to string) (entity.DateRange, error) {
	var (
		r   entity.DateRange
		err error
	)
	if r.From, err = uc.parseBound(from, false); err != nil {
		return entity.DateRange{}, err
	}
	if r.To, err = uc.parseBound(to, true); err != nil {
		return entity.DateRange{}, err
	}
	if !r.Valid() {
		return r, domain.ErrInvalidRange
	}
	return r, nil
}

func (uc *StockCardUseCase) parseBound(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if d, err := time.ParseInLocation(dateOnlyLayout, s, uc.loc); err == nil {
		if endOfDay {
			d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &d, nil
	}
	t, ok := uc.normalizer.ParseTime(s)
	if !ok {
		return nil, fmt.Errorf("%w: fecha %q", domain.ErrInvalidInput, s)
	}
	return &t, nil
}

// IsDomainError indica si err proviene de un error de dominio conocido.
func IsDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidInput, domain.ErrInvalidRange, domain.ErrNotFound,
		domain.ErrUnknownRefType, domain.ErrUpstream, domain.ErrUnauthorized, domain.ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func refTypeStrings(types []entity.RefType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func joinRefTypes(types []entity.RefType) string {
	return strings.Join(refTypeStrings(types), ", ")
}
