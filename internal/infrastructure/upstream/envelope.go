package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// listPage una página decodificada del listado de movimientos.
// LastPage es 0 cuando la respuesta no trae metadatos de paginación.
type listPage struct {
	Items    []entity.RawMovement
	LastPage int
}

// pageMeta metadatos de paginación; los números pueden llegar como texto.
type pageMeta struct {
	LastPage   entity.Scalar `json:"last_page"`
	TotalPages entity.Scalar `json:"total_pages"`
	Total      entity.Scalar `json:"total"`
	PerPage    entity.Scalar `json:"per_page"`
}

func (m pageMeta) lastPage() int {
	if n := atoi(m.LastPage); n > 0 {
		return n
	}
	if n := atoi(m.TotalPages); n > 0 {
		return n
	}
	total, perPage := atoi(m.Total), atoi(m.PerPage)
	if total > 0 && perPage > 0 {
		return (total + perPage - 1) / perPage
	}
	return 0
}

func (m pageMeta) empty() bool {
	return m.LastPage.Blank() && m.TotalPages.Blank() && m.Total.Blank() && m.PerPage.Blank()
}

func atoi(s entity.Scalar) int {
	n, err := strconv.Atoi(s.String())
	if err != nil {
		f, ferr := strconv.ParseFloat(s.String(), 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

// DecodeMovementList lee un listado de movimientos en cualquiera de los sobres que
// devuelve la API: arreglo plano, {data:[...]}, {items:[...]}, {results:[...]} o
// {data:{data:[...]}}. También lo usa el CLI para archivos exportados.
func DecodeMovementList(r io.Reader) ([]entity.RawMovement, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("upstream: leer listado: %w", err)
	}
	page, err := decodePage(body)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func decodePage(body []byte) (listPage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return listPage{Items: []entity.RawMovement{}}, nil
	}
	if body[0] == '[' {
		items, err := decodeItems(body)
		return listPage{Items: items}, err
	}
	if body[0] != '{' {
		return listPage{}, fmt.Errorf("upstream: listado con formato desconocido")
	}
	return decodeEnvelope(body, 0)
}

// decodeEnvelope busca la lista dentro del objeto; depth limita el anidamiento data.data.
func decodeEnvelope(body []byte, depth int) (listPage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return listPage{}, fmt.Errorf("upstream: decodificar sobre: %w", err)
	}

	var meta pageMeta
	if raw, ok := obj["meta"]; ok {
		_ = json.Unmarshal(raw, &meta)
	}
	if meta.empty() {
		_ = json.Unmarshal(body, &meta)
	}

	for _, key := range []string{"data", "items", "results"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		switch raw[0] {
		case '[':
			items, err := decodeItems(raw)
			return listPage{Items: items, LastPage: meta.lastPage()}, err
		case '{':
			if depth > 0 {
				continue
			}
			inner, err := decodeEnvelope(raw, depth+1)
			if err != nil {
				return listPage{}, err
			}
			if inner.LastPage == 0 {
				inner.LastPage = meta.lastPage()
			}
			return inner, nil
		}
	}
	return listPage{}, fmt.Errorf("upstream: el sobre no contiene una lista de movimientos")
}

// decodeItems decodifica cada elemento por separado; los que no son objeto se descartan.
func decodeItems(raw []byte) ([]entity.RawMovement, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("upstream: decodificar lista: %w", err)
	}
	items := make([]entity.RawMovement, 0, len(elems))
	for _, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) == 0 || e[0] != '{' {
			continue
		}
		var m entity.RawMovement
		if err := json.Unmarshal(e, &m); err != nil {
			continue
		}
		items = append(items, m)
	}
	return items, nil
}

// summaryBody respuesta del endpoint de resumen.
type summaryBody struct {
	OpeningQty  entity.Scalar `json:"opening_qty"`
	OpeningCost entity.Scalar `json:"opening_cost"`
	QtyIn       entity.Scalar `json:"qty_in"`
	QtyOut      entity.Scalar `json:"qty_out"`
	CostIn      entity.Scalar `json:"cost_in"`
	CostOut     entity.Scalar `json:"cost_out"`
	Period      *struct {
		From entity.Scalar `json:"from"`
		To   entity.Scalar `json:"to"`
	} `json:"period"`
}

// decodeSummary acepta el resumen plano o envuelto en {data:{...}}.
func decodeSummary(body []byte) (summaryBody, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	var out summaryBody
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return out, fmt.Errorf("upstream: decodificar resumen: %w", err)
	}
	if d := bytes.TrimSpace(wrapper.Data); len(d) > 0 && d[0] == '{' {
		body = d
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("upstream: decodificar resumen: %w", err)
	}
	return out, nil
}
