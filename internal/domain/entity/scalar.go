package entity

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Scalar valor escalar JSON tolerante: acepta string, número, bool o null.
// Objetos y arrays quedan como no definidos; el decode nunca falla.
type Scalar struct {
	Value string
	Set   bool
}

// NewScalar construye un Scalar definido con el texto dado.
func NewScalar(s string) Scalar {
	return Scalar{Value: s, Set: true}
}

// UnmarshalJSON implementa json.Unmarshaler.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	*s = Scalar{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case 'n', '{', '[':
		return nil
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		*s = Scalar{Value: str, Set: true}
	default:
		// números y booleanos se guardan tal cual (sin perder precisión)
		*s = Scalar{Value: string(data), Set: true}
	}
	return nil
}

// MarshalJSON emite el valor como string, o null si no está definido.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if !s.Set {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// String devuelve el valor recortado.
func (s Scalar) String() string {
	return strings.TrimSpace(s.Value)
}

// Blank indica si el valor no está definido o está vacío.
func (s Scalar) Blank() bool {
	return !s.Set || strings.TrimSpace(s.Value) == ""
}

// First devuelve el primer Scalar no vacío de la lista.
func First(values ...Scalar) Scalar {
	for _, v := range values {
		if !v.Blank() {
			return v
		}
	}
	return Scalar{}
}
