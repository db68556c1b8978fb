package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrInvalidInput   = errors.New("entrada inválida")
	ErrInvalidRange   = errors.New("rango de fechas inválido")
	ErrUnauthorized   = errors.New("no autorizado")
	ErrForbidden      = errors.New("acceso denegado")
	ErrUnknownRefType = errors.New("tipo de referencia no reconocido")
	ErrUpstream       = errors.New("error en la API de inventario")
)
