package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrProductoNoEncontrado  = errors.New("producto no encontrado")
	ErrDocumentoNoEncontrado = errors.New("documento no encontrado")
	// ErrPDFNoDisponible means the render job has not finished (or failed).
	ErrPDFNoDisponible = errors.New("el PDF del documento todavía no está disponible")
	// ErrStockNegativo aborts a ledger transaction with no partial effect.
	ErrStockNegativo = errors.New("el stock resultante no puede ser negativo")
)

// ValidacionError carries per-field messages for input rejected before any
// transaction is attempted.
type ValidacionError struct {
	Fields map[string]string
}

func (e *ValidacionError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validación: " + strings.Join(parts, "; ")
}

func nuevaValidacion(campo, msg string) *ValidacionError {
	return &ValidacionError{Fields: map[string]string{campo: msg}}
}
