package clients

import (
	"errors"
	"fmt"
)

// Ошибки клиентов.
var (
	// ErrKindNotFound — вид клиента не найден в реестре.
	ErrKindNotFound = errors.New("client kind not found")

	// ErrInvalidParams — невалидные параметры клиента.
	ErrInvalidParams = errors.New("invalid client params")
)

// Params — параметры клиента из файла сценария.
type Params map[string]any

// String извлекает строковое значение.
func (p Params) String(key, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int извлекает целое значение.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

// Float извлекает число с плавающей точкой.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return def
}

// Strings извлекает список строк.
func (p Params) Strings(key string) []string {
	v, ok := p[key]
	if !ok {
		return nil
	}
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// List извлекает список вложенных параметров.
func (p Params) List(key string) []Params {
	v, ok := p[key]
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Params, 0, len(items))
	for _, item := range items {
		switch m := item.(type) {
		case map[string]any:
			out = append(out, Params(m))
		case Params:
			out = append(out, m)
		}
	}
	return out
}

// Require проверяет наличие ключей.
func (p Params) Require(keys ...string) error {
	for _, k := range keys {
		if _, ok := p[k]; !ok {
			return fmt.Errorf("%w: missing %q", ErrInvalidParams, k)
		}
	}
	return nil
}
