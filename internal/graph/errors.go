package graph

import "errors"

var (
	// ErrCyclic — граф содержит цикл.
	ErrCyclic = errors.New("graph contains a cycle")

	// ErrEmptyGraph — граф без узлов нельзя экспортировать.
	ErrEmptyGraph = errors.New("graph has no nodes")

	// ErrRenderFailed — внешний рендерер завершился с ошибкой.
	ErrRenderFailed = errors.New("graph render failed")
)
