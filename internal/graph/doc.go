// Package graph описывает модель как список узлов и рёбер.
//
// Включает:
//   - graph.go    — узлы, рёбра (по совпадению хэшей), анализ циклов
//   - dot.go      — текст диаграммы на языке Graphviz dot
//   - exporter.go — интерфейс Exporter и DotExporter (каталог DATA_REPO)
//
// Рендеринг самой картинки выполняется внешней программой и в ядро не входит.
package graph
