// Package cli реализует инструмент командной строки Actors.
//
// # Обзор
//
// Команды делятся на две группы.
//
// Локальные команды работают с файлом сценария (.yaml) или с текстом
// сети напрямую, без сервера:
//   - compile: акторы с выведенными частотами и список проводов
//   - check: сборка модели до READY
//   - graph: экспорт диаграммы в DOT, опционально рендер SVG
//   - run: выполнение сценария и вывод итогов акторов и отсчётов
//
// Удалённые команды обращаются к HTTP API раннера:
//   - scenarios: list, graph
//   - runs: list, start, show
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для API раннера. Разбирает конверты DataResponse,
// ListResponse и ErrorResponse. Не импортирует internal/api.
//
//	client := cli.NewClient("http://localhost:8084")
//	runs, err := client.ListRuns(cli.ListRunsOpts{Scenario: "mount"})
//
// ## Output
//
// Форматирование вывода: таблицы (text/tabwriter) по умолчанию,
// JSON с флагом --json. Данные идут в stdout, сообщения в stderr:
//
//	actors compile net.flow --json | jq '.actors[].name'
//
// ## Commands
//
// Каждая команда создаётся фабричной функцией (NewRunCmd, NewRunsCmd
// и т.д.), принимающей outputFn, clientFn или loggerFn. Это замыкания,
// которые создают зависимости после парсинга PersistentFlags.
package cli
