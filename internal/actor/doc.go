// Package actor содержит исполняющее ядро: клиентов, каналы и акторов.
//
// Включает:
//   - client.go  — контракт клиента (Update, Read, Write) и разделяемый дескриптор Shared
//   - link.go    — ограниченные и неограниченные каналы между выходом и входом
//   - io.go      — Output (мультиплекс, затравка) и Input
//   - actor.go   — актор, соединение портов и цикл collect/update/distribute
//   - task.go    — интерфейс Task, по которому модель проверяет и запускает акторы
//   - sampler.go — сэмплер для перехода между частотами
//   - errors.go  — ошибки каналов, данных и конструирования
//
// Каждый актор исполняется в своей горутине. Блокировка возможна только
// при отправке и получении по каналам; Update никогда не ждёт.
// Завершение одного актора закрывает его каналы и каскадом завершает соседей.
package actor
