// Package scope транслирует значения выходов акторов по websocket.
//
// Tap — клиент-приёмник, которого сеть создаёт для флага ~.
// Он публикует каждое значение в Hub, а Hub раздаёт кадры JSON
// подключённым подписчикам:
//
//	ws://host/scope?scope=scope_mount_Y
package scope
