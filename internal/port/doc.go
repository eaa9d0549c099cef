// Package port описывает логические каналы данных между акторами.
//
// Включает:
//   - port.go — идентификаторы портов (ID) и типизированные порты (Port[T])
//   - data.go — конверт с данными (Data), общий для всех получателей
//   - hash.go — контентные хэши, по которым Model проверяет связность
//
// Порт — это константа уровня определения: имя плюс хэш имени.
// Два порта с одинаковым именем считаются одним и тем же каналом.
package port
