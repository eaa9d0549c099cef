// Package system реализует переиспользуемые подграфы акторов.
//
// System собирает внутренние акторы один раз (Build) и объявляет
// внешние порты через акторы-шлюзы. Модель разворачивает систему
// в плоский список акторов, см. model.Join и (*model.Model).Add.
package system
