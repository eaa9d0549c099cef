// Package clients содержит встроенные клиенты акторов.
//
// Источники: Signals (постоянный, синусоида, рампа и их сумма) и Timer.
// Преобразователи: Gain, Sum, Integrator.
// Приёмник телеметрии: Logging.
//
// Registry сопоставляет виду клиента из файла сценария фабрику:
//
//	r := clients.DefaultRegistry()
//	c, err := r.New("gain", "amp", clients.Params{"input": "U", "output": "Y", "gain": 2.0})
package clients
