// Package network компилирует текстовое описание сети акторов в модель.
//
// Текст состоит из атрибутов модели и потоков:
//
//	#[model(name = mount, state = completed, flowchart = "mount")]
//	1: &src("Source")[U]$ -> ctrl[Y] -> sink
//	10: sink[Z]~
//
// Число перед двоеточием задаёт частоту потока. Пара client[Output]
// соединяет выход клиента со следующим клиентом цепочки. Флаги выхода:
// ! (bootstrap), $ (запись в logging_<rate>), .. (неограниченный канал),
// ~ (осциллограф scope_<client>_<output>).
//
// Компиляция (Compile) детерминирована и не создаёт акторов:
// результат Program содержит объявления акторов с разрешёнными
// частотами, соединения и объявление модели. Build создаёт акторы
// по привязкам окружения Env и доводит модель до состояния из атрибута
// state.
package network
