// Package config загружает настройки процесса и файлы сценариев.
//
// Переменные окружения: DB_URL, RABBITMQ_URL, DATA_REPO, RUNNER_PORT,
// LOG_LEVEL, LOG_FORMAT. Сценарии хранятся в YAML.
package config
