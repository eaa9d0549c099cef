package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ошибки сценария.
var (
	// ErrInvalidScenario — сценарий не прошёл проверку.
	ErrInvalidScenario = errors.New("invalid scenario")

	// ErrScenarioNotFound — файл сценария не найден.
	ErrScenarioNotFound = errors.New("scenario file not found")
)

// Scenario — файл сценария: текст сети и привязки клиентов.
//
//	name: mount
//	schedule: "*/5 * * * *"
//	script: |
//	  #[model(state = completed)]
//	  1: src[U] -> amp[Y]$
//	clients:
//	  - name: src
//	    kind: signals
//	    params: {output: U, steps: 100, value: 1.0}
type Scenario struct {
	Name     string       `yaml:"name" json:"name"`
	Schedule string       `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	Script   string       `yaml:"script" json:"script"`
	Clients  []ClientSpec `yaml:"clients" json:"clients"`
}

// ClientSpec — привязка имени клиента к встроенному виду.
type ClientSpec struct {
	Name   string         `yaml:"name" json:"name"`
	Kind   string         `yaml:"kind" json:"kind"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// LoadScenario читает сценарий из файла YAML.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, path)
		}
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// LoadScenarios читает все файлы *.yaml и *.yml каталога dir
// в порядке имён файлов. Имена сценариев должны быть уникальны.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	seen := make(map[string]string, len(paths))
	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%w: scenario %s defined in %s and %s", ErrInvalidScenario, s.Name, prev, path)
		}
		seen[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// ParseScenario разбирает и проверяет сценарий.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate проверяет обязательные поля и уникальность имён клиентов.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if strings.TrimSpace(s.Script) == "" {
		return fmt.Errorf("%w: script is required", ErrInvalidScenario)
	}

	seen := make(map[string]bool, len(s.Clients))
	for i, c := range s.Clients {
		if c.Name == "" {
			return fmt.Errorf("%w: clients[%d]: name is required", ErrInvalidScenario, i)
		}
		if c.Kind == "" {
			return fmt.Errorf("%w: client %s: kind is required", ErrInvalidScenario, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate client %s", ErrInvalidScenario, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
