package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/filters.yaml
var defaultFilters []byte

// Filters — статические списки политики, читаемые при старте запуска.
type Filters struct {
	// KnownBadIDs — идентификаторы, ошибки разбора которых подавляются без логирования
	KnownBadIDs []string `yaml:"known_bad_ids"`
	// ExcludedCommittees — комитеты, исключаемые из уведомлений
	ExcludedCommittees []string `yaml:"excluded_committees"`
}

// LoadFilters читает YAML-файл фильтров. Пустой path — встроенные значения.
func LoadFilters(path string) (*Filters, error) {
	data := defaultFilters
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("чтение файла фильтров: %w", err)
		}
		data = b
	}
	return parseFilters(data)
}

// parseFilters разбирает YAML и нормализует элементы (trim, без пустых).
func parseFilters(data []byte) (*Filters, error) {
	var f Filters
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("разбор YAML фильтров: %w", err)
	}
	f.KnownBadIDs = compact(f.KnownBadIDs)
	f.ExcludedCommittees = compact(f.ExcludedCommittees)
	return &f, nil
}

func compact(items []string) []string {
	result := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}
