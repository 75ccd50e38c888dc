package startup

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/record"
)

// Seeder — хранилище, принимающее готовые записи с заданными Id (memory.Store).
type Seeder interface {
	Seed(collection string, recs ...record.Record) []int64
}

// seedFile — формат файла начальных данных:
//
//	collections:
//	  app_User:
//	    - {Id: 1, username: ana, name: Ana}
type seedFile struct {
	Collections map[string][]map[string]any `yaml:"collections"`
}

// LoadSeed читает YAML и раскладывает записи по коллекциям.
func LoadSeed(path string) (map[string][]record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	out := make(map[string][]record.Record, len(sf.Collections))
	for coll, rows := range sf.Collections {
		recs := make([]record.Record, 0, len(rows))
		for _, row := range rows {
			rec := make(record.Record, len(row))
			for k, v := range row {
				rec[k] = seedValue(v)
			}
			recs = append(recs, rec)
		}
		out[coll] = recs
	}
	return out, nil
}

func seedValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		// yaml разбирает ISO-даты без кавычек в time.Time; хранилище держит строки.
		return record.FormatTime(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, record.AsString(p))
		}
		return record.JoinList(parts)
	default:
		return record.Normalize(v)
	}
}

// SeedFromFile загружает файл в хранилище. Пустой path — ничего не делает.
func SeedFromFile(s Seeder, path string) error {
	if path == "" {
		return nil
	}
	colls, err := LoadSeed(path)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(colls))
	for name := range colls {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ids := s.Seed(name, colls[name]...)
		logger.Debugf("seed %s: %d records", name, len(ids))
	}
	logger.Infof("seed data loaded from %s (%d collections)", path, len(names))
	return nil
}
