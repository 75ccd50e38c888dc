// Package pgstore — хранилище записей в Postgres: одна таблица records (collection, id, data jsonb).
// Используется в self-hosted режиме (STORE_DRIVER=postgres и -dev с встроенным Postgres).
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/record"
	"github.com/miamiwave/migrations"
)

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

// Migrate применяет встроенные миграции по порядку имён. Все миграции идемпотентны.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := fs.Glob(migrations.Files, "*.sql")
	if err != nil {
		return fmt.Errorf("pgstore.Migrate: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := migrations.Files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("pgstore.Migrate read %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("pgstore.Migrate run %s: %w", name, err)
		}
	}
	logger.Infof("migrations applied: %d", len(names))
	return nil
}

func (s *Store) List(ctx context.Context, collection string, q record.Query) ([]record.Record, error) {
	defer logger.DeferLogDuration("pg.List "+collection, time.Now())()
	sql, args := buildSelect(collection, q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, record.TransportError("list", collection, "", err)
	}
	defer rows.Close()

	out := make([]record.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, record.TransportError("list", collection, "", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, record.TransportError("list", collection, "", err)
	}
	if err := s.resolve(ctx, out, q.Fields); err != nil {
		return nil, record.TransportError("list", collection, "", err)
	}
	for i, rec := range out {
		out[i] = project(rec, q.Fields)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, collection string, id int64, fields []record.Field) (record.Record, error) {
	defer logger.DeferLogDuration("pg.GetByID "+collection, time.Now())()
	row := s.pool.QueryRow(ctx, `SELECT id, data FROM records WHERE collection = $1 AND id = $2`, collection, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, record.NotFound(collection, id)
	}
	if err != nil {
		return nil, record.TransportError("get", collection, "", err)
	}
	if err := s.resolve(ctx, []record.Record{rec}, fields); err != nil {
		return nil, record.TransportError("get", collection, "", err)
	}
	return project(rec, fields), nil
}

// Write выполняет записи пакета независимо: ошибка одной записи не откатывает остальные.
func (s *Store) Write(ctx context.Context, collection string, kind record.WriteKind, recs []record.Record) ([]record.Outcome, error) {
	defer logger.DeferLogDuration("pg.Write "+kind.String()+" "+collection, time.Now())()
	out := make([]record.Outcome, 0, len(recs))
	for _, r := range recs {
		var (
			rec record.Record
			err error
		)
		switch kind {
		case record.Create:
			rec, err = s.insert(ctx, collection, r)
		case record.Update:
			rec, err = s.update(ctx, collection, r)
		case record.Delete:
			rec, err = s.delete(ctx, collection, r.ID())
		default:
			err = fmt.Errorf("unsupported write kind %d", kind)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, record.TransportError(kind.String(), collection, "", ctxErr)
		}
		if err != nil {
			out = append(out, failed(err))
			continue
		}
		out = append(out, record.Outcome{Success: true, Record: rec})
	}
	return out, nil
}

func failed(err error) record.Outcome {
	if errors.Is(err, pgx.ErrNoRows) {
		return record.Outcome{Message: "record not found", Errors: []record.FieldError{{FieldLabel: record.FieldID, Message: "no such record"}}}
	}
	return record.Outcome{Message: err.Error()}
}

func (s *Store) insert(ctx context.Context, collection string, r record.Record) (record.Record, error) {
	data := payload(r)
	if !data.Has(record.FieldCreatedOn) {
		data[record.FieldCreatedOn] = record.FormatTime(s.now())
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO records (collection, data) VALUES ($1, $2::jsonb) RETURNING id, data`,
		collection, map[string]any(data))
	return scanRecord(row)
}

func (s *Store) update(ctx context.Context, collection string, r record.Record) (record.Record, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE records SET data = data || $3::jsonb WHERE collection = $1 AND id = $2 RETURNING id, data`,
		collection, r.ID(), map[string]any(payload(r)))
	return scanRecord(row)
}

func (s *Store) delete(ctx context.Context, collection string, id int64) (record.Record, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return record.Record{record.FieldID: id}, nil
}

// payload — данные записи без Id (id хранится в отдельной колонке).
func payload(r record.Record) record.Record {
	data := r.Clone()
	if data == nil {
		data = record.Record{}
	}
	delete(data, record.FieldID)
	return data
}

func scanRecord(row pgx.Row) (record.Record, error) {
	var (
		id   int64
		data map[string]any
	)
	if err := row.Scan(&id, &data); err != nil {
		return nil, err
	}
	rec := record.Record(data)
	if rec == nil {
		rec = record.Record{}
	}
	rec[record.FieldID] = id
	return rec, nil
}

// resolve подставляет в ссылочные поля {"Id": n, RefField: v} одним запросом на каждую ссылку.
func (s *Store) resolve(ctx context.Context, recs []record.Record, fields []record.Field) error {
	for _, f := range fields {
		if f.RefCollection == "" {
			continue
		}
		ids := make([]int64, 0, len(recs))
		for _, rec := range recs {
			if rec.Has(f.Name) {
				ids = append(ids, record.AsInt(rec[f.Name]))
			}
		}
		if len(ids) == 0 {
			continue
		}
		values, err := s.lookup(ctx, f.RefCollection, f.RefField, ids)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", f.Name, err)
		}
		for _, rec := range recs {
			if !rec.Has(f.Name) {
				continue
			}
			refID := record.AsInt(rec[f.Name])
			ref := record.Record{record.FieldID: refID}
			if v, ok := values[refID]; ok {
				ref[f.RefField] = v
			}
			rec[f.Name] = ref
		}
	}
	return nil
}

func (s *Store) lookup(ctx context.Context, collection, field string, ids []int64) (map[int64]any, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, data->$2::text FROM records WHERE collection = $1 AND id = ANY($3)`,
		collection, field, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]any, len(ids))
	for rows.Next() {
		var (
			id int64
			v  any
		)
		if err := rows.Scan(&id, &v); err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, rows.Err()
}

func project(rec record.Record, fields []record.Field) record.Record {
	if len(fields) == 0 {
		return rec
	}
	out := record.Record{record.FieldID: rec[record.FieldID]}
	for _, f := range fields {
		if v, ok := rec[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}
