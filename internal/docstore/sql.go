package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/playgraph/internal/shared"
)

// queryer is the subset of [sql.DB] and [sql.Tx] the store needs.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore keeps every collection in a single documents table (see the embedded migrations in shared).
//
// Each document row stores its JSON body plus doc_key, the value of the collection's key field, which a
// UNIQUE(collection, doc_key) constraint keeps unique. Collections without a key field use the row ID.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	keys    Keys
}

// sqlTx is the [Store] handed to [SQLStore.WithTx] callbacks.
type sqlTx struct {
	ops sqlOps
}

// sqlOps implements the store operations against a [queryer].
type sqlOps struct {
	q       queryer
	dialect Dialect
	keys    Keys
}

var (
	_ Store      = (*SQLStore)(nil)
	_ Transactor = (*SQLStore)(nil)
	_ Transactor = (*sqlTx)(nil)
)

// NewSQLStore creates a new [SQLStore] over db. The documents table must already exist.
func NewSQLStore(db *sql.DB, dialect Dialect, keys Keys) *SQLStore {
	if keys == nil {
		keys = Keys{}
	}
	return &SQLStore{db: db, dialect: dialect, keys: keys}
}

func (s *SQLStore) ops(q queryer) sqlOps {
	return sqlOps{q: q, dialect: s.dialect, keys: s.keys}
}

func (s *SQLStore) FetchAll(ctx context.Context, collection, keyField string) (map[string]Document, error) {
	return s.ops(s.db).fetchAll(ctx, collection, keyField)
}

func (s *SQLStore) FetchOne(ctx context.Context, collection string, filters Filter) (Document, error) {
	doc, _, err := s.ops(s.db).fetchOne(ctx, collection, filters)
	return doc, err
}

func (s *SQLStore) Insert(ctx context.Context, collection string, doc Document) error {
	return s.ops(s.db).insert(ctx, collection, doc)
}

// Update reads, modifies and writes the document inside its own transaction.
func (s *SQLStore) Update(ctx context.Context, collection string, filters Filter, update Update) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.Update(ctx, collection, filters, update)
	})
}

func (s *SQLStore) DeleteOne(ctx context.Context, collection string, filters Filter) error {
	return s.ops(s.db).deleteOne(ctx, collection, filters)
}

func (s *SQLStore) DeleteMany(ctx context.Context, collection string) error {
	return s.ops(s.db).deleteMany(ctx, collection)
}

// WithTx runs fn inside a database transaction, committing when fn returns nil.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{ops: s.ops(tx)}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *sqlTx) FetchAll(ctx context.Context, collection, keyField string) (map[string]Document, error) {
	return t.ops.fetchAll(ctx, collection, keyField)
}

func (t *sqlTx) FetchOne(ctx context.Context, collection string, filters Filter) (Document, error) {
	doc, _, err := t.ops.fetchOne(ctx, collection, filters)
	return doc, err
}

func (t *sqlTx) Insert(ctx context.Context, collection string, doc Document) error {
	return t.ops.insert(ctx, collection, doc)
}

func (t *sqlTx) Update(ctx context.Context, collection string, filters Filter, update Update) error {
	return t.ops.update(ctx, collection, filters, update)
}

func (t *sqlTx) DeleteOne(ctx context.Context, collection string, filters Filter) error {
	return t.ops.deleteOne(ctx, collection, filters)
}

func (t *sqlTx) DeleteMany(ctx context.Context, collection string) error {
	return t.ops.deleteMany(ctx, collection)
}

// WithTx on an open transaction joins it.
func (t *sqlTx) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (o sqlOps) fetchAll(ctx context.Context, collection, keyField string) (map[string]Document, error) {
	query := o.dialect.Rebind(`SELECT body FROM documents WHERE collection = ? ORDER BY created_at, id`)

	rows, err := o.q.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	out := map[string]Document{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		doc, err := decodeDocument([]byte(body))
		if err != nil {
			return nil, err
		}

		key, ok := keyOf(doc, keyField)
		if !ok {
			continue
		}
		if _, seen := out[key]; !seen {
			out[key] = doc
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

// fetchOne returns the first matching document and its row ID.
func (o sqlOps) fetchOne(ctx context.Context, collection string, filters Filter) (Document, string, error) {
	where, args, err := o.where(collection, filters)
	if err != nil {
		return nil, "", err
	}

	query := o.dialect.Rebind(`SELECT id, body FROM documents WHERE ` + where + ` ORDER BY created_at, id LIMIT 1`)

	var id, body string
	err = o.q.QueryRowContext(ctx, query, args...).Scan(&id, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNoDocument
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query %s: %w", collection, err)
	}

	doc, err := decodeDocument([]byte(body))
	if err != nil {
		return nil, "", err
	}
	return doc, id, nil
}

func (o sqlOps) insert(ctx context.Context, collection string, doc Document) error {
	cp, err := Normalize(doc)
	if err != nil {
		return err
	}

	id := shared.GenerateID()
	key := id
	if keyField, ok := o.keys[collection]; ok {
		k, ok := keyOf(cp, keyField)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrMissingKey, collection, keyField)
		}
		key = k
	}

	body, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	now := time.Now().UTC()
	query := o.dialect.Rebind(`INSERT INTO documents (id, collection, doc_key, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)

	if _, err := o.q.ExecContext(ctx, query, id, collection, key, string(body), now, now); err != nil {
		if o.dialect.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s %q", ErrDuplicateKey, collection, key)
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

func (o sqlOps) update(ctx context.Context, collection string, filters Filter, update Update) error {
	if touchesKey(update, o.keys[collection]) {
		return fmt.Errorf("%w: key field %q is immutable", ErrInvalidUpdate, o.keys[collection])
	}

	doc, id, err := o.fetchOne(ctx, collection, filters)
	if err != nil {
		return err
	}

	next, err := Apply(doc, update)
	if err != nil {
		return err
	}

	body, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := o.dialect.Rebind(`UPDATE documents SET body = ?, updated_at = ? WHERE id = ?`)

	result, err := o.q.ExecContext(ctx, query, string(body), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNoDocument
	}

	return nil
}

func (o sqlOps) deleteOne(ctx context.Context, collection string, filters Filter) error {
	where, args, err := o.where(collection, filters)
	if err != nil {
		return err
	}

	query := o.dialect.Rebind(`DELETE FROM documents WHERE id IN (SELECT id FROM documents WHERE ` + where + ` ORDER BY created_at, id LIMIT 1)`)

	result, err := o.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNoDocument
	}

	return nil
}

func (o sqlOps) deleteMany(ctx context.Context, collection string) error {
	query := o.dialect.Rebind(`DELETE FROM documents WHERE collection = ?`)

	if _, err := o.q.ExecContext(ctx, query, collection); err != nil {
		return fmt.Errorf("failed to delete %s: %w", collection, err)
	}
	return nil
}

// where builds the predicate for a filter. The collection's key field is matched on doc_key.
func (o sqlOps) where(collection string, filters Filter) (string, []any, error) {
	if err := validateFilter(filters); err != nil {
		return "", nil, err
	}

	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	clauses := []string{"collection = ?"}
	args := []any{collection}
	keyField := o.keys[collection]

	for _, f := range fields {
		value := filters[f]
		if f == keyField {
			clauses = append(clauses, "doc_key = ?")
			args = append(args, textValue(value))
			continue
		}
		clause, clauseArgs := o.dialect.FieldEquals(f, value)
		clauses = append(clauses, clause)
		args = append(args, clauseArgs...)
	}

	return strings.Join(clauses, " AND "), args, nil
}
