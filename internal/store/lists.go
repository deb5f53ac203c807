package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/jsonfilter/internal/metadata"
)

// SaveReferenceList replaces the items of a list, creating the list if it
// does not exist. Duplicate codes fail the whole save.
func (s *Store) SaveReferenceList(ctx context.Context, id metadata.CategoryID, items []metadata.ReferenceListItem) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return saveList(ctx, tx, id, items)
	})
}

// ImportCatalog saves every reference list of a compiled catalog in one
// transaction and returns the number of lists written.
func (s *Store) ImportCatalog(ctx context.Context, catalog *metadata.Catalog) (int, error) {
	ids := catalog.ListIDs()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			items, _, err := catalog.ReferenceListItems(id)
			if err != nil {
				return err
			}
			if err := saveList(ctx, tx, id, items); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func saveList(ctx context.Context, tx *sql.Tx, id metadata.CategoryID, items []metadata.ReferenceListItem) error {
	if id.Name == "" {
		return fmt.Errorf("save reference list: empty name")
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO reference_lists (namespace, name)
		VALUES (?, ?)
		ON CONFLICT(namespace, name) DO NOTHING
	`, id.Namespace, id.Name)
	if err != nil {
		return fmt.Errorf("save reference list %s: %w", id, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM reference_list_items
		WHERE namespace = ? AND name = ?
	`, id.Namespace, id.Name)
	if err != nil {
		return fmt.Errorf("save reference list %s: %w", id, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reference_list_items (namespace, name, code, order_index, text)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save reference list %s: %w", id, err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, id.Namespace, id.Name, item.Code, item.OrderIndex, item.Text); err != nil {
			return fmt.Errorf("save reference list %s item %d: %w", id, item.Code, err)
		}
	}
	return nil
}

// DeleteReferenceList removes a list and its items. It reports whether the
// list existed.
func (s *Store) DeleteReferenceList(ctx context.Context, id metadata.CategoryID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM reference_lists
		WHERE namespace = ? AND name = ?
	`, id.Namespace, id.Name)
	if err != nil {
		return false, fmt.Errorf("delete reference list %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete reference list %s: %w", id, err)
	}
	return n > 0, nil
}

// ListItems returns the items of a list ordered by order_index, then code.
// ok is false when the list does not exist. An existing list without items
// returns an empty slice.
func (s *Store) ListItems(ctx context.Context, id metadata.CategoryID) ([]metadata.ReferenceListItem, bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reference_lists
		WHERE namespace = ? AND name = ?
	`, id.Namespace, id.Name).Scan(&exists)
	if err != nil {
		return nil, false, fmt.Errorf("query reference list %s: %w", id, err)
	}
	if exists == 0 {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, order_index, text
		FROM reference_list_items
		WHERE namespace = ? AND name = ?
		ORDER BY order_index ASC, code ASC
	`, id.Namespace, id.Name)
	if err != nil {
		return nil, false, fmt.Errorf("query reference list items %s: %w", id, err)
	}
	defer rows.Close()

	items := []metadata.ReferenceListItem{}
	for rows.Next() {
		var item metadata.ReferenceListItem
		if err := rows.Scan(&item.Code, &item.OrderIndex, &item.Text); err != nil {
			return nil, false, fmt.Errorf("scan reference list item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate reference list items: %w", err)
	}
	return items, true, nil
}

// ReferenceListItems implements metadata.ReferenceListSource.
func (s *Store) ReferenceListItems(id metadata.CategoryID) ([]metadata.ReferenceListItem, bool, error) {
	return s.ListItems(context.Background(), id)
}

// ListIDs returns the ids of all stored lists ordered by namespace, then name.
func (s *Store) ListIDs(ctx context.Context) ([]metadata.CategoryID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT namespace, name
		FROM reference_lists
		ORDER BY namespace COLLATE BINARY ASC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query reference lists: %w", err)
	}
	defer rows.Close()

	ids := []metadata.CategoryID{}
	for rows.Next() {
		var id metadata.CategoryID
		if err := rows.Scan(&id.Namespace, &id.Name); err != nil {
			return nil, fmt.Errorf("scan reference list: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference lists: %w", err)
	}
	return ids, nil
}

// inTx runs fn in a transaction, committing on success.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
