package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"journal/models"
)

const dateLayout = "2006-01-02"

var entryColumns = []string{
	"id", "user_id", "title", "slug", "entry_date",
	"time_spent", "what_you_learned", "to_remember", "created_at",
}

// CreateEntry inserts an entry and, when tag is non-empty, a tag row linked
// to it, in a single transaction. The tag is linked through the id returned
// by the insert itself, never through a "latest row" lookup, so concurrent
// writers cannot cross-link tags. A slug collision comes back as
// ErrSlugExists with nothing persisted.
func (s *Store) CreateEntry(ctx context.Context, e models.Entry, tag string) (models.Entry, error) {
	query, args, err := sq.Insert("entries").
		Columns("user_id", "title", "slug", "entry_date", "time_spent", "what_you_learned", "to_remember").
		Values(e.UserID, e.Title, e.Slug, e.EntryDate.Format(dateLayout), e.TimeSpent, e.WhatYouLearned, e.ToRemember).
		ToSql()
	if err != nil {
		return models.Entry{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Entry{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if uniqueViolation(err) {
			return models.Entry{}, ErrSlugExists
		}
		return models.Entry{}, fmt.Errorf("inserting entry: %w", err)
	}

	e.ID, err = res.LastInsertId()
	if err != nil {
		return models.Entry{}, err
	}

	if tag != "" {
		query, args, err := sq.Insert("tags").
			Columns("entry_id", "tag").
			Values(e.ID, tag).
			ToSql()
		if err != nil {
			return models.Entry{}, err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return models.Entry{}, fmt.Errorf("inserting tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

// Entries returns all entries, newest first.
func (s *Store) Entries(ctx context.Context) ([]models.Entry, error) {
	builder := sq.Select(entryColumns...).
		From("entries").
		OrderBy("entry_date DESC", "id DESC")
	return s.queryEntries(ctx, builder)
}

// EntriesByTag returns all entries carrying the exact tag text, newest
// first. An empty result is not an error here; the handler decides whether
// that is a 404.
func (s *Store) EntriesByTag(ctx context.Context, tag string) ([]models.Entry, error) {
	cols := make([]string, len(entryColumns))
	for i, c := range entryColumns {
		cols[i] = "entries." + c
	}
	builder := sq.Select(cols...).
		From("entries").
		Join("tags ON tags.entry_id = entries.id").
		Where(sq.Eq{"tags.tag": tag}).
		OrderBy("entries.entry_date DESC", "entries.id DESC")
	return s.queryEntries(ctx, builder)
}

func (s *Store) queryEntries(ctx context.Context, builder sq.SelectBuilder) ([]models.Entry, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Slug, &e.EntryDate,
			&e.TimeSpent, &e.WhatYouLearned, &e.ToRemember, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) EntryBySlug(ctx context.Context, slug string) (models.Entry, error) {
	query, args, err := sq.Select(entryColumns...).
		From("entries").
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return models.Entry{}, err
	}

	var e models.Entry
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&e.ID, &e.UserID, &e.Title, &e.Slug, &e.EntryDate,
			&e.TimeSpent, &e.WhatYouLearned, &e.ToRemember, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, ErrNotFound
	}
	if err != nil {
		return models.Entry{}, fmt.Errorf("querying entry: %w", err)
	}
	return e, nil
}

// TagsForEntry returns the tags of one entry sorted by tag text.
func (s *Store) TagsForEntry(ctx context.Context, entryID int64) ([]models.Tag, error) {
	query, args, err := sq.Select("id", "entry_id", "tag").
		From("tags").
		Where(sq.Eq{"entry_id": entryID}).
		OrderBy("tag").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.EntryID, &t.Tag); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// UpdateEntry replaces the editable fields of the entry identified by slug.
// The slug itself is immutable across edits.
func (s *Store) UpdateEntry(ctx context.Context, slug string, e models.Entry) error {
	query, args, err := sq.Update("entries").
		Set("title", e.Title).
		Set("entry_date", e.EntryDate.Format(dateLayout)).
		Set("time_spent", e.TimeSpent).
		Set("what_you_learned", e.WhatYouLearned).
		Set("to_remember", e.ToRemember).
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// DeleteEntry removes the entry identified by slug together with its tags.
// The schema also declares ON DELETE CASCADE; the explicit delete keeps the
// invariant even when foreign key enforcement is off.
func (s *Store) DeleteEntry(ctx context.Context, slug string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tags WHERE entry_id IN (SELECT id FROM entries WHERE slug = ?)", slug); err != nil {
		return fmt.Errorf("deleting tags: %w", err)
	}

	query, args, err := sq.Delete("entries").Where(sq.Eq{"slug": slug}).ToSql()
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}
