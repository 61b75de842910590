// Package store holds the tenant-scoped query helpers shared by every
// repository. Every helper takes the caller's user id explicitly and a row
// owned by someone else is never returned.
package store

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"gaughar-backend/internal/apperr"
)

// Owned restricts a query to rows belonging to userID.
func Owned(db *gorm.DB, userID string) *gorm.DB {
	return db.Where("user_id = ?", userID)
}

// Get loads the row with the given id owned by userID into dest. A row owned
// by another user is reported as apperr.NotFound.
func Get[T any](ctx context.Context, db *gorm.DB, userID string, id uint, dest *T) error {
	err := Owned(db.WithContext(ctx), userID).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Annotatef(apperr.NotFound, "id %d", id)
	}
	return errors.Trace(err)
}

// Owner returns the user id that owns the row, or apperr.NotFound.
func Owner(ctx context.Context, db *gorm.DB, model any, id uint) (string, error) {
	var owners []string
	err := db.WithContext(ctx).Model(model).Where("id = ?", id).Limit(1).Pluck("user_id", &owners).Error
	if err != nil {
		return "", errors.Trace(err)
	}
	if len(owners) == 0 {
		return "", errors.Annotatef(apperr.NotFound, "id %d", id)
	}
	return owners[0], nil
}

// CheckWrite enforces the update preconditions shared by every entity: the
// path and body ids agree, the body does not claim another owner, and the
// stored row belongs to userID. A missing row is apperr.NotFound; any
// mismatch is apperr.Forbidden.
func CheckWrite(ctx context.Context, db *gorm.DB, model any, userID string, pathID, bodyID uint, bodyUserID string) error {
	if bodyID != 0 && bodyID != pathID {
		return errors.Annotatef(apperr.Forbidden, "path id %d does not match body id %d", pathID, bodyID)
	}
	if bodyUserID != "" && bodyUserID != userID {
		return errors.Annotate(apperr.Forbidden, "owner mismatch")
	}
	owner, err := Owner(ctx, db, model, pathID)
	if err != nil {
		return errors.Trace(err)
	}
	if owner != userID {
		return errors.Annotatef(apperr.Forbidden, "id %d", pathID)
	}
	return nil
}

// UpdateVersioned writes values to the row identified by id and owned by
// userID, provided its version still equals version, and bumps the version.
// It returns the new version.
//
// A zero version means the caller did not read the row first: the current
// version is loaded and the write is retried once if the row moves in
// between. A stale non-zero version is apperr.Conflict.
func UpdateVersioned(ctx context.Context, db *gorm.DB, model any, userID string, id uint, version uint, values map[string]any) (uint, error) {
	attempts := 1
	if version == 0 {
		attempts = 2
	}
	for i := 0; i < attempts; i++ {
		expected := version
		if expected == 0 {
			var current []uint
			err := Owned(db.WithContext(ctx).Model(model), userID).
				Where("id = ?", id).Limit(1).Pluck("version", &current).Error
			if err != nil {
				return 0, errors.Trace(err)
			}
			if len(current) == 0 {
				return 0, errors.Annotatef(apperr.NotFound, "id %d", id)
			}
			expected = current[0]
		}

		updates := make(map[string]any, len(values)+1)
		for k, v := range values {
			updates[k] = v
		}
		updates["version"] = gorm.Expr("version + 1")

		res := Owned(db.WithContext(ctx).Model(model), userID).
			Where("id = ? AND version = ?", id, expected).
			Updates(updates)
		if res.Error != nil {
			return 0, errors.Trace(res.Error)
		}
		if res.RowsAffected == 1 {
			return expected + 1, nil
		}
	}

	// Distinguish a vanished row from one that moved on.
	if _, err := Owner(ctx, db, model, id); err != nil {
		return 0, errors.Trace(err)
	}
	return 0, errors.Annotatef(apperr.Conflict, "id %d was modified concurrently, reload and retry", id)
}

// DeleteOwned removes the row with the given id owned by userID.
func DeleteOwned(ctx context.Context, db *gorm.DB, model any, userID string, id uint) error {
	res := Owned(db.WithContext(ctx), userID).Delete(model, id)
	if res.Error != nil {
		if IsForeignKey(res.Error) {
			return errors.Annotatef(apperr.DependencyRestricted, "id %d", id)
		}
		return errors.Trace(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.Annotatef(apperr.NotFound, "id %d", id)
	}
	return nil
}

// DateRange applies inclusive bounds on column. Nil bounds are skipped.
func DateRange[D any](db *gorm.DB, column string, from, to *D) *gorm.DB {
	if from != nil {
		db = db.Where(column+" >= ?", *from)
	}
	if to != nil {
		db = db.Where(column+" <= ?", *to)
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains adds a case-insensitive substring match of term against any of
// the columns. An empty term adds nothing.
func Contains(db *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return db
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"

	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
}
