// Package sqlxrepos implements the repositories on Postgres with jmoiron/sqlx.
// The schema has no ON DELETE CASCADE: deletes remove dependent rows explicitly, in one transaction.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// postgres error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// dbError translates constraint violations into core errors.
func dbError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		switch pqErr.Code {
		case uniqueViolation:
			return core.ErrUniqueViolation
		case foreignKeyViolation:
			return core.ErrForeignKeyViolation
		}
	}
	return err
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// orderBy returns the ORDER BY clause of ordering, always ending with the primary key.
func orderBy(ordering []core.DBOrdering, prefix string) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		clauses = append(clauses, prefix+ord.String())
	}
	clauses = append(clauses, prefix+"id ASC")
	return " ORDER BY " + strings.Join(clauses, ", ")
}

// where accumulates the conditions & arguments of a WHERE clause.
type where struct {
	conds []string
	args  []interface{}
}

// add appends cond, where every "?" is the placeholder of arg.
func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches search anywhere, taking its wildcards literally.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

func int64s(ids []int) pq.Int64Array {
	arr := make(pq.Int64Array, 0, len(ids))
	for _, id := range ids {
		arr = append(arr, int64(id))
	}
	return arr
}

func selectIDs(ctx context.Context, ext sqlx.ExtContext, q string, args ...interface{}) ([]int, error) {
	var ids []int
	if err := sqlx.SelectContext(ctx, ext, &ids, q, args...); err != nil {
		return nil, err
	}
	return ids, nil
}

func rowsAffected(res sql.Result, err error) (int, error) {
	if err != nil {
		return 0, dbError(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// cascades, children first

func deleteUsers(ctx context.Context, ext sqlx.ExtContext, ids []int) (int, error) {
	crsIDs, err := selectIDs(ctx, ext, `SELECT id FROM courses WHERE instructor_id = ANY($1)`, int64s(ids))
	if err != nil {
		return 0, errors.Wrap(err, "selecting instructor courses")
	}
	if _, err = deleteCourses(ctx, ext, crsIDs); err != nil {
		return 0, err
	}
	for _, table := range []string{"answers", "progress", "enrollments"} {
		if _, err = ext.ExecContext(ctx, `DELETE FROM `+table+` WHERE student_id = ANY($1)`, int64s(ids)); err != nil {
			return 0, errors.Wrap(err, "deleting student "+table)
		}
	}
	return rowsAffected(ext.ExecContext(ctx, `DELETE FROM users WHERE id = ANY($1)`, int64s(ids)))
}

func deleteCourses(ctx context.Context, ext sqlx.ExtContext, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	lsnIDs, err := selectIDs(ctx, ext, `SELECT id FROM lessons WHERE course_id = ANY($1)`, int64s(ids))
	if err != nil {
		return 0, errors.Wrap(err, "selecting course lessons")
	}
	if _, err = deleteLessons(ctx, ext, lsnIDs); err != nil {
		return 0, err
	}
	qzIDs, err := selectIDs(ctx, ext, `SELECT id FROM quizzes WHERE course_id = ANY($1)`, int64s(ids))
	if err != nil {
		return 0, errors.Wrap(err, "selecting course quizzes")
	}
	if _, err = deleteQuizzes(ctx, ext, qzIDs); err != nil {
		return 0, err
	}
	if _, err = ext.ExecContext(ctx, `DELETE FROM enrollments WHERE course_id = ANY($1)`, int64s(ids)); err != nil {
		return 0, errors.Wrap(err, "deleting course enrollments")
	}
	return rowsAffected(ext.ExecContext(ctx, `DELETE FROM courses WHERE id = ANY($1)`, int64s(ids)))
}

func deleteLessons(ctx context.Context, ext sqlx.ExtContext, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if _, err := ext.ExecContext(ctx, `DELETE FROM progress WHERE lesson_id = ANY($1)`, int64s(ids)); err != nil {
		return 0, errors.Wrap(err, "deleting lesson progress")
	}
	return rowsAffected(ext.ExecContext(ctx, `DELETE FROM lessons WHERE id = ANY($1)`, int64s(ids)))
}

func deleteQuizzes(ctx context.Context, ext sqlx.ExtContext, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	qnIDs, err := selectIDs(ctx, ext, `SELECT id FROM questions WHERE quiz_id = ANY($1)`, int64s(ids))
	if err != nil {
		return 0, errors.Wrap(err, "selecting quiz questions")
	}
	if _, err = deleteQuestions(ctx, ext, qnIDs); err != nil {
		return 0, err
	}
	return rowsAffected(ext.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ANY($1)`, int64s(ids)))
}

func deleteQuestions(ctx context.Context, ext sqlx.ExtContext, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if _, err := ext.ExecContext(ctx, `DELETE FROM answers WHERE question_id = ANY($1)`, int64s(ids)); err != nil {
		return 0, errors.Wrap(err, "deleting question answers")
	}
	return rowsAffected(ext.ExecContext(ctx, `DELETE FROM questions WHERE id = ANY($1)`, int64s(ids)))
}
