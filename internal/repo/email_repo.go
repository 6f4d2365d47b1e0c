package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/inboxmem/inboxmem/internal/model"
	"github.com/inboxmem/inboxmem/internal/pkg/dbutil"
	appErr "github.com/inboxmem/inboxmem/internal/pkg/errors"
)

type EmailRepo struct {
	db *sql.DB
}

func NewEmailRepo(db *sql.DB) *EmailRepo {
	return &EmailRepo{db: db}
}

var emailFields = []string{
	"id", "user_id", "subject", "content_text", "content_html",
	"is_forwarded", "index_state", "chunk_count", "ctime", "mtime",
}

func (r *EmailRepo) Create(ctx context.Context, email *model.Email) error {
	data := map[string]interface{}{
		"id":           email.ID,
		"user_id":      email.UserID,
		"subject":      email.Subject,
		"content_text": email.ContentText,
		"content_html": email.ContentHTML,
		"is_forwarded": email.IsForwarded,
		"index_state":  email.IndexState,
		"chunk_count":  email.ChunkCount,
		"ctime":        email.Ctime,
		"mtime":        email.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("emails", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *EmailRepo) Get(ctx context.Context, emailID string) (*model.Email, error) {
	return r.getOne(ctx, map[string]interface{}{"id": emailID})
}

func (r *EmailRepo) GetForUser(ctx context.Context, userID, emailID string) (*model.Email, error) {
	return r.getOne(ctx, map[string]interface{}{"id": emailID, "user_id": userID})
}

func (r *EmailRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Email, error) {
	sqlStr, args, err := builder.BuildSelect("emails", where, emailFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	email, err := scanEmail(rows)
	if err != nil {
		return nil, err
	}
	return email, nil
}

func (r *EmailRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Email, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
		"_limit":   []uint{uint(offset), uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect("emails", where, emailFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var emails []model.Email
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, *email)
	}
	return emails, rows.Err()
}

// ListUnindexedBefore returns emails still pending or failed whose last state
// change is older than the cutoff. Used by the ingest retry job.
func (r *EmailRepo) ListUnindexedBefore(ctx context.Context, cutoff int64, limit int) ([]model.Email, error) {
	const query = `
		SELECT id, user_id, subject, content_text, content_html,
		       is_forwarded, index_state, chunk_count, ctime, mtime
		FROM emails
		WHERE index_state IN ($1, $2) AND mtime < $3
		ORDER BY mtime ASC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, model.IndexStatePending, model.IndexStateFailed, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var emails []model.Email
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, *email)
	}
	return emails, rows.Err()
}

func (r *EmailRepo) SetIndexState(ctx context.Context, emailID, state string, chunkCount int, mtime int64) error {
	where := map[string]interface{}{"id": emailID}
	update := map[string]interface{}{
		"index_state": state,
		"chunk_count": chunkCount,
		"mtime":       mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("emails", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *EmailRepo) Delete(ctx context.Context, userID, emailID string) error {
	where := map[string]interface{}{"id": emailID, "user_id": userID}
	sqlStr, args, err := builder.BuildDelete("emails", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func scanEmail(rows *sql.Rows) (*model.Email, error) {
	var email model.Email
	if err := rows.Scan(
		&email.ID, &email.UserID, &email.Subject, &email.ContentText, &email.ContentHTML,
		&email.IsForwarded, &email.IndexState, &email.ChunkCount, &email.Ctime, &email.Mtime,
	); err != nil {
		return nil, err
	}
	return &email, nil
}
