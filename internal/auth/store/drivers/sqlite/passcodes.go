package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/courseloop/campus-auth/internal/auth/domain"
	"github.com/courseloop/campus-auth/pkg/idx"
)

type passcodesRepo struct {
	db dbtx
}

func (r *passcodesRepo) Create(ctx context.Context, p domain.Passcode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO passcodes (id, subject_id, code, purpose, issued_at, expires_at, consumed_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		p.ID.String(), p.SubjectID, p.Code, string(p.Purpose), p.IssuedAt.UTC(), p.ExpiresAt.UTC())
	return mapConstraint(err)
}

// Latest returns the newest row for (subject, purpose) regardless of its
// consumption or expiry state. The ULID id breaks ties within the same
// millisecond.
func (r *passcodesRepo) Latest(ctx context.Context, subjectID int64, purpose domain.PasscodePurpose) (domain.Passcode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, subject_id, code, purpose, issued_at, expires_at, consumed_at
		 FROM passcodes
		 WHERE subject_id = ? AND purpose = ?
		 ORDER BY issued_at DESC, id DESC
		 LIMIT 1`,
		subjectID, string(purpose))

	var p domain.Passcode
	var id, purp string
	var consumedAt sql.NullTime
	err := row.Scan(&id, &p.SubjectID, &p.Code, &purp, &p.IssuedAt, &p.ExpiresAt, &consumedAt)
	if err != nil {
		return domain.Passcode{}, mapNotFound(err)
	}

	p.ID = idx.ID(id)
	p.Purpose = domain.PasscodePurpose(purp)
	if consumedAt.Valid {
		t := consumedAt.Time
		p.ConsumedAt = &t
	}
	return p, nil
}

// ConsumeActive invalidates every still-active code for (subject, purpose)
// in one statement.
func (r *passcodesRepo) ConsumeActive(ctx context.Context, subjectID int64, purpose domain.PasscodePurpose, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE passcodes
		 SET consumed_at = ?
		 WHERE subject_id = ? AND purpose = ? AND consumed_at IS NULL AND expires_at > ?`,
		now.UTC(), subjectID, string(purpose), now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Consume is the conditional single-row update: it only succeeds when
// consumed_at is still null, so concurrent spenders race for one winner.
func (r *passcodesRepo) Consume(ctx context.Context, id idx.ID, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE passcodes SET consumed_at = ? WHERE id = ? AND consumed_at IS NULL`,
		now.UTC(), id.String())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *passcodesRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passcodes`).Scan(&count)
	return count, err
}
