package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
)

// InsertContent records a freshly uploaded media item, initially InSlot
// and awaiting a moderation request.
func InsertContent(ctx context.Context, db *sql.DB, c models.Content) (int64, error) {
	var slot sql.NullInt64
	if c.Slot.IsSet {
		slot = sql.NullInt64{Int64: int64(c.Slot.Value), Valid: true}
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO content (account_id, slot, state, is_secure_capture, face_detected, content_type, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Owner, slot, int(c.State), boolToInt(c.IsSecureCapture), boolToInt(c.FaceDetected), c.ContentType, time.Now().UTC().Unix())
	if err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.InsertContent", err)
	}
	return res.LastInsertId()
}

// SetContentState transitions a content item (e.g. InModeration -> Accepted/Rejected).
func SetContentState(ctx context.Context, db *sql.DB, contentID int64, state models.ContentState) error {
	res, err := db.ExecContext(ctx, `UPDATE content SET state = ? WHERE content_id = ?`, int(state), contentID)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.SetContentState", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "storage.SetContentState", sql.ErrNoRows)
	}
	return nil
}

// ClearContentSlot unassigns a content item's slot without deleting the
// row, so an owner can free up a gallery slot while the item's
// moderation/audit history stays intact.
func ClearContentSlot(ctx context.Context, db *sql.DB, contentID int64) error {
	res, err := db.ExecContext(ctx, `UPDATE content SET slot = NULL WHERE content_id = ?`, contentID)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.ClearContentSlot", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "storage.ClearContentSlot", sql.ErrNoRows)
	}
	return nil
}

// GetContent loads one content item by ID.
func GetContent(ctx context.Context, db *sql.DB, contentID int64) (*models.Content, error) {
	var (
		c               models.Content
		slot            sql.NullInt64
		state           int
		secure, face    int
		uploadedAt      int64
	)
	row := db.QueryRowContext(ctx,
		`SELECT content_id, account_id, slot, state, is_secure_capture, face_detected, content_type, uploaded_at
		 FROM content WHERE content_id = ?`, contentID)
	if err := row.Scan(&c.ContentID, &c.Owner, &slot, &state, &secure, &face, &c.ContentType, &uploadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "storage.GetContent", err)
		}
		return nil, apperr.New(apperr.KindIo, "storage.GetContent", err)
	}
	if slot.Valid {
		c.Slot = models.Slot(uint8(slot.Int64))
	}
	c.State = models.ContentState(state)
	c.IsSecureCapture = secure != 0
	c.FaceDetected = face != 0
	c.UploadedAt = time.Unix(uploadedAt, 0).UTC()
	return &c, nil
}

// ContentSlots returns every content item currently assigned a slot for
// account, ordered by slot number — the owner's gallery.
func ContentSlots(ctx context.Context, db *sql.DB, owner models.AccountID) ([]models.Content, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT content_id, account_id, slot, state, is_secure_capture, face_detected, content_type, uploaded_at
		 FROM content WHERE account_id = ? AND slot IS NOT NULL ORDER BY slot ASC`, owner)
	if err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.ContentSlots", err)
	}
	defer rows.Close()

	var out []models.Content
	for rows.Next() {
		var (
			c            models.Content
			slot         sql.NullInt64
			state        int
			secure, face int
			uploadedAt   int64
		)
		if err := rows.Scan(&c.ContentID, &c.Owner, &slot, &state, &secure, &face, &c.ContentType, &uploadedAt); err != nil {
			return nil, apperr.New(apperr.KindIo, "storage.ContentSlots", err)
		}
		if slot.Valid {
			c.Slot = models.Slot(uint8(slot.Int64))
		}
		c.State = models.ContentState(state)
		c.IsSecureCapture = secure != 0
		c.FaceDetected = face != 0
		c.UploadedAt = time.Unix(uploadedAt, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}
