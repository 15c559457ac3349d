package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
)

// EnqueueModerationRequest inserts a new Waiting request at the tail of
// its queue, assigning it the next queue_number.
func EnqueueModerationRequest(ctx context.Context, db *sql.DB, owner models.AccountID, queue models.QueueType, contentID int64, textSnapshot string) (int64, error) {
	var requestID int64
	err := Transaction(ctx, db, func(tx *sql.Tx) error {
		var maxNumber sql.NullInt64
		row := tx.QueryRowContext(ctx, `SELECT MAX(queue_number) FROM moderation_requests WHERE queue_type = ?`, int(queue))
		if err := row.Scan(&maxNumber); err != nil {
			return err
		}
		next := uint64(0)
		if maxNumber.Valid {
			next = uint64(maxNumber.Int64) + 1
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO moderation_requests (account_id, queue_type, queue_number, state, content_id, text_snapshot, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			owner, int(queue), next, int(models.RequestWaiting), contentID, textSnapshot, time.Now().UTC().Unix())
		if err != nil {
			return err
		}
		requestID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.EnqueueModerationRequest", err)
	}
	return requestID, nil
}

// CheckoutNextWaiting atomically claims the oldest Waiting request in a
// queue for moderatorID, moving it to InProgress.
func CheckoutNextWaiting(ctx context.Context, db *sql.DB, queue models.QueueType, moderatorID models.AccountID) (*models.ModerationRequest, error) {
	var req models.ModerationRequest
	err := Transaction(ctx, db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT request_id, account_id, queue_number, content_id, text_snapshot, created_at
			 FROM moderation_requests WHERE queue_type = ? AND state = ? ORDER BY queue_number ASC LIMIT 1`,
			int(queue), int(models.RequestWaiting))
		var (
			requestID  int64
			contentID  sql.NullInt64
			createdAt  int64
		)
		if err := row.Scan(&requestID, &req.Owner, &req.QueueNumber, &contentID, &req.TextSnapshot, &createdAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.New(apperr.KindNotFound, "storage.CheckoutNextWaiting", err)
			}
			return err
		}
		if contentID.Valid {
			req.ContentID = contentID.Int64
		}
		req.RequestID = requestID
		req.CreatedAt = time.Unix(createdAt, 0).UTC()
		req.QueueType = queue
		req.State = models.RequestInProgress
		req.ModeratorID = moderatorID
		_, err := tx.ExecContext(ctx,
			`UPDATE moderation_requests SET state = ?, moderator_id = ? WHERE request_id = ?`,
			int(models.RequestInProgress), moderatorID, requestID)
		return err
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.New(apperr.KindIo, "storage.CheckoutNextWaiting", err)
	}
	return &req, nil
}

// GetModerationRequest loads one request by id.
func GetModerationRequest(ctx context.Context, db *sql.DB, requestID int64) (*models.ModerationRequest, error) {
	var (
		req        models.ModerationRequest
		queueType  int
		state      int
		contentID  sql.NullInt64
		moderator  sql.NullInt64
		category   int
		createdAt  int64
	)
	row := db.QueryRowContext(ctx,
		`SELECT account_id, queue_type, queue_number, state, moderator_id, content_id, text_snapshot,
		        rejection_category, rejection_details, created_at
		 FROM moderation_requests WHERE request_id = ?`, requestID)
	if err := row.Scan(&req.Owner, &queueType, &req.QueueNumber, &state, &moderator, &contentID, &req.TextSnapshot,
		&category, &req.RejectionDetails, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "storage.GetModerationRequest", err)
		}
		return nil, apperr.New(apperr.KindIo, "storage.GetModerationRequest", err)
	}
	req.RequestID = requestID
	req.QueueType = models.QueueType(queueType)
	req.State = models.RequestState(state)
	req.RejectionCategory = models.RejectionCategory(category)
	if moderator.Valid {
		req.ModeratorID = models.AccountID(moderator.Int64)
	}
	if contentID.Valid {
		req.ContentID = contentID.Int64
	}
	req.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &req, nil
}

// ListInProgressForModerator returns up to limit requests in queue that
// moderatorID currently has checked out, oldest first. Used to make
// checkout idempotent: a moderator re-requesting a page while still
// holding requests gets those back unchanged rather than claiming more.
func ListInProgressForModerator(ctx context.Context, db *sql.DB, queue models.QueueType, moderatorID models.AccountID, limit int) ([]models.ModerationRequest, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT request_id, account_id, queue_number, content_id, text_snapshot, created_at
		 FROM moderation_requests WHERE queue_type = ? AND state = ? AND moderator_id = ?
		 ORDER BY queue_number ASC LIMIT ?`,
		int(queue), int(models.RequestInProgress), moderatorID, limit)
	if err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.ListInProgressForModerator", err)
	}
	defer rows.Close()

	var out []models.ModerationRequest
	for rows.Next() {
		var (
			requestID int64
			contentID sql.NullInt64
			createdAt int64
			req       models.ModerationRequest
		)
		if err := rows.Scan(&requestID, &req.Owner, &req.QueueNumber, &contentID, &req.TextSnapshot, &createdAt); err != nil {
			return nil, apperr.New(apperr.KindIo, "storage.ListInProgressForModerator", err)
		}
		req.RequestID = requestID
		if contentID.Valid {
			req.ContentID = contentID.Int64
		}
		req.CreatedAt = time.Unix(createdAt, 0).UTC()
		req.QueueType = queue
		req.State = models.RequestInProgress
		req.ModeratorID = moderatorID
		out = append(out, req)
	}
	return out, rows.Err()
}

// ResolveModerationRequest records the accept/reject outcome, both in the
// current request row and as an append-only history fact.
func ResolveModerationRequest(ctx context.Context, s *Store, requestID int64, state models.RequestState, category models.RejectionCategory, details string) error {
	var (
		owner     models.AccountID
		queueType models.QueueType
		moderator sql.NullInt64
	)
	err := Transaction(ctx, s.Current, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT account_id, queue_type, moderator_id FROM moderation_requests WHERE request_id = ?`, requestID)
		if err := row.Scan(&owner, &queueType, &moderator); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.New(apperr.KindNotFound, "storage.ResolveModerationRequest", err)
			}
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE moderation_requests SET state = ?, rejection_category = ?, rejection_details = ? WHERE request_id = ?`,
			int(state), int(category), details, requestID)
		return err
	})
	if err != nil {
		return err
	}
	var moderatorID sql.NullInt64
	if moderator.Valid {
		moderatorID = moderator
	}
	_, err = s.History.ExecContext(ctx,
		`INSERT INTO moderation_decisions (request_id, account_id, queue_type, outcome, moderator_id, rejection_category, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		requestID, owner, int(queueType), int(state), moderatorID, int(category), time.Now().UTC().Unix())
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.ResolveModerationRequest", err)
	}
	return nil
}

// DeleteWaitingRequest removes a request the owner withdrew before a
// moderator checked it out. It is a no-op error (KindNotAllowed) once
// the request has moved past Waiting.
func DeleteWaitingRequest(ctx context.Context, db *sql.DB, requestID int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM moderation_requests WHERE request_id = ? AND state = ?`, requestID, int(models.RequestWaiting))
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.DeleteWaitingRequest", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotAllowed, "storage.DeleteWaitingRequest", errors.New("request is not waiting"))
	}
	return nil
}

// ReleaseToHuman resets an InProgress request (claimed by an automated
// moderator) back to Waiting with no moderator bound, keeping its
// original queue_number so it does not lose its place in line. Used
// when the automated decision cascade defers to human review.
func ReleaseToHuman(ctx context.Context, db *sql.DB, requestID int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE moderation_requests SET state = ?, moderator_id = NULL WHERE request_id = ? AND state = ?`,
		int(models.RequestWaiting), requestID, int(models.RequestInProgress))
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.ReleaseToHuman", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotAllowed, "storage.ReleaseToHuman", errors.New("request is not in progress"))
	}
	return nil
}
