package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
)

// InsertPendingMessage stores a new message awaiting both parties'
// acknowledgement. Message number 0 is never used (skipped deliberately)
// so "latest viewed" can default to 0 without that default colliding
// with a real message.
func InsertPendingMessage(ctx context.Context, db *sql.DB, m models.PendingMessage) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO pending_messages (account_id_sender, account_id_receiver, message_number,
		                                sender_client_id, sender_client_local_id, message_bytes, unix_time,
		                                sender_acknowledgement, receiver_acknowledgement)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Sender, m.Receiver, m.MessageNumber, m.SenderClientID, m.SenderClientLocalID, m.Payload,
		m.SentAt.Unix(), boolToInt(m.SenderAck), boolToInt(m.ReceiverAck))
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.InsertPendingMessage", err)
	}
	return nil
}

// FindPendingMessageByIdempotencyKey looks up a message already inserted
// for this (sender, client id, client local id) triple, so a retried
// send can return the existing message number instead of inserting a
// duplicate. Returns (models.PendingMessage{}, false, nil) when none
// exists yet.
func FindPendingMessageByIdempotencyKey(ctx context.Context, db *sql.DB, sender models.AccountID, clientID string, clientLocalID int64) (models.PendingMessage, bool, error) {
	var (
		m           models.PendingMessage
		unixTime    int64
		senderAck   int
		receiverAck int
	)
	row := db.QueryRowContext(ctx,
		`SELECT account_id_sender, account_id_receiver, message_number, sender_client_id, sender_client_local_id,
		        message_bytes, unix_time, sender_acknowledgement, receiver_acknowledgement
		 FROM pending_messages WHERE account_id_sender = ? AND sender_client_id = ? AND sender_client_local_id = ?`,
		sender, clientID, clientLocalID)
	err := row.Scan(&m.Sender, &m.Receiver, &m.MessageNumber, &m.SenderClientID, &m.SenderClientLocalID,
		&m.Payload, &unixTime, &senderAck, &receiverAck)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PendingMessage{}, false, nil
	}
	if err != nil {
		return models.PendingMessage{}, false, apperr.New(apperr.KindIo, "storage.FindPendingMessageByIdempotencyKey", err)
	}
	m.SentAt = time.Unix(unixTime, 0).UTC()
	m.SenderAck = senderAck != 0
	m.ReceiverAck = receiverAck != 0
	return m, true, nil
}

// AckReceiver flags messages as receiver-acknowledged and deletes any
// that are now acknowledged on both sides.
func AckReceiver(ctx context.Context, db *sql.DB, receiver models.AccountID, sender models.AccountID, messageNumbers []uint64) error {
	return Transaction(ctx, db, func(tx *sql.Tx) error {
		for _, mn := range messageNumbers {
			if _, err := tx.ExecContext(ctx,
				`UPDATE pending_messages SET receiver_acknowledgement = 1
				 WHERE account_id_sender = ? AND account_id_receiver = ? AND message_number = ?`,
				sender, receiver, mn); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM pending_messages
				 WHERE account_id_sender = ? AND account_id_receiver = ? AND message_number = ?
				   AND sender_acknowledgement = 1 AND receiver_acknowledgement = 1`,
				sender, receiver, mn); err != nil {
				return err
			}
		}
		return nil
	})
}

// AckSender flags messages as sender-acknowledged (identified by the
// client's own local ID pair, since the sender learns the server-side
// message number only after the fact) and deletes any now acknowledged
// on both sides.
func AckSender(ctx context.Context, db *sql.DB, sender models.AccountID, clientID string, clientLocalID int64) error {
	return Transaction(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE pending_messages SET sender_acknowledgement = 1
			 WHERE account_id_sender = ? AND sender_client_id = ? AND sender_client_local_id = ?`,
			sender, clientID, clientLocalID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM pending_messages
			 WHERE account_id_sender = ? AND sender_client_id = ? AND sender_client_local_id = ?
			   AND sender_acknowledgement = 1 AND receiver_acknowledgement = 1`,
			sender, clientID, clientLocalID)
		return err
	})
}

// PendingMessagesFor returns every message awaiting delivery/ack for
// receiver, oldest first.
func PendingMessagesFor(ctx context.Context, db *sql.DB, receiver models.AccountID) ([]models.PendingMessage, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT account_id_sender, account_id_receiver, message_number, sender_client_id, sender_client_local_id,
		        message_bytes, unix_time, sender_acknowledgement, receiver_acknowledgement
		 FROM pending_messages WHERE account_id_receiver = ? ORDER BY unix_time ASC`, receiver)
	if err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.PendingMessagesFor", err)
	}
	defer rows.Close()

	var out []models.PendingMessage
	for rows.Next() {
		var (
			m          models.PendingMessage
			unixTime   int64
			senderAck  int
			receiverAck int
		)
		if err := rows.Scan(&m.Sender, &m.Receiver, &m.MessageNumber, &m.SenderClientID, &m.SenderClientLocalID,
			&m.Payload, &unixTime, &senderAck, &receiverAck); err != nil {
			return nil, apperr.New(apperr.KindIo, "storage.PendingMessagesFor", err)
		}
		m.SentAt = time.Unix(unixTime, 0).UTC()
		m.SenderAck = senderAck != 0
		m.ReceiverAck = receiverAck != 0
		out = append(out, m)
	}
	return out, rows.Err()
}
