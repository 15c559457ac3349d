package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
)

// GetInteraction loads the interaction row between two accounts,
// returning the Empty zero value (not a NotFound error) when no row
// exists yet: "no row" and "Empty" are treated identically.
func GetInteraction(ctx context.Context, db *sql.DB, a, b models.AccountID) (models.Interaction, error) {
	lo, hi := models.CanonicalPair(a, b)
	var (
		i                                    models.Interaction
		stateNumber                          int
		sender                               sql.NullInt64
		twoWayBlock                          int
	)
	i.Low, i.High = lo, hi
	row := db.QueryRowContext(ctx,
		`SELECT state_number, sender_account_id, two_way_block, message_counter, latest_viewed_by_low, latest_viewed_by_high
		 FROM account_interaction WHERE account_id_low = ? AND account_id_high = ?`, lo, hi)
	err := row.Scan(&stateNumber, &sender, &twoWayBlock, &i.MessageCounter, &i.LatestViewedByLow, &i.LatestViewedByHigh)
	if errors.Is(err, sql.ErrNoRows) {
		i.State = models.InteractionState{Kind: models.InteractionEmpty}
		return i, nil
	}
	if err != nil {
		return models.Interaction{}, apperr.New(apperr.KindIo, "storage.GetInteraction", err)
	}
	i.State.Kind = models.InteractionStateKind(stateNumber)
	i.State.TwoWayBlock = twoWayBlock != 0
	if sender.Valid {
		i.State.Sender = models.AccountID(sender.Int64)
	}
	return i, nil
}

// ListMatchesFor returns every account currently in Match state with id,
// ordered by account id for stable pagination.
func ListMatchesFor(ctx context.Context, db *sql.DB, id models.AccountID) ([]models.AccountID, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT CASE WHEN account_id_low = ? THEN account_id_high ELSE account_id_low END
		 FROM account_interaction
		 WHERE (account_id_low = ? OR account_id_high = ?) AND state_number = ?
		 ORDER BY 1`,
		id, id, id, int(models.InteractionMatch))
	if err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.ListMatchesFor", err)
	}
	defer rows.Close()

	var matches []models.AccountID
	for rows.Next() {
		var other models.AccountID
		if err := rows.Scan(&other); err != nil {
			return nil, apperr.New(apperr.KindIo, "storage.ListMatchesFor", err)
		}
		matches = append(matches, other)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.ListMatchesFor", err)
	}
	return matches, nil
}

// UpsertInteraction writes the full interaction row, creating it if
// absent.
func UpsertInteraction(ctx context.Context, db *sql.DB, i models.Interaction) error {
	var sender sql.NullInt64
	if i.State.Sender != 0 {
		sender = sql.NullInt64{Int64: int64(i.State.Sender), Valid: true}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO account_interaction (account_id_low, account_id_high, state_number, sender_account_id,
		                                   two_way_block, message_counter, latest_viewed_by_low, latest_viewed_by_high)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(account_id_low, account_id_high) DO UPDATE SET
		   state_number = excluded.state_number, sender_account_id = excluded.sender_account_id,
		   two_way_block = excluded.two_way_block, message_counter = excluded.message_counter,
		   latest_viewed_by_low = excluded.latest_viewed_by_low, latest_viewed_by_high = excluded.latest_viewed_by_high`,
		i.Low, i.High, int(i.State.Kind), sender, boolToInt(i.State.TwoWayBlock),
		i.MessageCounter, i.LatestViewedByLow, i.LatestViewedByHigh)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.UpsertInteraction", err)
	}
	return nil
}
