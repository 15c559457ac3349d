package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
)

// CreateAccount inserts a brand new account in InitialSetup state with no
// permissions, plus its zeroed sync-version row.
func CreateAccount(ctx context.Context, db *sql.DB, id models.AccountID) (*models.Account, error) {
	acc := &models.Account{
		ID:         id,
		UUID:       uuid.New(),
		State:      models.AccountStateInitialSetup,
		Visibility: models.VisibilityPendingPrivate,
		CreatedAt:  time.Now().UTC(),
	}
	err := Transaction(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (account_id, uuid, state, permissions, visibility, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			acc.ID, acc.UUID.String(), int(acc.State), uint32(acc.Permissions), int(acc.Visibility), acc.CreatedAt.Unix())
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO account_sync_versions (account_id) VALUES (?)`, acc.ID)
		return err
	})
	if err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.CreateAccount", err)
	}
	return acc, nil
}

// GetAccount loads an account and its sync versions.
func GetAccount(ctx context.Context, db *sql.DB, id models.AccountID) (*models.Account, error) {
	var (
		acc      models.Account
		uuidStr  string
		state    int
		perms    uint32
		vis      int
		created  int64
		syncRows models.SyncVersions
	)
	row := db.QueryRowContext(ctx,
		`SELECT a.account_id, a.uuid, a.state, a.permissions, a.visibility, a.created_at,
		        s.account_sync_version, s.profile_sync_version, s.news_sync_version, s.content_sync_version,
		        s.sent_likes_sync_version, s.received_likes_sync_version, s.matches_sync_version,
		        s.sent_blocks_sync_version, s.received_blocks_sync_version
		 FROM accounts a JOIN account_sync_versions s ON s.account_id = a.account_id
		 WHERE a.account_id = ?`, id)
	err := row.Scan(&acc.ID, &uuidStr, &state, &perms, &vis, &created,
		&syncRows.Account, &syncRows.Profile, &syncRows.News, &syncRows.Content,
		&syncRows.SentLikes, &syncRows.ReceivedLikes, &syncRows.Matches,
		&syncRows.SentBlocks, &syncRows.ReceivedBlocks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "storage.GetAccount", err)
	}
	if err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.GetAccount", err)
	}
	parsed, err := uuid.Parse(uuidStr)
	if err != nil {
		return nil, apperr.New(apperr.KindSerialize, "storage.GetAccount", err)
	}
	acc.UUID = parsed
	acc.State = models.AccountState(state)
	acc.Permissions = models.Permissions(perms)
	acc.Visibility = models.Visibility(vis)
	acc.CreatedAt = time.Unix(created, 0).UTC()
	acc.Sync = syncRows
	return &acc, nil
}

// SetAccountState transitions an account to a new state, recording the
// transition in the history database.
func SetAccountState(ctx context.Context, s *Store, id models.AccountID, newState models.AccountState) error {
	var prevState int
	err := Transaction(ctx, s.Current, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT state FROM accounts WHERE account_id = ?`, id)
		if err := row.Scan(&prevState); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.New(apperr.KindNotFound, "storage.SetAccountState", err)
			}
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE accounts SET state = ? WHERE account_id = ?`, int(newState), id)
		return err
	})
	if err != nil {
		return err
	}
	_, err = s.History.ExecContext(ctx,
		`INSERT INTO account_state_changes (account_id, previous_state, new_state, changed_at) VALUES (?, ?, ?, ?)`,
		id, prevState, int(newState), time.Now().UTC().Unix())
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.SetAccountState", err)
	}
	return nil
}

// SetVisibility updates an account's profile visibility.
func SetVisibility(ctx context.Context, db *sql.DB, id models.AccountID, vis models.Visibility) error {
	res, err := db.ExecContext(ctx, `UPDATE accounts SET visibility = ? WHERE account_id = ?`, int(vis), id)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.SetVisibility", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "storage.SetVisibility", sql.ErrNoRows)
	}
	return nil
}

// SetPermissions overwrites an account's permission bitflags.
func SetPermissions(ctx context.Context, db *sql.DB, id models.AccountID, perms models.Permissions) error {
	res, err := db.ExecContext(ctx, `UPDATE accounts SET permissions = ? WHERE account_id = ?`, uint32(perms), id)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.SetPermissions", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "storage.SetPermissions", sql.ErrNoRows)
	}
	return nil
}

// BumpSync increments one named sync-version counter for account id and
// returns its new value. The column name must be one of the fixed set
// listed in account_sync_versions; callers pass a models-level field name
// through the small switch in syncColumn to avoid building SQL from
// caller-controlled strings.
func BumpSync(ctx context.Context, db *sql.DB, id models.AccountID, field string) (uint64, error) {
	col, ok := syncColumn(field)
	if !ok {
		return 0, apperr.New(apperr.KindConstraintViolation, "storage.BumpSync", errors.New("unknown sync field "+field))
	}
	_, err := db.ExecContext(ctx, `UPDATE account_sync_versions SET `+col+` = `+col+` + 1 WHERE account_id = ?`, id)
	if err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.BumpSync", err)
	}
	var v uint64
	row := db.QueryRowContext(ctx, `SELECT `+col+` FROM account_sync_versions WHERE account_id = ?`, id)
	if err := row.Scan(&v); err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.BumpSync", err)
	}
	return v, nil
}

func syncColumn(field string) (string, bool) {
	switch field {
	case "account":
		return "account_sync_version", true
	case "profile":
		return "profile_sync_version", true
	case "news":
		return "news_sync_version", true
	case "content":
		return "content_sync_version", true
	case "sent_likes":
		return "sent_likes_sync_version", true
	case "received_likes":
		return "received_likes_sync_version", true
	case "matches":
		return "matches_sync_version", true
	case "sent_blocks":
		return "sent_blocks_sync_version", true
	case "received_blocks":
		return "received_blocks_sync_version", true
	default:
		return "", false
	}
}
