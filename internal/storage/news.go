package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
)

// CreateNews inserts a new, unpublished (private) news item and returns
// its id.
func CreateNews(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, `INSERT INTO news (publication_id, first_publication_time) VALUES (NULL, NULL)`)
	if err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.CreateNews", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.CreateNews", err)
	}
	return id, nil
}

// UpsertNewsTranslation writes one locale's title/body for a news item,
// bumping its version number.
func UpsertNewsTranslation(ctx context.Context, db *sql.DB, newsID int64, tr models.NewsTranslation) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO news_translations (news_id, locale, title, body, version) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(news_id, locale) DO UPDATE SET
		   title = excluded.title, body = excluded.body, version = news_translations.version + 1`,
		newsID, tr.Locale, tr.Title, tr.Body, tr.Version)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.UpsertNewsTranslation", err)
	}
	return nil
}

// GetNewsItem loads a single news item by id with its locale
// translation (falling back to English), reporting (zero, false, nil)
// if it does not exist. When requireLocale is true and the item has no
// translation in exactly that locale, it also reports not-found.
func GetNewsItem(ctx context.Context, db *sql.DB, newsID int64, locale string, requireLocale bool) (models.NewsItem, bool, error) {
	var (
		item          models.NewsItem
		pubID         sql.NullInt64
		firstPub      sql.NullInt64
		trLocale      sql.NullString
		title, body   sql.NullString
		version       sql.NullInt64
	)
	row := db.QueryRowContext(ctx,
		`SELECT n.publication_id, n.first_publication_time, t.locale, t.title, t.body, t.version
		 FROM news n
		 LEFT JOIN news_translations t ON t.news_id = n.news_id AND (t.locale = ? OR t.locale = 'en')
		 WHERE n.news_id = ?
		 ORDER BY (t.locale = ?) DESC
		 LIMIT 1`,
		locale, newsID, locale)
	err := row.Scan(&pubID, &firstPub, &trLocale, &title, &body, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewsItem{}, false, nil
	}
	if err != nil {
		return models.NewsItem{}, false, apperr.New(apperr.KindIo, "storage.GetNewsItem", err)
	}
	if requireLocale && (!trLocale.Valid || trLocale.String != locale) {
		return models.NewsItem{}, false, nil
	}
	item.ID = newsID
	if pubID.Valid {
		v := pubID.Int64
		item.PublicationID = &v
	}
	if firstPub.Valid {
		item.FirstPublicationTime = time.Unix(firstPub.Int64, 0).UTC()
	}
	item.Translations = map[string]models.NewsTranslation{}
	if trLocale.Valid {
		item.Translations[trLocale.String] = models.NewsTranslation{Locale: trLocale.String, Title: title.String, Body: body.String, Version: version.Int64}
	}
	return item, true, nil
}

// PrivateNews returns every unpublished news item (publication_id is
// null), most recently created first, with their locale translation.
func PrivateNews(ctx context.Context, db *sql.DB, locale string) ([]models.NewsItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT n.news_id, t.locale, t.title, t.body, t.version
		 FROM news n
		 LEFT JOIN news_translations t ON t.news_id = n.news_id AND (t.locale = ? OR t.locale = 'en')
		 WHERE n.publication_id IS NULL
		 ORDER BY n.news_id DESC`, locale)
	if err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.PrivateNews", err)
	}
	defer rows.Close()

	var out []models.NewsItem
	for rows.Next() {
		var (
			id            int64
			trLocale      sql.NullString
			title, body   sql.NullString
			version       sql.NullInt64
		)
		if err := rows.Scan(&id, &trLocale, &title, &body, &version); err != nil {
			return nil, apperr.New(apperr.KindIo, "storage.PrivateNews", err)
		}
		item := models.NewsItem{ID: id, Translations: map[string]models.NewsTranslation{}}
		if trLocale.Valid {
			item.Translations[trLocale.String] = models.NewsTranslation{Locale: trLocale.String, Title: title.String, Body: body.String, Version: version.Int64}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// CountNewPublicNews counts published items whose publication_id is
// strictly greater than sinceID.
func CountNewPublicNews(ctx context.Context, db *sql.DB, sinceID int64) (int64, error) {
	var n int64
	row := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news WHERE publication_id IS NOT NULL AND publication_id > ?`, sinceID)
	if err := row.Scan(&n); err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.CountNewPublicNews", err)
	}
	return n, nil
}

// LatestPublicationID returns the highest assigned publication id, or 0
// if nothing has been published yet.
func LatestPublicationID(ctx context.Context, db *sql.DB) (int64, error) {
	var maxPub sql.NullInt64
	row := db.QueryRowContext(ctx, `SELECT MAX(publication_id) FROM news`)
	if err := row.Scan(&maxPub); err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.LatestPublicationID", err)
	}
	if !maxPub.Valid {
		return 0, nil
	}
	return maxPub.Int64, nil
}

// GetNewsIteratorResetPoint returns the publication id an account's news
// iterator was last reset at, and its cached unread count.
func GetNewsIteratorResetPoint(ctx context.Context, db *sql.DB, id models.AccountID) (int64, int64, error) {
	var resetAt, unread int64
	row := db.QueryRowContext(ctx, `SELECT publication_id_at_reset, unread_news_count FROM account_sync_versions WHERE account_id = ?`, id)
	if err := row.Scan(&resetAt, &unread); err != nil {
		return 0, 0, apperr.New(apperr.KindIo, "storage.GetNewsIteratorResetPoint", err)
	}
	return resetAt, unread, nil
}

// SetNewsIteratorResetPoint records where an account's news iterator was
// last reset and its freshly recomputed unread count.
func SetNewsIteratorResetPoint(ctx context.Context, db *sql.DB, id models.AccountID, resetAt, unread int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE account_sync_versions SET publication_id_at_reset = ?, unread_news_count = ? WHERE account_id = ?`,
		resetAt, unread, id)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.SetNewsIteratorResetPoint", err)
	}
	return nil
}

// SetUnreadNewsCount overwrites the cached unread-news counter, e.g.
// after a fresh publication bumps it for every account that has not
// since reset past it.
func SetUnreadNewsCount(ctx context.Context, db *sql.DB, id models.AccountID, unread int64) error {
	_, err := db.ExecContext(ctx, `UPDATE account_sync_versions SET unread_news_count = ? WHERE account_id = ?`, unread, id)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.SetUnreadNewsCount", err)
	}
	return nil
}

// PublishNews assigns news a publication ID and first-publication
// timestamp, making it visible to PagedNews. Publishing an already
// published item is a no-op.
func PublishNews(ctx context.Context, db *sql.DB, newsID int64) error {
	return Transaction(ctx, db, func(tx *sql.Tx) error {
		var maxPub sql.NullInt64
		row := tx.QueryRowContext(ctx, `SELECT MAX(publication_id) FROM news`)
		if err := row.Scan(&maxPub); err != nil {
			return err
		}
		next := int64(0)
		if maxPub.Valid {
			next = maxPub.Int64 + 1
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE news SET publication_id = ?, first_publication_time = ? WHERE news_id = ? AND publication_id IS NULL`,
			next, time.Now().UTC().Unix(), newsID)
		return err
	})
}

// PagedNews returns up to models.NewsPageSize public news items whose
// publication_id is at most sinceID, most recent first, with their
// locale translation (falling back to English).
func PagedNews(ctx context.Context, db *sql.DB, sinceID int64, page int64, locale string) ([]models.NewsItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT n.news_id, n.publication_id, n.first_publication_time, t.locale, t.title, t.body, t.version
		 FROM news n
		 LEFT JOIN news_translations t ON t.news_id = n.news_id AND (t.locale = ? OR t.locale = 'en')
		 WHERE n.publication_id IS NOT NULL AND n.publication_id <= ?
		 ORDER BY n.publication_id DESC
		 LIMIT ? OFFSET ?`,
		locale, sinceID, models.NewsPageSize, page*models.NewsPageSize)
	if err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.PagedNews", err)
	}
	defer rows.Close()

	items := make(map[int64]*models.NewsItem)
	var order []int64
	for rows.Next() {
		var (
			id                   int64
			pubID                sql.NullInt64
			firstPub             int64
			trLocale, title, body sql.NullString
			version              sql.NullInt64
		)
		if err := rows.Scan(&id, &pubID, &firstPub, &trLocale, &title, &body, &version); err != nil {
			return nil, apperr.New(apperr.KindIo, "storage.PagedNews", err)
		}
		item, exists := items[id]
		if !exists {
			item = &models.NewsItem{ID: id, FirstPublicationTime: time.Unix(firstPub, 0).UTC(), Translations: map[string]models.NewsTranslation{}}
			if pubID.Valid {
				v := pubID.Int64
				item.PublicationID = &v
			}
			items[id] = item
			order = append(order, id)
		}
		if trLocale.Valid {
			item.Translations[trLocale.String] = models.NewsTranslation{Locale: trLocale.String, Title: title.String, Body: body.String, Version: version.Int64}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.PagedNews", err)
	}
	out := make([]models.NewsItem, 0, len(order))
	for _, id := range order {
		out = append(out, *items[id])
	}
	return out, nil
}
