package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
)

// GetProfile loads a profile row, decoding its JSON-encoded attribute and
// filter maps.
func GetProfile(ctx context.Context, db *sql.DB, id models.AccountID) (*models.Profile, error) {
	var (
		p                          models.Profile
		attributesJSON, filterJSON string
		locX, locY                 uint16
		lastSeen                   int64
	)
	p.AccountID = id
	row := db.QueryRowContext(ctx,
		`SELECT name, age, profile_text, attributes_json, filters_json, search_age_min, search_age_max,
		        search_group_flags, last_seen_time, version_uuid, location_x, location_y, name_moderation_accepted
		 FROM profiles WHERE account_id = ?`, id)
	var nameModerationAccepted int
	err := row.Scan(&p.Name, &p.Age, &p.Text, &attributesJSON, &filterJSON, &p.SearchAgeRange.Min, &p.SearchAgeRange.Max,
		&p.SearchGroupFlags, &lastSeen, &p.VersionUUID, &locX, &locY, &nameModerationAccepted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "storage.GetProfile", err)
	}
	if err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.GetProfile", err)
	}
	p.NameModerationAccepted = nameModerationAccepted != 0
	p.LastSeenTime = time.Unix(lastSeen, 0).UTC()
	p.LocationKey = models.LocationKey{X: locX, Y: locY}
	if err := gojson.Unmarshal([]byte(attributesJSON), &p.Attributes); err != nil {
		return nil, apperr.New(apperr.KindSerialize, "storage.GetProfile", err)
	}
	if err := gojson.Unmarshal([]byte(filterJSON), &p.Filters); err != nil {
		return nil, apperr.New(apperr.KindSerialize, "storage.GetProfile", err)
	}
	return &p, nil
}

// UpsertProfile writes the full profile row, re-encoding its attribute
// and filter maps as JSON.
func UpsertProfile(ctx context.Context, db *sql.DB, p *models.Profile) error {
	attributesJSON, err := gojson.Marshal(p.Attributes)
	if err != nil {
		return apperr.New(apperr.KindSerialize, "storage.UpsertProfile", err)
	}
	filterJSON, err := gojson.Marshal(p.Filters)
	if err != nil {
		return apperr.New(apperr.KindSerialize, "storage.UpsertProfile", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO profiles (account_id, name, age, profile_text, attributes_json, filters_json,
		                        search_age_min, search_age_max, search_group_flags, last_seen_time,
		                        version_uuid, location_x, location_y, name_moderation_accepted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET
		   name = excluded.name, age = excluded.age, profile_text = excluded.profile_text,
		   attributes_json = excluded.attributes_json, filters_json = excluded.filters_json,
		   search_age_min = excluded.search_age_min, search_age_max = excluded.search_age_max,
		   search_group_flags = excluded.search_group_flags, last_seen_time = excluded.last_seen_time,
		   version_uuid = excluded.version_uuid, location_x = excluded.location_x, location_y = excluded.location_y,
		   name_moderation_accepted = excluded.name_moderation_accepted`,
		p.AccountID, p.Name, p.Age, p.Text, string(attributesJSON), string(filterJSON),
		p.SearchAgeRange.Min, p.SearchAgeRange.Max, p.SearchGroupFlags, p.LastSeenTime.Unix(),
		p.VersionUUID, p.LocationKey.X, p.LocationKey.Y, boolToInt(p.NameModerationAccepted))
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.UpsertProfile", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
