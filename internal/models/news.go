// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package models

import "time"

// NewsTranslation is one locale's rendering of a news item.
type NewsTranslation struct {
	Locale  string
	Title   string
	Body    string
	Version int64
}

// NewsItem is a (possibly private) news entry. PublicationID is nil for
// private items; public items are ordered by PublicationID desc.
type NewsItem struct {
	ID                  int64
	PublicationID       *int64
	FirstPublicationTime time.Time
	Translations        map[string]NewsTranslation
}

// IsPublic reports whether the item has been assigned a publication id.
func (n NewsItem) IsPublic() bool {
	return n.PublicationID != nil
}

// Translation selects the caller's locale, falling back to English.
func (n NewsItem) Translation(locale string) (NewsTranslation, bool) {
	if t, ok := n.Translations[locale]; ok {
		return t, true
	}
	t, ok := n.Translations["en"]
	return t, ok
}

// NewsPageSize is the fixed page size for news paging.
const NewsPageSize = 25
