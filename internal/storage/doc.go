// Package storage is the account, profile, interaction, chat, moderation
// and news persistence layer. It opens two SQLite
// databases through the pure-Go modernc.org/sqlite driver — current for
// live state and history for an append-only audit trail — following the
// pragma DSN convention used across the retrieved example pack
// (journal_mode=WAL, synchronous=NORMAL, foreign_keys=ON, a busy
// timeout so concurrent writers back off instead of erroring).
//
// Every exported function here returns *apperr.Error so callers can
// branch on Kind rather than sniffing driver-specific error strings.
package storage
