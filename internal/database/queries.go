/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const accountColumns = `id, username, email, password_hash, role, balance_cents, referral_code,
	referred_by, active, banned, ban_expires_at, ban_reason, banned_at, created_at, updated_at`

const trackColumns = `id, artist_id, title, filename, genre, description, plays, earnings_cents, active, uploaded_at`

const withdrawalColumns = `id, account_id, amount_cents, status, requested_at, processed_at, rejection_reason, processed_by`

// Account queries
const (
	queryInsertAccount = `
		INSERT INTO accounts (username, email, password_hash, role, referral_code, referred_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + accountColumns

	queryGetAccountById = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ?`

	queryGetAccountByEmail = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = ?`

	queryGetAccountByReferralCode = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE referral_code = ?`

	queryListAccounts = `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY id`

	queryEmailExists        = `SELECT 1 FROM accounts WHERE email = ?`
	queryUsernameExists     = `SELECT 1 FROM accounts WHERE username = ?`
	queryReferralCodeExists = `SELECT 1 FROM accounts WHERE referral_code = ?`
	queryAccountExists      = `SELECT 1 FROM accounts WHERE id = ?`

	querySetAccountActive = `
		UPDATE accounts
		SET active = ?, updated_at = ?
		WHERE id = ?`

	queryBanAccount = `
		UPDATE accounts
		SET banned = 1, ban_expires_at = ?, ban_reason = ?, banned_at = ?, updated_at = ?
		WHERE id = ?`

	queryUnbanAccount = `
		UPDATE accounts
		SET banned = 0, ban_expires_at = NULL, ban_reason = NULL, banned_at = NULL, updated_at = ?
		WHERE id = ?`

	queryListTemporaryBans = `
		SELECT id, ban_expires_at
		FROM accounts
		WHERE banned = 1 AND ban_expires_at IS NOT NULL`
)

// Balance and ledger queries
const (
	// The guard keeps the stored balance from going negative under concurrent debits.
	queryApplyBalanceDelta = `
		UPDATE accounts
		SET balance_cents = balance_cents + ?, updated_at = ?
		WHERE id = ? AND balance_cents + ? >= 0
		RETURNING balance_cents`

	queryGetBalance = `SELECT balance_cents FROM accounts WHERE id = ?`

	queryInsertLedgerEntry = `
		INSERT INTO ledger_entries (id, account_id, entry_type, amount_cents, balance_before_cents, balance_after_cents, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetLedgerHistory = `
		SELECT id, account_id, entry_type, amount_cents, balance_before_cents, balance_after_cents, reference, created_at
		FROM ledger_entries
		WHERE account_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`

	queryLedgerSum = `SELECT COALESCE(SUM(amount_cents), 0) FROM ledger_entries WHERE account_id = ?`

	queryReconcileAll = `
		SELECT a.id, a.balance_cents, COALESCE(SUM(l.amount_cents), 0) AS ledger_cents
		FROM accounts a
		LEFT JOIN ledger_entries l ON l.account_id = a.id
		GROUP BY a.id, a.balance_cents
		HAVING a.balance_cents != ledger_cents
		ORDER BY a.id`
)

// Referral queries
const (
	queryInsertReferral = `
		INSERT INTO referrals (referrer_id, referred_id, bonus_cents, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`
)

// Track queries
const (
	queryInsertTrack = `
		INSERT INTO tracks (artist_id, title, filename, genre, description, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING ` + trackColumns

	queryGetTrack = `
		SELECT ` + trackColumns + `
		FROM tracks
		WHERE id = ?`

	queryListActiveTracks = `
		SELECT ` + trackColumns + `
		FROM tracks
		WHERE active = 1
		ORDER BY uploaded_at DESC, id DESC`

	queryListArtistTracks = `
		SELECT ` + trackColumns + `
		FROM tracks
		WHERE artist_id = ?
		ORDER BY uploaded_at DESC, id DESC`

	queryListTracks = `
		SELECT ` + trackColumns + `
		FROM tracks
		ORDER BY id`

	queryCountArtistTracks = `SELECT COUNT(*) FROM tracks WHERE artist_id = ?`

	querySetTrackActive = `UPDATE tracks SET active = ? WHERE id = ?`

	// Relative increments so concurrent plays on one track never lose an update.
	queryIncrementTrackPlay = `
		UPDATE tracks
		SET plays = plays + 1, earnings_cents = earnings_cents + ?
		WHERE id = ? AND active = 1
		RETURNING artist_id, plays, earnings_cents`
)

// Ad session queries
const (
	queryUpsertAdStart = `
		INSERT INTO ad_sessions (account_id, ad_nonce, ad_started_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			ad_nonce = excluded.ad_nonce,
			ad_started_at = excluded.ad_started_at,
			updated_at = excluded.updated_at`

	queryGetAdSession = `
		SELECT account_id, ad_nonce, ad_started_at, unlock_expires_at, updated_at
		FROM ad_sessions
		WHERE account_id = ?`

	// Consumes the pending start; the nonce check stops a second completion of the same ad.
	queryConsumeAdStart = `
		UPDATE ad_sessions
		SET ad_nonce = NULL, ad_started_at = NULL, unlock_expires_at = ?, updated_at = ?
		WHERE account_id = ? AND ad_nonce = ?`

	queryGetUnlockExpiry = `
		SELECT unlock_expires_at
		FROM ad_sessions
		WHERE account_id = ?`

	queryClearUnlock = `
		UPDATE ad_sessions
		SET unlock_expires_at = NULL, updated_at = ?
		WHERE account_id = ? AND unlock_expires_at IS NOT NULL`

	queryInsertAdWatch = `
		INSERT INTO ad_watches (streamer_id, reward_cents, watched_at)
		VALUES (?, ?, ?)
		RETURNING id`
)

// Play queries
const (
	queryInsertPlay = `
		INSERT INTO plays (streamer_id, track_id, streamer_reward_cents, artist_reward_cents, played_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`
)

// Withdrawal queries
const (
	queryInsertWithdrawal = `
		INSERT INTO withdrawals (account_id, amount_cents, status, requested_at)
		VALUES (?, ?, 'pending', ?)
		RETURNING ` + withdrawalColumns

	queryGetWithdrawal = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE id = ?`

	querySettleWithdrawal = `
		UPDATE withdrawals
		SET status = ?, processed_at = ?, rejection_reason = ?, processed_by = ?
		WHERE id = ? AND status = 'pending'`
)

// Stats queries
const (
	queryCountStreamerPlays     = `SELECT COUNT(*) FROM plays WHERE streamer_id = ?`
	queryCountStreamerAdWatches = `SELECT COUNT(*) FROM ad_watches WHERE streamer_id = ?`
	queryReferralTotals         = `SELECT COUNT(*), COALESCE(SUM(bonus_cents), 0) FROM referrals WHERE referrer_id = ?`

	queryArtistTotals = `
		SELECT COUNT(*), COALESCE(SUM(plays), 0), COALESCE(SUM(earnings_cents), 0)
		FROM tracks
		WHERE artist_id = ?`

	queryArtistUniqueListeners = `
		SELECT COUNT(DISTINCT p.streamer_id)
		FROM plays p
		JOIN tracks t ON t.id = p.track_id
		WHERE t.artist_id = ?`

	queryArtistTopTracks = `
		SELECT ` + trackColumns + `
		FROM tracks
		WHERE artist_id = ?
		ORDER BY plays DESC, id ASC
		LIMIT ?`

	queryAccountCounts = `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN role = 'streamer' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN role = 'artist' THEN 1 ELSE 0 END), 0)
		FROM accounts`

	queryTrackTotals = `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN active = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(plays), 0),
			COALESCE(SUM(earnings_cents), 0)
		FROM tracks`

	queryPendingWithdrawalTotals = `
		SELECT COUNT(*), COALESCE(SUM(amount_cents), 0)
		FROM withdrawals
		WHERE status = 'pending'`

	queryTopArtists = `
		SELECT a.id, a.username, COALESCE(SUM(t.earnings_cents), 0) AS earnings
		FROM accounts a
		LEFT JOIN tracks t ON t.artist_id = a.id
		WHERE a.role = 'artist'
		GROUP BY a.id, a.username
		ORDER BY earnings DESC, a.id ASC
		LIMIT ?`
)

// Report scans. Range filtering happens on the scanned timestamps.
const (
	queryReportEarningEntries = `
		SELECT le.account_id, a.username, a.role, le.entry_type, le.amount_cents, le.created_at
		FROM ledger_entries le
		JOIN accounts a ON a.id = le.account_id
		WHERE le.entry_type IN ('ad_reward', 'play_reward', 'play_royalty', 'referral_bonus')`

	queryReportAccounts = `
		SELECT role, created_at FROM accounts`

	queryReportReferrals = `
		SELECT created_at FROM referrals`

	queryReportTracks = `
		SELECT uploaded_at FROM tracks`

	queryReportPlays = `
		SELECT p.track_id, t.title, t.artist_id, p.streamer_id, p.artist_reward_cents, p.played_at
		FROM plays p
		JOIN tracks t ON t.id = p.track_id`
)
