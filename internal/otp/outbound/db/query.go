package db

const (
	recordColumns = `id, identity, code, created_at, expires_at, is_used, attempts, verified_at`

	queryFindLatest = `SELECT ` + recordColumns + `
		FROM otp_records
		WHERE identity = $1
		ORDER BY created_at DESC
		LIMIT 1`

	queryFindActive = `SELECT ` + recordColumns + `
		FROM otp_records
		WHERE identity = $1 AND NOT is_used AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1`

	queryCountSince = `SELECT COUNT(*) FROM otp_records WHERE identity = $1 AND created_at >= $2`

	queryLockIdentity = `SELECT pg_advisory_xact_lock(hashtext($1))`

	queryInvalidateUnused = `UPDATE otp_records SET is_used = TRUE WHERE identity = $1 AND NOT is_used`

	queryInsert = `INSERT INTO otp_records (id, identity, code, created_at, expires_at, is_used, attempts)
		VALUES ($1, $2, $3, $4, $5, FALSE, 0)`

	queryIncrementAttempts = `UPDATE otp_records SET attempts = attempts + 1
		WHERE id = $1 AND attempts = $2 AND NOT is_used`

	queryMarkUsed = `UPDATE otp_records SET is_used = TRUE, verified_at = $2
		WHERE id = $1 AND NOT is_used`

	queryPurgeExpired = `DELETE FROM otp_records WHERE expires_at < $1`
)
