package storage

const (
	insertRecord = `
INSERT INTO records (
    ref, expense_name, category, amount_cents, original_amount_cents, date, month, year,
    payment_method, shared, shared_percentage, billing_cycle, time_stamp
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	recordColumns = `
    id, ref, expense_name, category, amount_cents, original_amount_cents, date, month, year,
    payment_method, shared, shared_percentage, billing_cycle, time_stamp,
    version, sync_status, sync_attempts, last_sync_error, created_at`

	selectAllRecords = `SELECT` + recordColumns + ` FROM records ORDER BY id`

	selectRecord = `SELECT` + recordColumns + ` FROM records WHERE id = ?`

	recordExists = `SELECT 1 FROM records WHERE id = ?`

	selectPendingSync = `
SELECT id, version, created_at FROM records
WHERE sync_status IN ('pending', 'error') AND sync_attempts < ?
ORDER BY id
LIMIT ?`

	claimSync = `
UPDATE records SET sync_claimed_at = CURRENT_TIMESTAMP
WHERE id = ? AND sync_status != 'synced'
  AND (sync_claimed_at IS NULL OR sync_claimed_at < datetime('now', ?))`

	markSynced = `
UPDATE records SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP, last_sync_error = '',
    sync_claimed_at = NULL
WHERE id = ?`

	markSyncError = `
UPDATE records SET sync_status = 'error', sync_attempts = sync_attempts + 1, last_sync_error = ?,
    sync_claimed_at = NULL
WHERE id = ?`

	countByStatus = `SELECT sync_status, COUNT(*) FROM records GROUP BY sync_status`
)
