package content

const (
	// LockFingerprint is released when the surrounding transaction ends.
	LockFingerprint = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	UpsertObject    = `
		INSERT INTO content_objects (fingerprint, byte_size, reference_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (fingerprint) DO UPDATE
		SET reference_count = content_objects.reference_count + 1
		RETURNING fingerprint, byte_size, reference_count, created_at
	`
	DecrementObject = `
		UPDATE content_objects
		SET reference_count = reference_count - 1
		WHERE fingerprint = $1
		RETURNING reference_count
	`
	DeleteUnreferencedObject = `
		DELETE FROM content_objects
		WHERE fingerprint = $1 AND reference_count = 0
	`
	SelectObject = `
		SELECT fingerprint, byte_size, reference_count, created_at
		FROM content_objects
		WHERE fingerprint = $1
	`
)
