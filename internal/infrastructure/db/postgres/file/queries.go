package file

const (
	fileColumns = `f.id, f.owner, f.original_filename, f.file_type, f.size, f.fingerprint, f.is_reference, f.uploaded_at, h.reference_count`
	holdingJoin = `LEFT JOIN owner_holdings h ON h.owner = f.owner AND h.fingerprint = f.fingerprint`

	InsertFile = `
		WITH f AS (
			INSERT INTO files (id, owner, original_filename, file_type, size, fingerprint, is_reference, uploaded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, owner, original_filename, file_type, size, fingerprint, is_reference, uploaded_at
		)
		SELECT ` + fileColumns + `
		FROM f ` + holdingJoin
	SelectFileByID = `
		SELECT ` + fileColumns + `
		FROM files f ` + holdingJoin + `
		WHERE f.owner = $1 AND f.id = $2
	`
	// SelectFiles and CountFiles are completed by the filter builder.
	SelectFiles = `
		SELECT ` + fileColumns + `
		FROM files f ` + holdingJoin
	CountFiles = `
		SELECT count(*)
		FROM files f`
	SelectFileTypes = `
		SELECT DISTINCT file_type
		FROM files
		WHERE owner = $1
		ORDER BY file_type
	`
	CountByFingerprint = `
		SELECT count(*)
		FROM files
		WHERE owner = $1 AND fingerprint = $2
	`
	DeleteFileByID = `
		DELETE FROM files
		WHERE owner = $1 AND id = $2
		RETURNING id, owner, original_filename, file_type, size, fingerprint, is_reference, uploaded_at
	`
)
