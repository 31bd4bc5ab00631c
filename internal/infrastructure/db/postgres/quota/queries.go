package quota

const (
	// ChargeUsage returns no row when actual_bytes would pass the ceiling ($4).
	ChargeUsage = `
		INSERT INTO quota_usage (owner, original_bytes, actual_bytes, updated_at)
		SELECT $1, $2::bigint, $3::bigint, now()
		WHERE $3::bigint <= $4::bigint
		ON CONFLICT (owner) DO UPDATE
		SET original_bytes = quota_usage.original_bytes + EXCLUDED.original_bytes,
		    actual_bytes = quota_usage.actual_bytes + EXCLUDED.actual_bytes,
		    updated_at = now()
		WHERE quota_usage.actual_bytes + EXCLUDED.actual_bytes <= $4::bigint
		RETURNING owner, original_bytes, actual_bytes, updated_at
	`
	CreditUsage = `
		UPDATE quota_usage
		SET original_bytes = GREATEST(original_bytes - $2, 0),
		    actual_bytes = GREATEST(actual_bytes - $3, 0),
		    updated_at = now()
		WHERE owner = $1
		RETURNING owner, original_bytes, actual_bytes, updated_at
	`
	SelectUsage = `
		SELECT owner, original_bytes, actual_bytes, updated_at
		FROM quota_usage
		WHERE owner = $1
	`
	AttachHolding = `
		INSERT INTO owner_holdings (owner, fingerprint, reference_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (owner, fingerprint) DO UPDATE
		SET reference_count = owner_holdings.reference_count + 1
		RETURNING reference_count
	`
	DetachHolding = `
		UPDATE owner_holdings
		SET reference_count = reference_count - 1
		WHERE owner = $1 AND fingerprint = $2 AND reference_count > 0
		RETURNING reference_count
	`
	DeleteEmptyHolding = `
		DELETE FROM owner_holdings
		WHERE owner = $1 AND fingerprint = $2 AND reference_count = 0
	`
)
