package stockimport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// products_company_supplier_sku_idx is a partial unique index; Postgres only
// infers it as an ON CONFLICT arbiter when the conflict target repeats the
// index predicate. Dropping the predicate makes every import commit fail
// with 42P10 at the first product line.
func TestUpsertProductConflictTargetNamesIndexPredicate(t *testing.T) {
	require.Contains(t, upsertProductSQL,
		"ON CONFLICT (company_id, supplier_id, sku) WHERE supplier_id IS NOT NULL")
}
