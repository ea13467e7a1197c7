// Package testdb provides helpers for tests that run against a real
// PostgreSQL database. They are compiled only with the integration build
// tag and skip when VOCAB_TEST_DATABASE_URL is not set.
//
// Typical use:
//
//	db := testdb.Open(t)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//		s := postgres.NewPostgresProgressStore(tx, logger)
//		...
//	})
package testdb
