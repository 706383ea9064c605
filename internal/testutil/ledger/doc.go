// Package ledger provides test infrastructure for building bank ledgers. It offers a
// fluent API for assembling rows from fixtures and writing them out in the formats
// the ingest layer reads.
//
// Example usage:
//
//	path := ledger.NewBuilder(t).
//		WithFixture(ledger.FixtureNovember2021).
//		WithRow(ledger.Row{Date: "15.10.2021", Card: "*7197", Amount: "-1000.0", Category: "Супермаркеты"}).
//		WriteCSV(t.TempDir())
package ledger
