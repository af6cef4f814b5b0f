// Package core implements the feed ingestion and normalization pipeline.
//
// The package holds all domain logic and no transport code. Web handlers,
// the CLI and the sync scheduler all feed the same pipeline:
//
//	Source -> Tokenize -> ResolveHeader (row 0) -> Assemble (rows 1..n)
//	       -> Service.persist (one transaction, savepoint per record)
//
// # Normalization
//
// Header cells are matched to canonical fields by alias substrings
// ([DefaultAliases]), in Russian or English. Cells are then coerced by total
// functions that never fail: unparseable numbers become 0, unknown feed
// types become dry, unknown species dog, unknown categories adult. Calcium
// and phosphorus are normalized to mg per 100 g using the header text and
// the magnitude of the value; energy headers labelled per 100 g are scaled
// to kcal/kg.
//
// # Import Semantics
//
// An import is one transaction. With ReplaceExisting, public feeds (those
// without an owner) are deleted first; user-owned feeds are never touched.
// Each record is inserted under its own savepoint, so a constraint
// violation is counted in ImportSummary.Errors without aborting the batch.
// Imported + Errors always equals the number of assembled records.
// Failures of the transaction itself are returned as *ImportError and leave
// the store unchanged.
//
// Only one import writes at a time; see [ImportLimiter].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
package core
