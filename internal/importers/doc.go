// Package importers reads JSON backups and CSV exports back into the library.
//
// # Architecture
//
//	Source Data → Converter → Record → Pipeline → database
//
// Each format implements Converter, which turns the raw file into Records.
// The Pipeline applies records one by one, each in its own transaction, so a
// bad row is reported without stopping the rest of the import.
//
// # Matching
//
// JSON records match an existing book by id, then ISBN, then title and
// author; CSV records by ISBN, then title and author. Titles and names are
// trimmed and NFC-normalized before they are stored or compared.
//
// # Example Usage
//
//	pipeline := importers.NewPipeline(db)
//	stats, err := pipeline.Import(ctx, importers.NewJSONConverter(data), userID)
package importers
