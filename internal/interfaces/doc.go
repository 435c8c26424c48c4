// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Service Hooks
//
// Services report follow-up work through small, non-blocking hooks. With the
// task queue enabled tasks.Dispatcher implements all of them; otherwise the
// goroutine based fallbacks in internal/services are used.
//
//   - ReadHook: a book moved into Read (internal/services/hooks.go)
//   - AuthorHook: an author needs a biography (internal/services/hooks.go)
//   - DeletionHook: books were deleted (internal/http/books.go)
//
// ## External Service Interfaces
//
//   - ISBNSource: bibliographic lookup by ISBN (internal/metadata/lookup.go)
//   - BiographySource: author biographies (internal/services/authors.go)
//   - CoverInliner: cover image fetching (internal/services/hooks.go)
//
// ## Background Task Interfaces
//
//   - RewardGranter, BiographyFetcher, AuditEventCleaner, TagPruner
//     (internal/tasks)
//
// # Adding a New Import Format
//
//  1. Create a converter in internal/importers/ that turns the raw file into
//     Records and declares its Mode:
//
//     type GoodreadsConverter struct {
//         data []byte
//     }
//
//     func (c *GoodreadsConverter) Convert() ([]importers.Record, error)
//     func (c *GoodreadsConverter) Mode() importers.Mode { return importers.ModeConnect }
//     func (c *GoodreadsConverter) AllowIDMatch() bool  { return false }
//
//  2. Add an import handler in internal/http/data.go using importWith.
//
//  3. Register the route in router.go and add a check to checks.go.
//
// # Adding a New Metadata Provider
//
//  1. Implement ISBNSource in internal/metadata/:
//
//     func (c *WorldCatClient) LookupISBN(ctx context.Context, isbn string) (*BookRecord, error)
//
//  2. Pass it to metadata.NewLookup in entrypoint.go.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go.
package interfaces
