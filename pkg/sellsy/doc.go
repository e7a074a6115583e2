// Package sellsy provides types, interfaces, and helpers for working with
// the Sellsy V2 API.
//
// # Overview
//
// The sellsy package defines the domain types (Page, RawRecord, FlatRecord,
// CustomField, CustomFieldCatalog) and the interfaces for the client
// (Client, CustomFieldsClient, RecordsClient). A concrete implementation is
// provided by the sellsyclient package, which wires configuration,
// transport, authentication, and optional custom-field discovery. Most
// consumers should import sellsyclient to construct a client.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
//	  "github.com/fivetwenty-io/sellsy-client/pkg/sellsyclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := sellsyclient.New(ctx, &sellsy.Config{
//	    ClientID:         "id",
//	    ClientSecret:     "secret",
//	    WithCustomFields: true,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  result, err := cli.Records().Fetch(ctx, "companies", "company", "")
//	  if err != nil { log.Fatal(err) }
//	  _ = result.Rows
//	}
//
// # Resuming
//
// Fetch returns a FetchResult whose ResumeCursor is empty when the
// collection was exhausted. After a truncated run it holds the last known
// pagination offset; passing it to the next Fetch request resumes the
// listing from the same point. Persisting the cursor between runs is the
// caller's responsibility (the pkg/export package provides stores).
// Resuming re-requests the last known offset and may duplicate or skip
// records if the upstream dataset mutated between runs.
//
// # Errors
//
// Failed token exchanges surface as *AuthError, exhausted HTTP retries as
// *ExhaustedRetriesError, and unmatched custom-field backfill records as
// *MergeMismatchError. IsAuthError and IsExhaustedRetries make it easy to
// branch on the common cases.
package sellsy
