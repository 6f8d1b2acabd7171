// Package shared holds code used across fuelpipe packages that belongs to no
// single layer.
//
// The testutil subpackage provides what the package tests have in common:
//
//   - BufferedSlogHandler and NewTestLogger for asserting on structured logs
//   - FuelPurchaseCSV, a raw export that hits every cleaning and validation path
//   - NewLookupServer, a fake postal code service that counts its requests
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//		logger, logs := testutil.NewTestLogger(t)
//		srv, calls := testutil.NewLookupServer(t)
//		// ...
//		testutil.AssertNoErrors(t, logs)
//	}
package shared
