package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// FuelHeader is the column layout of a fuel purchase export
var FuelHeader = []string{
	"Transaction Date", "Driver ID", "Full Address",
	"Fuel Type", "Gallons Purchased", "Gross Price",
}

// FuelPurchaseCSV is a small raw export covering every cleaning and
// validation path: a duplicate, a non-fuel purchase, a malformed price,
// a negative quantity, outliers and a bad date.
const FuelPurchaseCSV = `Transaction Date,Driver ID,Full Address,Fuel Type,Gallons Purchased,Gross Price
2025-04-17,D100,"12 Main St, Springfield, IL",Diesel,10,35.00
2025-04-17,D100,"12 Main St, Springfield, IL",Diesel,10,35.00
2025-04-18,D101,"400 High St, Columbus, OH 43215",Unleaded,12.5,48.1
2025-04-18,D102,"9 Elm Rd, Columbus, OH",Unleaded,-5,20.00
2025-04-19,D103,"77 Pine Ave, Dayton, OH",Diesel,0,10.00
04/20/2025,D104,"1 Lake Dr, Columbus, OH",Diesel,150,1200.50
2025-04-20,D-105,"5 Oak St, Columbus, OH",Diesel,8,28
2025-04-20,D106,"8 Ash Ct, Akron, OH",Diesel,5,abc
2025-04-21,D107,"3 Birch Ln, Toledo, OH",Pepsi Max,1,2.50
2025-04-21,D108,Unknown,Diesel,4,14.00
`

// PostalCodes is what the fake lookup service knows; other cities get no results
var PostalCodes = map[string]string{
	"Springfield|IL": "62701",
	"Columbus|OH":    "43215",
}

// WriteFile writes content under dir, creating parent directories, and
// returns the full path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// ReadLines returns the lines of a file without the trailing newline
func ReadLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// NewLookupServer starts a fake postal code service answering from PostalCodes.
// The returned counter holds the number of requests received.
func NewLookupServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if code, ok := PostalCodes[q.Get("city")+"|"+q.Get("state_name")]; ok {
			fmt.Fprintf(w, `{"query":{"codes":[]},"results":[{"postal_code":%q}]}`, code)
			return
		}
		fmt.Fprint(w, `{"query":{"codes":[]},"results":[]}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}
