package output

import (
	"io"
	"sort"

	"github.com/brandonbloom/spie/exchange"
)

type Printer interface {
	PrintStatusLine(proto string, status string, statusCode int) error
	PrintRequestLine(method string, target string, proto string) error
	PrintHeader(header []exchange.HeaderPair) error
	PrintBody(body io.Reader, contentType string) error
}

// sortedHeader orders header fields by name. Fields sharing a name keep
// their relative order.
func sortedHeader(header []exchange.HeaderPair) []exchange.HeaderPair {
	sorted := make([]exchange.HeaderPair, len(header))
	copy(sorted, header)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}
