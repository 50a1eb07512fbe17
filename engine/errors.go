// Package engine drives the two coexisting execution modes of spec.md
// §5: Mode A steps a live geometric adjacency engine tick by tick;
// Mode B replays a pre-materialised contact plan window by window. Mode
// A steps its ticks with the clock in timectrl; Mode B does not use a
// clock. Both share the accounting sink in ledger.
package engine

import "errors"

// ErrUnknownEndpoint indicates a configured bundle source or destination
// name is not registered in the node registry (spec.md §7 "Bundle
// endpoint names unknown").
var ErrUnknownEndpoint = errors.New("engine: bundle endpoint not registered")
