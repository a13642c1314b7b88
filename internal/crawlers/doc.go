// Package crawlers implements the incremental feed crawl.
//
// The package is split along one boundary: the Controller runs the crawl
// state machine against the Adapter interface, and the rod-backed adapter is
// the only code that talks to a real browser. Everything above the adapter
// deals in item handles and extracted posts, never in DOM nodes, so the
// whole loop is testable against a fake page.
package crawlers
