// Package view holds the presentation state of the showcase: the item list,
// the review panel of one item and the review form feeding it. It also owns
// the JSON view models served by the HTTP API and the terminal renderers
// used by cmd/showcase.
//
// The state types only depend on small source interfaces, so they run the
// same over the in-process services and over the HTTP client.
package view
