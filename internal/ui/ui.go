// Package ui embeds the control page.
package ui

import "embed"

// DistFS holds the built page under dist/.
//
//go:embed dist
var DistFS embed.FS
