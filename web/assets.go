// Package web contains the embedded dashboard assets.
package web

import "embed"

// Assets contains the embedded HTML for the ticker dashboard.
//
//go:embed *.html
var Assets embed.FS
