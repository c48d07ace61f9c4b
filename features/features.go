// Package features embeds the default Gherkin suite so the lancet binary can
// run without a checkout of the repository.
package features

import "embed"

// FS holds every .feature file in this directory.
//
//go:embed *.feature
var FS embed.FS
