package callflow

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the release version of callflow.
var Version = strings.TrimSpace(version)
