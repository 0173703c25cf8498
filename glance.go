package glance

import (
	_ "embed"
)

//go:embed VERSION
var Version string

//go:embed glance.toml
var DefaultConfig string
