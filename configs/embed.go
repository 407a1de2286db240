// Package configs provides the embedded configuration template for docsift.
//
// The template is embedded at build time with go:embed so it ships in
// every distribution, source builds included. `docsift init` writes it
// as .docsift.yaml in the current directory.
package configs

import _ "embed"

// ProjectConfigTemplate is the annotated template for per-project
// configuration, written by `docsift init` as .docsift.yaml.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
