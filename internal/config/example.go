package config

import _ "embed"

// ExampleConfig is written by `mathminds init`.
//
//go:embed config.example.json
var ExampleConfig []byte
