// Package config defines the configuration surface of the Cerberus guard
// layer and the machinery around it: YAML loading with environment variable
// overrides, defaults, validation, an atomically swapped immutable snapshot
// store, and a file watcher for hot reload.
//
// Guard components never read mutable global fields. Each evaluation takes one
// immutable *Config snapshot from a Store, so a concurrent reload can never
// produce a torn read.
package config
