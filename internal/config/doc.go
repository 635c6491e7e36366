// Package config defines the installer settings and provides helpers to
// load, validate and save them in YAML format.
//
// Every field is optional: Validate fills defaults, including the cache
// directory derived from $HOME. A configured cache_dir may start with ~,
// which is expanded with go-homedir.
package config
