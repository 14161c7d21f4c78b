// Package config resolves runtime settings from CLI overrides, the process
// environment and an optional .env file.
package config
