// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a sane console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Info, InfoKV, ErrorKV, etc.).
//
// Every pipeline stage accepts a context and extracts the logger from it,
// so messages from the resolver, the cache and the supervisor stay scoped.
package logger
