// Package app contains the core application logic. It builds the function
// catalog and the push client from a Config and runs them, decoupled from
// any specific entrypoint like a CLI or server.
package app
