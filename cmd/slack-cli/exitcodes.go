package main

// Exit codes
const (
	ExitSuccess = 0 // Success
	ExitError   = 1 // Usage error, unknown source, invalid or missing credentials
	ExitFailure = 2 // Anything else (network, API, I/O)
)
