package main

// Process exit codes.
const (
	ExitSuccess       = 0 // Success
	ExitError         = 1 // General error
	ExitConfigError   = 2 // Configuration could not be loaded or is invalid
	ExitDataError     = 3 // Invalid arguments or unknown source
	ExitNotFound      = 4 // Requested paper, author or journal does not exist
	ExitUpstreamError = 5 // Source rejected, failed or returned unusable data
)
