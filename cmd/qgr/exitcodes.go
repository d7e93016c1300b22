package main

// Exit codes shared by all commands.
const (
	ExitSuccess       = 0 // Success
	ExitError         = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError   = 2 // Configuration error (missing workspace, invalid config)
	ExitServiceError  = 3 // External service unavailable (Milvus, Ollama, GROBID)
	ExitDataError     = 4 // Data error (malformed input, validation failure)
	ExitModelNotFound = 5 // Embedding model not found
	ExitQuotaError    = 6 // All YouTube API keys exhausted their quota
)
