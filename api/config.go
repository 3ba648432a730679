package api

// Config holds the API server settings.
type Config struct {
	ListenAddr string
}
