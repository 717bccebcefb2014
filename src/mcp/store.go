package mcp

import (
	"buildtrend/src/buildstore"
)

// BuildSource supplies the current build history to the tools.
type BuildSource interface {
	Load() (*buildstore.Store, error)
}

// FileSource rereads the store file on every call so a running scrape is
// visible without restarting the server.
type FileSource struct {
	Path string
}

// Load reads the store. A missing file is an empty history.
func (f FileSource) Load() (*buildstore.Store, error) {
	return buildstore.Load(f.Path)
}
