package knowledge

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Open loads a knowledge base by file extension: .yaml/.yml files are read
// as YAML, .db/.sqlite as the SQLite medical database. An empty path
// returns the built-in base.
func Open(ctx context.Context, path string) (*Base, error) {
	if path == "" {
		return Default()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadFile(path)
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported knowledge file %q: want .yaml or .db", path)
	}
}
