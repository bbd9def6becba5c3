package database

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

// Migration is one embedded SQL file split at its -- +up / -- +down markers.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	upMarker   = "-- +up"
	downMarker = "-- +down"
)

// LoadMigrations parses every NNNN_name.sql file under migrations/ in fsys,
// sorted by version.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	out := make([]Migration, 0, len(entries))
	seen := make(map[int]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ".sql")
		prefix, name, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("migration %q: expected NNNN_name.sql", entry.Name())
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %q: bad version: %w", entry.Name(), err)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %q and %q", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		raw, err := fs.ReadFile(fsys, "migrations/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", entry.Name(), err)
		}
		up, down, err := splitMigration(string(raw))
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", entry.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: name, Up: up, Down: down})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func splitMigration(raw string) (up, down string, err error) {
	upAt := strings.Index(raw, upMarker)
	downAt := strings.Index(raw, downMarker)
	if upAt < 0 || downAt < 0 || downAt < upAt {
		return "", "", fmt.Errorf("missing %q or %q section", upMarker, downMarker)
	}
	up = strings.TrimSpace(raw[upAt+len(upMarker) : downAt])
	down = strings.TrimSpace(raw[downAt+len(downMarker):])
	if up == "" {
		return "", "", fmt.Errorf("empty %q section", upMarker)
	}
	return up, down, nil
}

// Migrations returns the migrations compiled into the binary.
func Migrations() ([]Migration, error) {
	return LoadMigrations(migrationFS)
}
