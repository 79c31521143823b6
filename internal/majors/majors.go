// Package majors flattens the school/program catalog into the list of majors
// offered to users when they set up a profile.
package majors

import (
	_ "embed"
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/hpungsan/eventrank/internal/errors"
)

// Other is always present exactly once, last.
const Other = "Other"

//go:embed majors.json
var embedded []byte

// Catalog maps a school key to its programs.
type Catalog map[string]School

// School is one catalog entry.
type School struct {
	Name     string    `json:"name,omitempty"`
	Programs []Program `json:"programs"`
}

// Program is one degree program.
type Program struct {
	Major string `json:"major"`
}

// Parse decodes a catalog document.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.NewParse("majors catalog", err)
	}
	return c, nil
}

// Embedded returns the catalog compiled into the binary.
func Embedded() Catalog {
	c, err := Parse(embedded)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog file. An empty path returns the embedded catalog.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Embedded(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return Parse(data)
}

// List returns every major in the catalog, deduplicated and sorted, with
// Other appended once at the end.
func (c Catalog) List() []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, school := range c {
		for _, p := range school.Programs {
			major := strings.TrimSpace(p.Major)
			if major == "" || major == Other {
				continue
			}
			if _, ok := seen[major]; ok {
				continue
			}
			seen[major] = struct{}{}
			out = append(out, major)
		}
	}
	sort.Strings(out)
	return append(out, Other)
}
