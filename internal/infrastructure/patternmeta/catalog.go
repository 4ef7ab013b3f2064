package patternmeta

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

//go:embed motifs.yaml
var embeddedMotifs []byte

type motifFile struct {
	Motifs []motifEntry `yaml:"motifs"`
}

type motifEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Catalog is the static motif reference. It only describes motifs; which
// motifs can be selected is decided by the remote listing.
type Catalog struct {
	motifs []domain.PatternDescriptor
	byID   map[string]int
}

// Default parses the embedded motif reference.
func Default() (*Catalog, error) {
	return Parse(embeddedMotifs)
}

// Load reads an override file, or the embedded reference when path is empty.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read motif metadata %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var file motifFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse motif metadata: %w", err)
	}

	c := &Catalog{byID: make(map[string]int, len(file.Motifs))}
	for i, entry := range file.Motifs {
		name := strings.TrimSpace(entry.Name)
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			id = domain.PatternIDFromName(name)
		}
		if id == "" || name == "" {
			return nil, fmt.Errorf("parse motif metadata: entry %d needs a name", i)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("parse motif metadata: duplicate id %q", id)
		}
		c.byID[id] = len(c.motifs)
		c.motifs = append(c.motifs, domain.PatternDescriptor{
			ID:          id,
			Name:        name,
			Description: strings.TrimSpace(entry.Description),
		})
	}
	return c, nil
}

func (c *Catalog) Describe(id string) (domain.PatternDescriptor, bool) {
	idx, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return domain.PatternDescriptor{}, false
	}
	return c.motifs[idx], true
}

func (c *Catalog) Motifs() []domain.PatternDescriptor {
	out := make([]domain.PatternDescriptor, len(c.motifs))
	copy(out, c.motifs)
	return out
}

func (c *Catalog) Len() int {
	return len(c.motifs)
}
