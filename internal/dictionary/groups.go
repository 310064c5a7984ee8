// Package dictionary holds the predefined chart of account groups seeded for
// every company.
package dictionary

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tinoosan/bookkeeping/internal/ledger"
)

// GroupDef describes one predefined account group.
type GroupDef struct {
	Name     string          `yaml:"name" json:"name"`
	Category ledger.Category `yaml:"category" json:"category"`
	Parent   string          `yaml:"parent,omitempty" json:"parent,omitempty"`
}

//go:embed groups.yaml
var groupsYAML []byte

var predefined = mustLoad(groupsYAML)

func mustLoad(raw []byte) []GroupDef {
	defs, err := parse(raw)
	if err != nil {
		panic(err)
	}
	return defs
}

func parse(raw []byte) ([]GroupDef, error) {
	var doc struct {
		Groups []GroupDef `yaml:"groups"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("dictionary: parse groups: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Groups))
	for _, g := range doc.Groups {
		if g.Name == "" || !g.Category.Valid() {
			return nil, fmt.Errorf("dictionary: invalid group %q (%s)", g.Name, g.Category)
		}
		if _, ok := seen[g.Name]; ok {
			return nil, fmt.Errorf("dictionary: duplicate group %q", g.Name)
		}
		seen[g.Name] = struct{}{}
	}
	return doc.Groups, nil
}

// IsPredefined reports whether name is one of the seeded groups.
func IsPredefined(name string) bool {
	for _, g := range predefined {
		if g.Name == name {
			return true
		}
	}
	return false
}

// GroupsFor returns the predefined groups of a category, or all of them when
// c is nil, sorted by category order then name.
func GroupsFor(c *ledger.Category) []GroupDef {
	out := make([]GroupDef, 0, len(predefined))
	for _, g := range predefined {
		if c != nil && g.Category != *c {
			continue
		}
		out = append(out, g)
	}
	rank := make(map[ledger.Category]int, len(ledger.Categories))
	for i, cat := range ledger.Categories {
		rank[cat] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return rank[out[i].Category] < rank[out[j].Category]
		}
		return out[i].Name < out[j].Name
	})
	return out
}
