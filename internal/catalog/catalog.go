package catalog

import (
	"errors"
	"fmt"
	"strings"

	"flsorter/internal/shortcut"
)

var (
	// ErrCatalog marks configuration problems that make the whole catalog unusable.
	ErrCatalog = errors.New("catalog error")
	// ErrDuplicateGroupName reports two groups with the same name in one category.
	ErrDuplicateGroupName = errors.New("duplicate group name")
	// ErrAmbiguousMembership reports a plugin listed in several groups under the strict policy.
	ErrAmbiguousMembership = errors.New("ambiguous group membership")
)

// Category separates effect plugins from generator plugins.
type Category int

const (
	Effect Category = iota
	Generator
)

// Categories lists every category in load order.
var Categories = []Category{Effect, Generator}

func (c Category) String() string {
	switch c {
	case Effect:
		return "effect"
	case Generator:
		return "generator"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// ParseCategory maps a category name ("effect", "generator") to its value.
func ParseCategory(value string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "effect", "effects":
		return Effect, nil
	case "generator", "generators":
		return Generator, nil
	default:
		return 0, fmt.Errorf("unknown category %q (want effect or generator)", value)
	}
}

// Precedence decides what happens when one plugin is listed in several groups.
type Precedence int

const (
	// PrecedenceFirstLoaded assigns the plugin to the group loaded first.
	PrecedenceFirstLoaded Precedence = iota
	// PrecedenceStrict rejects the catalog.
	PrecedenceStrict
)

// ParsePrecedence maps a config value to a Precedence.
func ParsePrecedence(value string) (Precedence, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "first", "first_loaded":
		return PrecedenceFirstLoaded, nil
	case "strict":
		return PrecedenceStrict, nil
	default:
		return 0, fmt.Errorf("unknown precedence %q (want first or strict)", value)
	}
}

// Spec is one parsed group definition prior to validation.
type Spec struct {
	Name     string
	Category Category
	Members  []string
	// Source identifies where the spec came from (usually a file path).
	Source string
}

// Group is a validated, immutable group definition.
type Group struct {
	Name     string
	Category Category
	Members  []string
	Source   string
}

// Shadowed records a membership that lost to an earlier group.
type Shadowed struct {
	Category  Category
	Plugin    string
	Winner    *Group
	Discarded *Group
}

// Catalog indexes groups by category and canonical plugin name.
type Catalog struct {
	groups   map[Category][]*Group
	index    map[Category]map[string]*Group
	shadowed []Shadowed
}

type options struct {
	precedence Precedence
}

// Option customizes Load.
type Option func(*options)

// WithPrecedence selects the duplicate membership policy.
func WithPrecedence(p Precedence) Option {
	return func(o *options) { o.precedence = p }
}

// Load validates specs in the given order and builds the lookup index.
// Callers must supply specs in a stable order (the file reader sorts by
// filename) because that order decides membership precedence.
func Load(specs []Spec, opts ...Option) (*Catalog, error) {
	o := options{precedence: PrecedenceFirstLoaded}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Catalog{
		groups: make(map[Category][]*Group, len(Categories)),
		index:  make(map[Category]map[string]*Group, len(Categories)),
	}
	names := make(map[Category]map[string]*Group, len(Categories))
	for _, cat := range Categories {
		c.index[cat] = make(map[string]*Group)
		names[cat] = make(map[string]*Group)
	}

	for _, spec := range specs {
		if _, ok := c.index[spec.Category]; !ok {
			return nil, fmt.Errorf("%w: %s: unknown category %d", ErrCatalog, sourceLabel(spec), int(spec.Category))
		}
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: %s: group name is empty", ErrCatalog, sourceLabel(spec))
		}
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return nil, fmt.Errorf("%w: %s: group name %q is not a valid folder name", ErrCatalog, sourceLabel(spec), name)
		}
		if prev, ok := names[spec.Category][name]; ok {
			return nil, fmt.Errorf("%w: %w: %s group %q defined in %s and %s",
				ErrCatalog, ErrDuplicateGroupName, spec.Category, name, prev.Source, spec.Source)
		}

		group := &Group{
			Name:     name,
			Category: spec.Category,
			Members:  make([]string, 0, len(spec.Members)),
			Source:   spec.Source,
		}
		for _, member := range spec.Members {
			if member = strings.TrimSpace(member); member != "" {
				group.Members = append(group.Members, member)
			}
		}
		names[spec.Category][name] = group
		c.groups[spec.Category] = append(c.groups[spec.Category], group)

		for _, member := range group.Members {
			key := shortcut.Canonical(member)
			winner, taken := c.index[spec.Category][key]
			if !taken {
				c.index[spec.Category][key] = group
				continue
			}
			if winner == group {
				continue
			}
			if o.precedence == PrecedenceStrict {
				return nil, fmt.Errorf("%w: %w: %s plugin %q listed in groups %q and %q",
					ErrCatalog, ErrAmbiguousMembership, spec.Category, member, winner.Name, group.Name)
			}
			c.shadowed = append(c.shadowed, Shadowed{
				Category:  spec.Category,
				Plugin:    member,
				Winner:    winner,
				Discarded: group,
			})
		}
	}
	return c, nil
}

// Lookup returns the group that claims canonicalName in category.
func (c *Catalog) Lookup(category Category, canonicalName string) (*Group, bool) {
	if c == nil {
		return nil, false
	}
	group, ok := c.index[category][canonicalName]
	return group, ok
}

// Groups returns the groups of a category in load order.
func (c *Catalog) Groups(category Category) []*Group {
	if c == nil {
		return nil
	}
	return c.groups[category]
}

// Shadowed returns memberships discarded by the first-loaded policy.
func (c *Catalog) Shadowed() []Shadowed {
	if c == nil {
		return nil
	}
	return c.shadowed
}

// Len returns the total number of groups.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, groups := range c.groups {
		n += len(groups)
	}
	return n
}

func sourceLabel(spec Spec) string {
	if spec.Source != "" {
		return spec.Source
	}
	return "group definition"
}
