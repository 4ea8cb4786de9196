package planner

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"flsorter/internal/catalog"
	"flsorter/internal/matching"
)

// ErrDestinationCollision reports a destination already taken by another file.
var ErrDestinationCollision = errors.New("destination collision")

// Kind classifies an operation.
type Kind int

const (
	CreateDirIfMissing Kind = iota
	Move
	Skip
)

func (k Kind) String() string {
	switch k {
	case CreateDirIfMissing:
		return "mkdir"
	case Move:
		return "move"
	case Skip:
		return "skip"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Operation is one filesystem mutation intent. For CreateDirIfMissing only
// Destination is set.
type Operation struct {
	Kind        Kind
	Source      string
	Destination string
	Category    catalog.Category
	Group       string
}

// Collision is a placement that could not be planned because its destination
// is taken.
type Collision struct {
	Source      string
	Destination string
	// Occupant is the path already holding (or claiming) the destination.
	Occupant string
	Group    string
	Err      error
}

func (c Collision) Error() string {
	return fmt.Sprintf("%s -> %s: %v (occupied by %s)", c.Source, c.Destination, c.Err, c.Occupant)
}

func (c Collision) Unwrap() error { return c.Err }

// Plan is the complete set of operations for one run.
type Plan struct {
	Operations []Operation
	Collisions []Collision
	Unassigned int
}

// Count returns the number of operations of the given kind.
func (p *Plan) Count(kind Kind) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, op := range p.Operations {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Effective reports whether executing the plan would move anything.
func (p *Plan) Effective() bool {
	return p.Count(Move) > 0
}

// Occupancy answers whether a path already exists.
type Occupancy interface {
	Occupied(path string) bool
}

// OccupancyFunc adapts a function to Occupancy.
type OccupancyFunc func(path string) bool

func (f OccupancyFunc) Occupied(path string) bool { return f(path) }

// PathSet is an in-memory Occupancy.
type PathSet map[string]struct{}

// NewPathSet builds a PathSet from paths.
func NewPathSet(paths ...string) PathSet {
	set := make(PathSet, len(paths))
	for _, p := range paths {
		set[filepath.Clean(p)] = struct{}{}
	}
	return set
}

func (s PathSet) Occupied(path string) bool {
	_, ok := s[filepath.Clean(path)]
	return ok
}

type candidate struct {
	source      string
	destination string
	placement   matching.Placement
}

// Destination returns <category-root>/<group>/<file name> for a placement.
func Destination(roots map[catalog.Category]string, p matching.Placement) (string, error) {
	root, ok := roots[p.Plugin.Category]
	if !ok || strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("no root configured for %s plugins", p.Plugin.Category)
	}
	return filepath.Join(root, p.Group.Name, filepath.Base(p.Plugin.Path)), nil
}

// Build plans every assigned placement.
func Build(placements []matching.Placement, roots map[catalog.Category]string, occ Occupancy) (*Plan, error) {
	if occ == nil {
		occ = PathSet{}
	}
	plan := &Plan{}
	var inPlace, movers []candidate
	for _, p := range placements {
		if !p.Assigned() {
			plan.Unassigned++
			continue
		}
		dest, err := Destination(roots, p)
		if err != nil {
			return nil, err
		}
		c := candidate{source: filepath.Clean(p.Plugin.Path), destination: dest, placement: p}
		if c.source == c.destination {
			inPlace = append(inPlace, c)
		} else {
			movers = append(movers, c)
		}
	}
	bySource := func(a, b candidate) int { return strings.Compare(a.source, b.source) }
	slices.SortFunc(inPlace, bySource)
	slices.SortFunc(movers, bySource)

	claimed := make(map[string]string, len(inPlace)+len(movers))
	for _, c := range inPlace {
		claimed[c.destination] = c.source
		plan.Operations = append(plan.Operations, c.operation(Skip))
	}

	byDir := make(map[string][]Operation)
	for _, c := range movers {
		occupant, taken := claimed[c.destination]
		if !taken && occ.Occupied(c.destination) {
			occupant, taken = c.destination, true
		}
		if taken {
			plan.Collisions = append(plan.Collisions, Collision{
				Source:      c.source,
				Destination: c.destination,
				Occupant:    occupant,
				Group:       c.placement.Group.Name,
				Err:         ErrDestinationCollision,
			})
			continue
		}
		claimed[c.destination] = c.source
		dir := filepath.Dir(c.destination)
		byDir[dir] = append(byDir[dir], c.operation(Move))
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)
	for _, dir := range dirs {
		moves := byDir[dir]
		first := moves[0]
		plan.Operations = append(plan.Operations, Operation{
			Kind:        CreateDirIfMissing,
			Destination: dir,
			Category:    first.Category,
			Group:       first.Group,
		})
		plan.Operations = append(plan.Operations, moves...)
	}
	return plan, nil
}

func (c candidate) operation(kind Kind) Operation {
	return Operation{
		Kind:        kind,
		Source:      c.source,
		Destination: c.destination,
		Category:    c.placement.Plugin.Category,
		Group:       c.placement.Group.Name,
	}
}
