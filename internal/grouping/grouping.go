// Package grouping partitions a flat file set into folder groups keyed by
// the first segment of each file's relative path.
package grouping

import (
	"sort"
	"strings"

	"renamezip/internal/config"
	"renamezip/internal/errors"
	"renamezip/pkg/types"

	"github.com/gobwas/glob"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// DefaultGroup collects files that have no folder in their path.
	DefaultGroup = "root"
	// JunkName is always excluded regardless of configuration.
	JunkName = ".DS_Store"
)

// Options configures a Grouper
type Options struct {
	DefaultGroup string
	Exclude      []string // glob patterns matched against base names
	Sort         string   // config.SortLexical or config.SortLocale
	Locale       string   // BCP 47 tag for locale sorting
}

// Grouper derives groups and member order. It is safe for concurrent use.
type Grouper struct {
	defaultGroup string
	exclude      []glob.Glob
	locale       *language.Tag
}

// New compiles the exclusion globs and returns a Grouper.
func New(opts Options) (*Grouper, error) {
	g := &Grouper{defaultGroup: opts.DefaultGroup}
	if g.defaultGroup == "" {
		g.defaultGroup = DefaultGroup
	}

	for _, pattern := range opts.Exclude {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.NewConfigError("invalid exclude pattern "+pattern, "grouping.exclude", errors.InvalidConfig, err)
		}
		g.exclude = append(g.exclude, compiled)
	}

	if opts.Sort == config.SortLocale {
		tag := language.Und
		if opts.Locale != "" {
			parsed, err := language.Parse(opts.Locale)
			if err != nil {
				return nil, errors.NewConfigError("invalid locale "+opts.Locale, "grouping.locale", errors.InvalidConfig, err)
			}
			tag = parsed
		}
		g.locale = &tag
	}

	return g, nil
}

// NewFromConfig builds a Grouper from the grouping section of cfg.
func NewFromConfig(cfg *config.Config) (*Grouper, error) {
	return New(Options{
		DefaultGroup: cfg.Grouping.DefaultGroup,
		Exclude:      cfg.Grouping.Exclude,
		Sort:         cfg.Grouping.Sort,
		Locale:       cfg.Grouping.Locale,
	})
}

// Default returns a Grouper with the built-in rules only.
func Default() *Grouper {
	return &Grouper{defaultGroup: DefaultGroup}
}

// Excluded reports whether a file with base name name is junk.
func (g *Grouper) Excluded(name string) bool {
	if name == JunkName {
		return true
	}
	for _, pattern := range g.exclude {
		if pattern.Match(name) {
			return true
		}
	}
	return false
}

// Key returns the group key of a record: the first path segment, or the
// default group when the path has a single segment.
func (g *Grouper) Key(f types.FileRecord) string {
	segments := f.Segments()
	if len(segments) > 1 && segments[0] != "" {
		return segments[0]
	}
	return g.defaultGroup
}

// Group partitions files by key and sorts members by full path. Groups are
// returned ordered by key, so the result does not depend on input order.
func (g *Grouper) Group(files []types.FileRecord, mapping types.Mapping) []types.FolderGroup {
	compare := g.comparator()

	byKey := make(map[string]*types.FolderGroup)
	for _, f := range files {
		if f.Name == "" || g.Excluded(f.Name) {
			continue
		}
		key := g.Key(f)
		group, ok := byKey[key]
		if !ok {
			group = &types.FolderGroup{Key: key, DisplayName: mapping.Resolve(key)}
			byKey[key] = group
		}
		group.Members = append(group.Members, f)
	}

	groups := make([]types.FolderGroup, 0, len(byKey))
	for _, group := range byKey {
		members := group.Members
		sort.SliceStable(members, func(i, j int) bool {
			if c := compare(members[i].DisplayPath(), members[j].DisplayPath()); c != 0 {
				return c < 0
			}
			return members[i].Name < members[j].Name
		})
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key < groups[j].Key
	})

	return groups
}

func (g *Grouper) comparator() func(a, b string) int {
	if g.locale == nil {
		return strings.Compare
	}
	// Collators are not safe for concurrent use; build one per call.
	c := collate.New(*g.locale)
	return func(a, b string) int {
		if r := c.CompareString(a, b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	}
}

// Flatten returns the members of groups in group order.
func Flatten(groups []types.FolderGroup) []types.FileRecord {
	var out []types.FileRecord
	for _, group := range groups {
		out = append(out, group.Members...)
	}
	return out
}

// Count returns the total number of members across groups.
func Count(groups []types.FolderGroup) int {
	n := 0
	for _, group := range groups {
		n += len(group.Members)
	}
	return n
}
