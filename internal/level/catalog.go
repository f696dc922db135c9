package level

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vovakirdan/codequest/internal/level/formats"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Builtin returns the embedded level pack.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		panic(err)
	}
	return sub
}

type source struct {
	fsys fs.FS
	root string // on-disk root, empty for embedded packs
}

// Catalog resolves levels from the built-in pack and optional directories.
// Levels from later sources replace earlier ones with the same id.
type Catalog struct {
	sources []source
	levels  []Level
	byID    map[string]int
	loaded  bool

	// Skipped lists files that failed to load, with the reason.
	Skipped []string
}

// NewCatalog creates a catalog over the built-in pack plus dirs.
func NewCatalog(dirs ...string) *Catalog {
	c := &Catalog{}
	c.sources = append(c.sources, source{fsys: Builtin()})
	for _, d := range dirs {
		if d == "" {
			continue
		}
		c.sources = append(c.sources, source{fsys: os.DirFS(d), root: d})
	}
	return c
}

// NewCatalogFS creates a catalog over the given file systems only.
func NewCatalogFS(fsys ...fs.FS) *Catalog {
	c := &Catalog{}
	for _, f := range fsys {
		c.sources = append(c.sources, source{fsys: f})
	}
	return c
}

// LoadAll scans every source and returns the levels in play order.
// Invalid files are skipped and recorded in Skipped.
func (c *Catalog) LoadAll() ([]Level, error) {
	if c.loaded {
		return c.levels, nil
	}

	merged := make(map[string]Level)
	c.Skipped = nil

	for _, src := range c.sources {
		err := fs.WalkDir(src.fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isSupportedExtension(strings.ToLower(path.Ext(p))) {
				return nil
			}

			lvl, err := loadFile(src, p)
			if err != nil {
				c.Skipped = append(c.Skipped, err.Error())
				return nil
			}
			merged[lvl.ID] = lvl
			return nil
		})
		if err != nil {
			if src.root != "" && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("level: walking %s: %w", src.root, err)
		}
	}

	c.levels = make([]Level, 0, len(merged))
	for _, l := range merged {
		c.levels = append(c.levels, l)
	}
	sort.Slice(c.levels, func(i, j int) bool {
		return lessID(c.levels[i].ID, c.levels[j].ID)
	})
	c.byID = make(map[string]int, len(c.levels))
	for i, l := range c.levels {
		c.byID[l.ID] = i
	}
	c.loaded = true
	return c.levels, nil
}

// ByID returns the level with the given id.
func (c *Catalog) ByID(id string) (Level, error) {
	if _, err := c.LoadAll(); err != nil {
		return Level{}, err
	}
	i, ok := c.byID[id]
	if !ok {
		return Level{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.levels[i], nil
}

// Next returns the level after id in play order.
func (c *Catalog) Next(id string) (Level, bool) {
	if _, err := c.LoadAll(); err != nil {
		return Level{}, false
	}
	i, ok := c.byID[id]
	if !ok || i+1 >= len(c.levels) {
		return Level{}, false
	}
	return c.levels[i+1], true
}

// ListIDs returns all level ids in play order.
func (c *Catalog) ListIDs() ([]string, error) {
	levels, err := c.LoadAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(levels))
	for i, l := range levels {
		ids[i] = l.ID
	}
	return ids, nil
}

func loadFile(src source, p string) (Level, error) {
	data, err := fs.ReadFile(src.fsys, p)
	if err != nil {
		return Level{}, fmt.Errorf("reading file %s: %w", p, err)
	}

	parsed, err := formats.ParseYAML(data)
	if err != nil {
		return Level{}, fmt.Errorf("parsing file %s: %w", p, err)
	}

	lvl := Level{
		ID:                      parsed.ID,
		Group:                   parsed.Group,
		Name:                    parsed.Name,
		Description:             parsed.Description,
		Width:                   parsed.Width,
		Height:                  parsed.Height,
		Start:                   parsed.Start,
		Goal:                    parsed.Goal,
		Walls:                   parsed.Walls,
		StarterCode:             parsed.StarterCode,
		SolutionCode:            parsed.SolutionCode,
		AttemptsBeforeFirstHint: parsed.AttemptsBeforeFirstHint,
		Hints:                   parsed.Hints,
	}
	if src.root != "" {
		lvl.FilePath = path.Join(src.root, p)
	}

	for i, v := range parsed.Validations {
		re, err := regexp.Compile(v.Pattern)
		if err != nil {
			return Level{}, fmt.Errorf("file %s: validation %d: %w", p, i+1, err)
		}
		lvl.Validations = append(lvl.Validations, Validation{
			Pattern:        v.Pattern,
			Hint:           v.Hint,
			ValidExample:   v.ValidExample,
			InvalidExample: v.InvalidExample,
			re:             re,
		})
	}

	if err := lvl.Validate(); err != nil {
		return Level{}, fmt.Errorf("file %s: %w", p, err)
	}
	return lvl, nil
}

// isSupportedExtension checks if extension is supported.
func isSupportedExtension(ext string) bool {
	for _, supported := range formats.FormatExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}

// lessID orders ids like "1-2" < "1-10" < "2-1" by comparing dash
// separated parts numerically where possible.
func lessID(a, b string) bool {
	pa := strings.Split(a, "-")
	pb := strings.Split(b, "-")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] == pb[i] {
			continue
		}
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])
		if errA == nil && errB == nil {
			return na < nb
		}
		return pa[i] < pb[i]
	}
	return len(pa) < len(pb)
}
