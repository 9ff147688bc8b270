package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/inquest-engine/pkg/actor"
	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
)

// Content file layout under the content directory.
const (
	categoriesDir     = "categories"
	itemsFile         = "items.yaml"
	cluesFile         = "clues.yaml"
	madnessFile       = "madness.yaml"
	recipesFile       = "recipes.yaml"
	investigatorsFile = "investigators.yaml"
)

// categoryFile is the authored shape of one category tree.
type categoryFile struct {
	Category    string         `yaml:"category"`
	Description string         `yaml:"description,omitempty"`
	Locations   []locationFile `yaml:"locations"`
}

type locationFile struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Condition    string            `yaml:"condition,omitempty"`
	IsChannel    bool              `yaml:"is_channel,omitempty"`
	Description  string            `yaml:"description,omitempty"`
	Descriptions []content.Variant `yaml:"descriptions,omitempty"`
	Items        []itemFile        `yaml:"items,omitempty"`
	Children     []locationFile    `yaml:"children,omitempty"`
}

type itemFile struct {
	ID       string                  `yaml:"id,omitempty"`
	Name     string                  `yaml:"name"`
	Type     content.InteractionType `yaml:"type"`
	Variants []content.Variant       `yaml:"variants"`
}

// FileContent serves content authored as YAML files. Everything is loaded
// up front; Reload swaps in a fresh copy.
type FileContent struct {
	dir    string
	logger *slog.Logger

	mu            sync.RWMutex
	trees         map[string]*content.Tree
	items         map[string]content.ItemRecord
	clues         map[string]content.Clue
	madness       []content.MadnessRecord
	recipes       []content.Recipe
	investigators []actor.InvestigatorSpec
}

var _ storage.ContentSource = (*FileContent)(nil)

// NewFileContent loads every content file under dir.
func NewFileContent(dir string, logger *slog.Logger) (*FileContent, error) {
	if dir == "" {
		dir = "./data/content"
	}
	c := &FileContent{dir: dir, logger: logger}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload rereads the content directory. On error the previous content stays.
func (c *FileContent) Reload() error {
	next := &FileContent{
		trees: make(map[string]*content.Tree),
		items: make(map[string]content.ItemRecord),
		clues: make(map[string]content.Clue),
	}

	pattern := filepath.Join(c.dir, categoriesDir, "*.yaml")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	sort.Strings(paths)
	for _, path := range paths {
		tree, err := LoadCategoryFile(path)
		if err != nil {
			return err
		}
		if _, dup := next.trees[tree.Category]; dup {
			return fmt.Errorf("%s: duplicate category %q", path, tree.Category)
		}
		next.trees[tree.Category] = tree
	}

	var items []content.ItemRecord
	if err := c.readList(itemsFile, &items); err != nil {
		return err
	}
	for _, it := range items {
		next.items[it.Name] = it
	}

	var clues []content.Clue
	if err := c.readList(cluesFile, &clues); err != nil {
		return err
	}
	for _, cl := range clues {
		next.clues[cl.ID] = cl
	}

	if err := c.readList(madnessFile, &next.madness); err != nil {
		return err
	}
	if err := c.readList(recipesFile, &next.recipes); err != nil {
		return err
	}
	if err := c.readList(investigatorsFile, &next.investigators); err != nil {
		return err
	}

	c.mu.Lock()
	c.trees = next.trees
	c.items = next.items
	c.clues = next.clues
	c.madness = next.madness
	c.recipes = next.recipes
	c.investigators = next.investigators
	c.mu.Unlock()

	c.logger.Info("Content loaded",
		"dir", c.dir,
		"categories", len(next.trees),
		"items", len(next.items),
		"clues", len(next.clues),
		"madness", len(next.madness),
		"recipes", len(next.recipes),
		"investigators", len(next.investigators))
	return nil
}

// readList decodes a top-level YAML list. A missing file is an empty list.
func (c *FileContent) readList(name string, out any) error {
	path := filepath.Join(c.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("Content file not present", "path", path)
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// LoadCategoryFile reads one category tree.
func LoadCategoryFile(path string) (*content.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	tree, err := ParseCategory(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// ParseCategory builds a tree from its YAML form.
func ParseCategory(data []byte) (*content.Tree, error) {
	var f categoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse category: %w", err)
	}
	f.Category = strings.TrimSpace(f.Category)
	if f.Category == "" {
		return nil, fmt.Errorf("category name is required")
	}
	tree := content.NewTree(f.Category, f.Description)
	if err := addLocations(tree, tree.RootID, f.Locations); err != nil {
		return nil, err
	}
	return tree, nil
}

func addLocations(tree *content.Tree, parentID string, locs []locationFile) error {
	for _, l := range locs {
		descs := slices.Clone(l.Descriptions)
		if l.Description != "" {
			descs = append([]content.Variant{{Description: l.Description}}, descs...)
		}
		node := content.Node{
			ID:           l.ID,
			Name:         l.Name,
			Condition:    l.Condition,
			IsChannel:    l.IsChannel,
			Descriptions: descs,
		}
		if node.Name == "" {
			node.Name = node.ID
		}
		for _, it := range l.Items {
			node.Items = append(node.Items, content.Item{
				ID:       it.ID,
				Name:     it.Name,
				Type:     it.Type,
				Variants: it.Variants,
			})
		}
		if _, err := tree.Add(parentID, node); err != nil {
			return err
		}
		if err := addLocations(tree, l.ID, l.Children); err != nil {
			return err
		}
	}
	return nil
}

func (c *FileContent) Categories(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.trees))
	for name := range c.trees {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (c *FileContent) GetLocationTree(ctx context.Context, category string) (*content.Tree, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.trees[category]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", category, engineerr.ErrContentNotFound)
	}
	return t, nil
}

func (c *FileContent) GetItemData(ctx context.Context, name string) (*content.ItemRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.items[name]
	if !ok {
		return nil, fmt.Errorf("item %q: %w", name, engineerr.ErrContentNotFound)
	}
	return &rec, nil
}

func (c *FileContent) GetClue(ctx context.Context, id string) (*content.Clue, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clue, ok := c.clues[id]
	if !ok {
		return nil, fmt.Errorf("clue %q: %w", id, engineerr.ErrContentNotFound)
	}
	return &clue, nil
}

func (c *FileContent) GetMadnessCatalog(ctx context.Context) ([]content.MadnessRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.madness), nil
}

func (c *FileContent) GetClueCombinationRecipes(ctx context.Context) ([]content.Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.recipes), nil
}

func (c *FileContent) Investigators(ctx context.Context) ([]actor.InvestigatorSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.investigators), nil
}
