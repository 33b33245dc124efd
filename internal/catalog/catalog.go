// Package catalog holds the static drone regulation dataset: flight
// categories with their subcategories, and the drone classes a compliance
// check can be run for. A Catalog is immutable once loaded.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/dronecheck/internal/schema"
)

//go:embed regulations.yaml
var bundled []byte

// Subcategory is the regulation attribute record for one flight scenario.
type Subcategory struct {
	Key              string `yaml:"key" json:"key"`
	Name             string `yaml:"name" json:"name"`
	Classes          string `yaml:"classes,omitempty" json:"classes,omitempty"`
	Description      string `yaml:"description,omitempty" json:"description,omitempty"`
	MaxWeight        string `yaml:"maxWeight,omitempty" json:"maxWeight,omitempty"`
	MinDistance      string `yaml:"minDistance,omitempty" json:"minDistance,omitempty"`
	MaxHeight        string `yaml:"maxHeight" json:"maxHeight"`
	Requirements     string `yaml:"requirements" json:"requirements"`
	Zones            string `yaml:"zones" json:"zones"`
	RemoteID         string `yaml:"remoteId,omitempty" json:"remoteId,omitempty"`
	Details          string `yaml:"details" json:"details"`
	VisualContact    string `yaml:"visualContact,omitempty" json:"visualContact,omitempty"`
	PilotDistance    string `yaml:"pilotDistance,omitempty" json:"pilotDistance,omitempty"`
	ObserverDistance string `yaml:"observerDistance,omitempty" json:"observerDistance,omitempty"`
	SafetyDistance   string `yaml:"safetyDistance,omitempty" json:"safetyDistance,omitempty"`
	FlightZone       string `yaml:"flightZone,omitempty" json:"flightZone,omitempty"`
}

// Category groups subcategories under one regulatory risk level.
type Category struct {
	Key           string        `yaml:"key" json:"key"`
	Name          string        `yaml:"name" json:"name"`
	Description   string        `yaml:"description" json:"description"`
	Subcategories []Subcategory `yaml:"subcategories" json:"subcategories"`
}

// Subcategory returns the subcategory with the given key.
func (c *Category) Subcategory(key string) (*Subcategory, bool) {
	for i := range c.Subcategories {
		if c.Subcategories[i].Key == key {
			return &c.Subcategories[i], true
		}
	}
	return nil, false
}

// Summary is the one-line blurb shown in category listings.
func (s *Subcategory) Summary() string {
	if s.Description != "" {
		return s.Description
	}
	return s.Zones
}

// Attribute is a labelled value for display.
type Attribute struct {
	Key   string
	Label string
	Value string
}

// Attributes returns the headline attributes that are set, in display order.
func (s *Subcategory) Attributes() []Attribute {
	return nonEmpty([]Attribute{
		{"classes", "Classes autorisées", s.Classes},
		{"maxWeight", "Masse maximale", s.MaxWeight},
		{"minDistance", "Distance minimale", s.MinDistance},
		{"maxHeight", "Hauteur maximale", s.MaxHeight},
		{"visualContact", "Contact visuel", s.VisualContact},
		{"remoteId", "Remote ID", s.RemoteID},
		{"zones", "Zones autorisées", s.Zones},
		{"requirements", "Formation requise", s.Requirements},
	})
}

// ExtraAttributes returns the secondary distance attributes that are set.
func (s *Subcategory) ExtraAttributes() []Attribute {
	return nonEmpty([]Attribute{
		{"pilotDistance", "Distance pilote-drone", s.PilotDistance},
		{"observerDistance", "Distance observateur", s.ObserverDistance},
		{"safetyDistance", "Distance securite", s.SafetyDistance},
		{"flightZone", "Zone de vol", s.FlightZone},
	})
}

func nonEmpty(attrs []Attribute) []Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if strings.TrimSpace(a.Value) != "" {
			out = append(out, a)
		}
	}
	return out
}

type document struct {
	Categories []Category          `yaml:"categories"`
	Classes    []schema.DroneClass `yaml:"classes"`
}

// Catalog is the loaded, validated regulation dataset.
type Catalog struct {
	doc        document
	categories map[string]*Category
	classes    map[string]schema.DroneClass
}

// Bundled returns the catalog compiled into the binary.
func Bundled() (*Catalog, error) {
	return Parse(bundled)
}

// MustBundled is like Bundled but panics on error.
func MustBundled() *Catalog {
	c, err := Bundled()
	if err != nil {
		panic(fmt.Sprintf("catalog: bundled dataset invalid: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file. An empty path returns the bundled catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Bundled()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML: %w", err)
	}
	if err := validateDocument(&doc); err != nil {
		return nil, err
	}

	c := &Catalog{
		doc:        doc,
		categories: make(map[string]*Category, len(doc.Categories)),
		classes:    make(map[string]schema.DroneClass, len(doc.Classes)),
	}
	for i := range c.doc.Categories {
		cat := &c.doc.Categories[i]
		c.categories[cat.Key] = cat
	}
	for _, dc := range c.doc.Classes {
		c.classes[dc.ID] = dc
	}
	return c, nil
}

func validateDocument(doc *document) error {
	if len(doc.Categories) == 0 {
		return errors.New("catalog has no categories")
	}
	if len(doc.Classes) == 0 {
		return errors.New("catalog has no drone classes")
	}

	seenCat := make(map[string]bool, len(doc.Categories))
	for i, cat := range doc.Categories {
		prefix := fmt.Sprintf("categories[%d]", i)
		if cat.Key == "" {
			return fmt.Errorf("%s: key is required", prefix)
		}
		if seenCat[cat.Key] {
			return fmt.Errorf("%s: duplicate category key %q", prefix, cat.Key)
		}
		seenCat[cat.Key] = true
		if cat.Name == "" {
			return fmt.Errorf("%s: name is required", prefix)
		}
		if len(cat.Subcategories) == 0 {
			return fmt.Errorf("%s: category %q has no subcategories", prefix, cat.Key)
		}
		seenSub := make(map[string]bool, len(cat.Subcategories))
		for j, sub := range cat.Subcategories {
			if err := validateSubcategory(sub, fmt.Sprintf("%s.subcategories[%d]", prefix, j)); err != nil {
				return err
			}
			if seenSub[sub.Key] {
				return fmt.Errorf("%s.subcategories[%d]: duplicate subcategory key %q", prefix, j, sub.Key)
			}
			seenSub[sub.Key] = true
		}
	}

	seenClass := make(map[string]bool, len(doc.Classes))
	for i, dc := range doc.Classes {
		prefix := fmt.Sprintf("classes[%d]", i)
		if dc.ID == "" {
			return fmt.Errorf("%s: id is required", prefix)
		}
		if seenClass[dc.ID] {
			return fmt.Errorf("%s: duplicate class id %q", prefix, dc.ID)
		}
		seenClass[dc.ID] = true
		if dc.Name == "" {
			return fmt.Errorf("%s: name is required", prefix)
		}
		if dc.Details == "" {
			return fmt.Errorf("%s: details is required", prefix)
		}
	}
	return nil
}

func validateSubcategory(s Subcategory, prefix string) error {
	required := []struct{ name, value string }{
		{"key", s.Key},
		{"name", s.Name},
		{"maxHeight", s.MaxHeight},
		{"requirements", s.Requirements},
		{"zones", s.Zones},
		{"details", s.Details},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s: %s is required", prefix, r.name)
		}
	}
	return nil
}

// Categories returns all categories in dataset order. The returned slice must
// not be modified.
func (c *Catalog) Categories() []Category {
	return c.doc.Categories
}

// Category returns the category with the given key.
func (c *Catalog) Category(key string) (*Category, bool) {
	cat, ok := c.categories[key]
	return cat, ok
}

// Subcategory looks up a subcategory by category and subcategory key.
func (c *Catalog) Subcategory(categoryKey, subKey string) (*Subcategory, bool) {
	cat, ok := c.categories[categoryKey]
	if !ok {
		return nil, false
	}
	return cat.Subcategory(subKey)
}

// Classes returns all drone classes in dataset order.
func (c *Catalog) Classes() []schema.DroneClass {
	out := make([]schema.DroneClass, len(c.doc.Classes))
	copy(out, c.doc.Classes)
	return out
}

// Class returns the drone class with the given ID.
func (c *Catalog) Class(id string) (schema.DroneClass, bool) {
	dc, ok := c.classes[id]
	return dc, ok
}

// HasClass reports whether id is a known drone class.
func (c *Catalog) HasClass(id string) bool {
	_, ok := c.classes[id]
	return ok
}

// ClassIDs returns the drone class IDs in dataset order.
func (c *Catalog) ClassIDs() []string {
	ids := make([]string, 0, len(c.doc.Classes))
	for _, dc := range c.doc.Classes {
		ids = append(ids, dc.ID)
	}
	return ids
}

// canonical renders the catalog back to YAML in a stable layout.
func (c *Catalog) canonical() (string, error) {
	out, err := yaml.Marshal(c.doc)
	if err != nil {
		return "", fmt.Errorf("encoding catalog: %w", err)
	}
	return string(out), nil
}
