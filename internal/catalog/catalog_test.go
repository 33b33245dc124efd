package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundled_Shape(t *testing.T) {
	c, err := Bundled()
	require.NoError(t, err)

	var keys []string
	for _, cat := range c.Categories() {
		keys = append(keys, cat.Key)
	}
	assert.Equal(t, []string{"ouverte", "specifique", "certifiee"}, keys)

	ouverte, ok := c.Category("ouverte")
	require.True(t, ok)
	var subs []string
	for _, s := range ouverte.Subcategories {
		subs = append(subs, s.Key)
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, subs)

	assert.Equal(t, []string{"C0", "C1", "C2", "C3", "C4", "C5", "C6"}, c.ClassIDs())
}

func TestBundled_ClassLookup(t *testing.T) {
	c := MustBundled()

	dc, ok := c.Class("C2")
	require.True(t, ok)
	assert.Equal(t, "C2 (<4kg)", dc.Name)
	assert.Contains(t, dc.Details, "30m")

	assert.True(t, c.HasClass("C6"))
	assert.False(t, c.HasClass("C7"))
	assert.False(t, c.HasClass("c0"), "class IDs are case sensitive")
}

func TestBundled_SubcategoryLookup(t *testing.T) {
	c := MustBundled()

	sts02, ok := c.Subcategory("specifique", "sts02")
	require.True(t, ok)
	assert.Equal(t, "Hors vue BVLOS", sts02.VisualContact)
	assert.Equal(t, "Distance de 1km entre observateurs et telepilote", sts02.SafetyDistance)

	_, ok = c.Subcategory("specifique", "a1")
	assert.False(t, ok)
	_, ok = c.Subcategory("nope", "a1")
	assert.False(t, ok)
}

func TestClassesReturnsCopy(t *testing.T) {
	c := MustBundled()
	classes := c.Classes()
	classes[0].Name = "mutated"

	dc, _ := c.Class("C0")
	assert.Equal(t, "C0 (<250g)", dc.Name)
	assert.Equal(t, "C0 (<250g)", c.Classes()[0].Name)
}

func TestSubcategoryAttributes(t *testing.T) {
	c := MustBundled()

	a1, _ := c.Subcategory("ouverte", "a1")
	var labels []string
	for _, a := range a1.Attributes() {
		labels = append(labels, a.Label)
	}
	assert.Equal(t, []string{
		"Classes autorisées", "Masse maximale", "Distance minimale", "Hauteur maximale",
		"Remote ID", "Zones autorisées", "Formation requise",
	}, labels)
	assert.Empty(t, a1.ExtraAttributes())
	assert.Equal(t, a1.Zones, a1.Summary())

	certified, _ := c.Subcategory("certifiee", "certified")
	assert.Equal(t, certified.Description, certified.Summary())

	sts01, _ := c.Subcategory("specifique", "sts01")
	assert.Len(t, sts01.ExtraAttributes(), 3)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not yaml", "categories: [", "parsing catalog YAML"},
		{"empty", "", "no categories"},
		{"no classes", minimalCategory, "no drone classes"},
		{"duplicate class", minimalCategory + minimalClasses + "  - id: C0\n    name: x\n    details: y\n", "duplicate class id"},
		{"missing zones", strings.Replace(minimalCategory, "        zones: Partout\n", "", 1) + minimalClasses, "zones is required"},
		{"no subcategories", "categories:\n  - key: x\n    name: X\n" + minimalClasses, "has no subcategories"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_FileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalCategory+minimalClasses), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"C0"}, c.ClassIDs())

	c, err = Load("")
	require.NoError(t, err)
	assert.Len(t, c.ClassIDs(), 7)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	base := MustBundled()

	same, err := Diff(base, MustBundled())
	require.NoError(t, err)
	assert.Empty(t, same)

	modified := strings.Replace(string(bundled), "maxWeight: 4kg", "maxWeight: 5kg", 1)
	other, err := Parse([]byte(modified))
	require.NoError(t, err)

	patch, err := Diff(base, other)
	require.NoError(t, err)
	assert.Contains(t, patch, "@@")
	assert.Contains(t, patch, "5kg")

	summary, err := ChangeSummary(base, other)
	require.NoError(t, err)
	assert.Contains(t, summary, "- ")
	assert.Contains(t, summary, "+ ")
	assert.Contains(t, summary, "maxWeight: 5kg")
}

const minimalCategory = `categories:
  - key: ouverte
    name: Ouverte
    description: d
    subcategories:
      - key: a1
        name: A1
        maxHeight: 120m
        requirements: Aucune
        zones: Partout
        details: d
`

const minimalClasses = `classes:
  - id: C0
    name: C0
    details: petit
`
