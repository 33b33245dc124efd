package catalog

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff compares two catalogs by their canonical YAML and returns a
// diff-match-patch patch text turning base into other. An empty string means
// the datasets are identical.
func Diff(base, other *Catalog) (string, error) {
	a, err := base.canonical()
	if err != nil {
		return "", err
	}
	b, err := other.canonical()
	if err != nil {
		return "", err
	}
	if a == b {
		return "", nil
	}

	dmp := diffmatchpatch.New()
	// Line-level diff keeps the patch readable for a YAML document.
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return dmp.PatchToText(dmp.PatchMake(a, diffs)), nil
}

// ChangeSummary returns one line per changed YAML line, prefixed with + or -.
func ChangeSummary(base, other *Catalog) (string, error) {
	a, err := base.canonical()
	if err != nil {
		return "", err
	}
	b, err := other.canonical()
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		var sign string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sign = "+"
		case diffmatchpatch.DiffDelete:
			sign = "-"
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out.WriteString(fmt.Sprintf("%s %s\n", sign, line))
		}
	}
	return out.String(), nil
}
