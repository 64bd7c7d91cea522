package report

import (
	"fmt"
	"sort"
	"strings"
)

// Aggregate is a check that needs every room's results at once.
type Aggregate interface {
	ID() string
	Description() string
	// SourceID is the rule whose extracted values the aggregate reads.
	SourceID() string
	Run(r *Report) AggregateResult
}

// Finding is one flagged value and the rooms it came from, if any.
type Finding struct {
	Value     string
	Filenames []string
}

type AggregateResult struct {
	ID       string
	Findings []Finding
	// Err is set when the aggregate could not run, e.g. its catalog is missing.
	Err error
}

// Catalog supplies the reference set for an unused-reference check.
type Catalog func() (map[string]string, error)

// DefaultSkipMarker marks catalog entries that are not expected to be used.
const DefaultSkipMarker = "-"

type valueAt struct {
	value    string
	filename string
}

func observed(r *Report, source string, norm Normalizer) []valueAt {
	sec := r.Section(source)
	if sec == nil {
		return nil
	}
	var out []valueAt
	for _, ex := range sec.Extracted {
		for _, v := range ex.Values {
			if n := norm.Apply(v); n != "" {
				out = append(out, valueAt{value: n, filename: ex.Filename})
			}
		}
	}
	return out
}

// Duplicates flags values extracted by Source that appear more than once
// across the collection after normalization.
type Duplicates struct {
	Source    string
	Normalize Normalizer
}

func (d *Duplicates) ID() string { return "duplicates:" + d.Source }

func (d *Duplicates) SourceID() string { return d.Source }

func (d *Duplicates) Description() string {
	return fmt.Sprintf("values from %s are unique across rooms", d.Source)
}

func (d *Duplicates) Run(r *Report) AggregateResult {
	vals := observed(r, d.Source, d.Normalize)
	sort.Slice(vals, func(i, j int) bool {
		if vals[i].value != vals[j].value {
			return vals[i].value < vals[j].value
		}
		return vals[i].filename < vals[j].filename
	})

	var res AggregateResult
	for i := 0; i < len(vals); {
		j := i + 1
		for j < len(vals) && vals[j].value == vals[i].value {
			j++
		}
		if j-i > 1 {
			f := Finding{Value: vals[i].value}
			for k := i; k < j; k++ {
				if n := len(f.Filenames); n == 0 || f.Filenames[n-1] != vals[k].filename {
					f.Filenames = append(f.Filenames, vals[k].filename)
				}
			}
			res.Findings = append(res.Findings, f)
		}
		i = j
	}
	return res
}

// Unused flags catalog keys that no room references through Source. Keys
// whose catalog value starts with SkipMarker are never flagged.
type Unused struct {
	Name       string
	Source     string
	Normalize  Normalizer
	Catalog    Catalog
	SkipMarker string
}

func (u *Unused) ID() string { return "unused:" + u.Name }

func (u *Unused) SourceID() string { return u.Source }

func (u *Unused) Description() string {
	return fmt.Sprintf("every %s catalog entry is referenced by %s", u.Name, u.Source)
}

func (u *Unused) Run(r *Report) AggregateResult {
	if u.Catalog == nil {
		return AggregateResult{Err: fmt.Errorf("report: %s has no catalog", u.ID())}
	}
	catalog, err := u.Catalog()
	if err != nil {
		return AggregateResult{Err: err}
	}
	skip := u.SkipMarker
	if skip == "" {
		skip = DefaultSkipMarker
	}

	seen := make(map[string]bool)
	for _, v := range observed(r, u.Source, u.Normalize) {
		seen[v.value] = true
	}

	var keys []string
	for k, v := range catalog {
		if strings.HasPrefix(v, skip) || seen[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var res AggregateResult
	for _, k := range keys {
		res.Findings = append(res.Findings, Finding{Value: k})
	}
	return res
}
