package matching

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// ResolveOptions configures bulk resolution.
type ResolveOptions struct {
	// CaseSensitive disables the default lowercase normalization of index
	// keys and query terms. Whitespace is always trimmed.
	CaseSensitive bool
	// Source restricts the indexed pool to one provenance. Empty admits both.
	Source model.Source
	// ItemType keeps only items whose description contains this substring
	// (case-insensitive). Empty disables the filter.
	ItemType string
	// Status keeps only items with this exact status (case-insensitive).
	// Empty disables the filter.
	Status string
}

// Resolver resolves query terms to at most one reference item each via
// inverted indices over the tag and serial fields.
type Resolver struct{}

// NewResolver creates a bulk resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns exactly one entry per input term, in input order. Terms
// are looked up by tag first, then serial. A miss yields a "NOT FOUND"
// sentinel echoing the original term. Duplicated terms each get their own
// entry; a term never expands into multiple results.
func (r *Resolver) Resolve(terms []string, pool []model.ReferenceItem, opts ResolveOptions) []model.ReferenceItem {
	norm := func(v string) string {
		v = strings.TrimSpace(v)
		if !opts.CaseSensitive {
			v = strings.ToLower(v)
		}
		return v
	}

	byTag := make(map[string]model.ReferenceItem)
	bySerial := make(map[string]model.ReferenceItem)

	for _, item := range pool {
		if !r.admit(item, opts) {
			continue
		}
		if key := norm(item.TagNumber); key != "" {
			byTag[key] = preferDataset(byTag, key, item)
		}
		if key := norm(item.SerialNumber); key != "" {
			bySerial[key] = preferDataset(bySerial, key, item)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	results := make([]model.ReferenceItem, 0, len(terms))
	for idx, term := range terms {
		key := norm(term)

		hit, ok := byTag[key]
		if !ok {
			hit, ok = bySerial[key]
		}
		if !ok || key == "" {
			results = append(results, notFound(term, idx, now))
			continue
		}

		// Re-key by input position so duplicate terms stay distinguishable
		// and ids remain stable across runs.
		hit.ID = fmt.Sprintf("%s_%d_%016x", hit.Source, idx, contentHash(key))
		results = append(results, hit)
	}

	return results
}

func (r *Resolver) admit(item model.ReferenceItem, opts ResolveOptions) bool {
	if opts.Source != "" && item.Source != opts.Source {
		return false
	}
	if opts.ItemType != "" &&
		!strings.Contains(strings.ToLower(item.ItemDescription), strings.ToLower(opts.ItemType)) {
		return false
	}
	if opts.Status != "" && !strings.EqualFold(item.Status, opts.Status) {
		return false
	}
	return true
}

// preferDataset applies the collision rule: dataset provenance always beats
// master regardless of insertion order; among equal provenance the first
// indexed item wins.
func preferDataset(index map[string]model.ReferenceItem, key string, candidate model.ReferenceItem) model.ReferenceItem {
	existing, ok := index[key]
	if !ok {
		return candidate
	}
	if existing.Source != model.SourceDataset && candidate.Source == model.SourceDataset {
		return candidate
	}
	return existing
}

func notFound(term string, idx int, now string) model.ReferenceItem {
	return model.ReferenceItem{
		ID:              fmt.Sprintf("notfound_%d_%016x", idx, contentHash(term)),
		ItemDescription: "Not Found",
		SerialNumber:    "",
		TagNumber:       term,
		Quantity:        0,
		Status:          "NOT FOUND",
		Source:          model.SourceNone,
		CreatedAt:       now,
	}
}

func contentHash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
