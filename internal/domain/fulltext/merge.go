package fulltext

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/domain/document"
)

var (
	_ bulk.Merge = PartMerge{}
	_ bulk.Merge = PreserveMerge{}
)

// scriptLang is the engine scripting language of the merge templates.
const scriptLang = "painless"

var scriptFields = strings.NewReplacer(
	"$FULLTEXT_PARTS", document.FieldFulltextParts,
	"$FULLTEXT", document.FieldFulltext,
)

// partScript mirrors PartMerge.Apply on the engine.
var partScript = scriptFields.Replace(`
if (ctx._source.$FULLTEXT_PARTS == null) {
	ctx._source.$FULLTEXT_PARTS = new LinkedHashMap();
}
if (params.remove) {
	ctx._source.$FULLTEXT_PARTS.remove(params.identifier);
} else {
	ctx._source.$FULLTEXT_PARTS.put(params.identifier, params.fulltext);
}
Map aggregated = new HashMap();
for (part in ctx._source.$FULLTEXT_PARTS.values()) {
	for (entry in part.entrySet()) {
		String value = entry.getValue() == null ? '' : entry.getValue().trim();
		if (aggregated.containsKey(entry.getKey())) {
			aggregated.put(entry.getKey(), aggregated.get(entry.getKey()) + ' ' + value);
		} else {
			aggregated.put(entry.getKey(), value);
		}
	}
}
ctx._source.$FULLTEXT = aggregated;
`)

// preserveScript mirrors PreserveMerge.Apply on the engine.
var preserveScript = scriptFields.Replace(`
def fulltext = ctx._source.$FULLTEXT;
def parts = ctx._source.$FULLTEXT_PARTS;
ctx._source = params.newData;
ctx._source.$FULLTEXT = fulltext == null ? new HashMap() : fulltext;
ctx._source.$FULLTEXT_PARTS = parts == null ? new LinkedHashMap() : parts;
`)

// PartMerge applies one contributor's update to a fulltext root and
// recomputes the aggregated fulltext.
type PartMerge struct {
	update Update
}

// NewPartMerge creates the merge for u.
func NewPartMerge(u Update) PartMerge { return PartMerge{update: u} }

// Update returns the part update.
func (m PartMerge) Update() Update { return m.update }

// Apply returns existing with the part update applied and the fulltext recomputed.
func (m PartMerge) Apply(existing map[string]any) (map[string]any, error) {
	parts, err := PartsFrom(existing[document.FieldFulltextParts])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", document.FieldFulltextParts, err)
	}
	parts = parts.Apply(m.update)

	out := make(map[string]any, len(existing)+2)
	for k, v := range existing {
		out[k] = v
	}
	out[document.FieldFulltextParts] = parts
	out[document.FieldFulltext] = Aggregate(parts)
	return out, nil
}

// Script returns the engine-side form of the merge.
func (m PartMerge) Script() bulk.Script {
	fulltext := m.update.Fulltext
	if fulltext == nil {
		fulltext = Text{}
	}
	return bulk.Script{
		Lang:   scriptLang,
		Source: partScript,
		Params: map[string]any{
			"identifier": m.update.Identifier,
			"fulltext":   fulltext,
			"remove":     m.update.Remove,
		},
	}
}

// Upsert returns the root body used when the root document does not exist yet.
func (m PartMerge) Upsert() map[string]any {
	parts := Parts{}.Apply(m.update)
	return map[string]any{
		document.FieldFulltext:      Aggregate(parts),
		document.FieldFulltextParts: parts,
	}
}

// PreserveMerge replaces a root document with new data while keeping its
// aggregated fulltext and parts unchanged.
type PreserveMerge struct {
	data map[string]any
}

// NewPreserveMerge creates the merge. Fulltext fields in data are ignored.
func NewPreserveMerge(data map[string]any) PreserveMerge {
	clean := make(map[string]any, len(data))
	for k, v := range data {
		if !document.IsFulltextField(k) {
			clean[k] = v
		}
	}
	return PreserveMerge{data: clean}
}

// Apply returns the new data plus the existing fulltext fields.
func (m PreserveMerge) Apply(existing map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m.data)+2)
	for k, v := range m.data {
		out[k] = v
	}
	if v, ok := existing[document.FieldFulltext]; ok && v != nil {
		out[document.FieldFulltext] = v
	} else {
		out[document.FieldFulltext] = Text{}
	}
	if v, ok := existing[document.FieldFulltextParts]; ok && v != nil {
		out[document.FieldFulltextParts] = v
	} else {
		out[document.FieldFulltextParts] = Parts{}
	}
	return out, nil
}

// Script returns the engine-side form of the merge.
func (m PreserveMerge) Script() bulk.Script {
	return bulk.Script{
		Lang:   scriptLang,
		Source: preserveScript,
		Params: map[string]any{"newData": m.data},
	}
}

// Upsert returns the new data with empty fulltext containers.
func (m PreserveMerge) Upsert() map[string]any {
	out := make(map[string]any, len(m.data)+2)
	for k, v := range m.data {
		out[k] = v
	}
	out[document.FieldFulltext] = Text{}
	out[document.FieldFulltextParts] = Parts{}
	return out
}
