package models

import (
	"encoding/base64"
	"fmt"
	"gohan/storage/models/constants"
)

// VariantCoordinate identifies a variant for row-key purposes.
type VariantCoordinate struct {
	Chromosome string `json:"chromosome" mapstructure:"chromosome"`
	Start      int    `json:"start" mapstructure:"start"`
	End        int    `json:"end" mapstructure:"end"`
	Reference  string `json:"reference" mapstructure:"reference"`
	Alternate  string `json:"alternate" mapstructure:"alternate"`
	Structural bool   `json:"structural" mapstructure:"structural"`
}

// String renders the textual identity of the coordinate,
// i.e. `1:1000:A:T`, or `1:1000-2000:N:<DEL>` for structural variants.
// The end position only takes part for structural variants.
func (vc VariantCoordinate) String() string {
	if vc.Structural {
		return fmt.Sprintf("%s:%d-%d:%s:%s", vc.Chromosome, vc.Start, vc.End, vc.Reference, vc.Alternate)
	}
	return fmt.Sprintf("%s:%d:%s:%s", vc.Chromosome, vc.Start, vc.Reference, vc.Alternate)
}

type VariantRecord struct {
	Coordinate VariantCoordinate     `json:"coordinate" mapstructure:"coordinate"`
	Type       constants.VariantType `json:"type" mapstructure:"type"`

	Study   string   `json:"study" mapstructure:"study"`
	FileId  string   `json:"fileId" mapstructure:"fileId"`
	Format  []string `json:"format" mapstructure:"format"`
	Samples []Sample `json:"samples" mapstructure:"samples"`
}

type Sample struct {
	Id     string   `json:"id" mapstructure:"id"`
	Values []string `json:"values" mapstructure:"values"` // aligned with VariantRecord.Format
}

// SampleEntry is what one sample of one study contributes to a stored variant.
// A stored variant holds at most one entry per study and sample id.
type SampleEntry struct {
	Study  string   `json:"study" mapstructure:"study"`
	FileId string   `json:"fileId" mapstructure:"fileId"`
	Id     string   `json:"id" mapstructure:"id"`
	Format []string `json:"format" mapstructure:"format"`
	Values []string `json:"values" mapstructure:"values"`
}

func (e SampleEntry) Key() string {
	return e.Study + "/" + e.Id
}

// MergeSampleEntries returns existing with every entry sharing a key with
// incoming replaced, followed by incoming.
func MergeSampleEntries(existing []SampleEntry, incoming []SampleEntry) []SampleEntry {
	replaced := make(map[string]struct{}, len(incoming))
	for _, e := range incoming {
		replaced[e.Key()] = struct{}{}
	}

	merged := make([]SampleEntry, 0, len(existing)+len(incoming))
	for _, e := range existing {
		if _, ok := replaced[e.Key()]; !ok {
			merged = append(merged, e)
		}
	}
	return append(merged, incoming...)
}

// StorageMutation is an idempotent write to the variant stored under the
// encoded row key within a project. Columns overwrite the row level fields,
// Samples are merged into the entries already stored.
type StorageMutation struct {
	Project string                 `json:"project"`
	RowKey  []byte                 `json:"-"`
	Columns map[string]interface{} `json:"columns"`
	Samples []SampleEntry          `json:"samples"`
}

// DocumentId renders the project and row key as a document id usable by the primary store.
func (m *StorageMutation) DocumentId() string {
	return m.Project + ":" + base64.RawURLEncoding.EncodeToString(m.RowKey)
}
