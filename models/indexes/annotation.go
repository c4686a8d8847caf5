package indexes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const LATEST = "LATEST"

// AnnotatorDescriptor identifies the program that produced the stored annotations.
type AnnotatorDescriptor struct {
	Name    string `json:"name" mapstructure:"name"`
	Version string `json:"version" mapstructure:"version"`
	Commit  string `json:"commit" mapstructure:"commit"`
}

func (d *AnnotatorDescriptor) IsEmpty() bool {
	return d == nil || (d.Name == "" && d.Version == "" && d.Commit == "")
}

func (d *AnnotatorDescriptor) String() string {
	if d == nil {
		return "{}"
	}
	return fmt.Sprintf("{name: %s, version: %s, commit: %s}", d.Name, d.Version, d.Commit)
}

// SourceVersionEntry is an opaque description of one upstream source,
// i.e. {"name": "ensembl", "version": "v94"}.
type SourceVersionEntry map[string]interface{}

type AnnotationRecord struct {
	Id            int                  `json:"id"`
	Name          string               `json:"name"`
	Timestamp     *time.Time           `json:"timestamp,omitempty"`
	Annotator     *AnnotatorDescriptor `json:"annotator,omitempty"`
	SourceVersion []SourceVersionEntry `json:"sourceVersion"`
}

type AnnotationMetadata struct {
	Project string              `json:"project"`
	Current *AnnotationRecord   `json:"current"`
	Saved   []*AnnotationRecord `json:"saved"`
}

// DocumentVersion is the optimistic concurrency token of a stored document.
type DocumentVersion struct {
	SeqNo       int64 `json:"seqNo"`
	PrimaryTerm int64 `json:"primaryTerm"`
}

// NewDocument is the version of a document that has never been stored.
var NewDocument = DocumentVersion{SeqNo: -1, PrimaryTerm: -1}

func (v DocumentVersion) IsNew() bool {
	return v.SeqNo < 0
}

func (r *AnnotationRecord) Clone() *AnnotationRecord {
	if r == nil {
		return nil
	}
	clone := &AnnotationRecord{
		Id:   r.Id,
		Name: r.Name,
	}
	if r.Timestamp != nil {
		ts := *r.Timestamp
		clone.Timestamp = &ts
	}
	if r.Annotator != nil {
		a := *r.Annotator
		clone.Annotator = &a
	}
	clone.SourceVersion = CloneSourceVersions(r.SourceVersion)
	return clone
}

func (m *AnnotationMetadata) Clone() *AnnotationMetadata {
	if m == nil {
		return nil
	}
	clone := &AnnotationMetadata{
		Project: m.Project,
		Current: m.Current.Clone(),
		Saved:   make([]*AnnotationRecord, 0, len(m.Saved)),
	}
	for _, s := range m.Saved {
		clone.Saved = append(clone.Saved, s.Clone())
	}
	return clone
}

func CloneSourceVersions(sources []SourceVersionEntry) []SourceVersionEntry {
	if sources == nil {
		return nil
	}
	clone := make([]SourceVersionEntry, 0, len(sources))
	for _, s := range sources {
		entry := make(SourceVersionEntry, len(s))
		for k, v := range s {
			entry[k] = v
		}
		clone = append(clone, entry)
	}
	return clone
}

// SourceVersionsEqual compares two source version lists by their canonical
// JSON form, so values survive a round trip through the metadata store
// (ints read back as floats) without being reported as different.
func SourceVersionsEqual(a, b []SourceVersionEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(canonicalJson(a[i]), canonicalJson(b[i])) {
			return false
		}
	}
	return true
}

func SourceVersionsToString(sources []SourceVersionEntry) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		parts = append(parts, string(canonicalJson(s)))
	}
	return "[ " + strings.Join(parts, " , ") + " ]"
}

func canonicalJson(entry SourceVersionEntry) []byte {
	// encoding/json sorts map keys; decoding first normalises numbers
	raw, err := json.Marshal(entry)
	if err != nil {
		return []byte(fmt.Sprint(entry))
	}
	var normalised interface{}
	if err := json.Unmarshal(raw, &normalised); err != nil {
		return raw
	}
	out, _ := json.Marshal(normalised)
	return out
}
