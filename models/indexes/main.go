package indexes

import (
	"fmt"
	"time"
)

// IndexPartition records a set of samples (and the files they come from)
// that has been copied into its own secondary search collection.
type IndexPartition struct {
	Id             int       `json:"id"`
	Project        string    `json:"project"`
	CollectionName string    `json:"collectionName"`
	Samples        []string  `json:"samples"`
	Files          []string  `json:"files"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DocumentId is the id under which the partition record is stored.
// Two writers allocating the same partition id collide on it.
func (p *IndexPartition) DocumentId() string {
	return PartitionDocumentId(p.Project, p.Id)
}

func PartitionDocumentId(project string, id int) string {
	return fmt.Sprintf("%s_%d", project, id)
}

// BuildCollectionName mirrors the `<db>_<project>_<id>` naming
// of the secondary search collections.
func BuildCollectionName(dbName string, project string, id int) string {
	return fmt.Sprintf("%s_%s_%d", dbName, project, id)
}

var MAPPING_FIELDS_KEYWORD_IG256 = map[string]interface{}{
	"keyword": map[string]interface{}{
		"type":         "keyword",
		"ignore_above": 256,
	},
}
var MAPPING_TEXT = map[string]interface{}{"type": "text", "fields": MAPPING_FIELDS_KEYWORD_IG256}
var MAPPING_KEYWORD = map[string]interface{}{"type": "keyword"}
var MAPPING_LONG = map[string]interface{}{"type": "long"}
var MAPPING_BOOL = map[string]interface{}{"type": "boolean"}
var MAPPING_DATE = map[string]interface{}{"type": "date"}
var MAPPING_OBJECT_DISABLED = map[string]interface{}{"type": "object", "enabled": false}

var PARTITION_INDEX_MAPPING = map[string]interface{}{
	"properties": map[string]interface{}{
		"id":             MAPPING_LONG,
		"project":        MAPPING_KEYWORD,
		"collectionName": MAPPING_KEYWORD,
		"samples":        MAPPING_KEYWORD,
		"files":          MAPPING_KEYWORD,
		"createdAt":      MAPPING_DATE,
	},
}

var ANNOTATION_INDEX_MAPPING = map[string]interface{}{
	"properties": map[string]interface{}{
		"project": MAPPING_KEYWORD,
		// annotator descriptors and opaque source versions are
		// stored, never searched
		"current": MAPPING_OBJECT_DISABLED,
		"saved":   MAPPING_OBJECT_DISABLED,
	},
}

var VARIANT_INDEX_MAPPING = map[string]interface{}{
	"properties": map[string]interface{}{
		"coordinate": map[string]interface{}{
			"properties": map[string]interface{}{
				"chromosome": MAPPING_TEXT,
				"start":      MAPPING_LONG,
				"end":        MAPPING_LONG,
				"reference":  MAPPING_TEXT,
				"alternate":  MAPPING_TEXT,
				"structural": MAPPING_BOOL,
			},
		},
		"project": MAPPING_KEYWORD,
		"type":    MAPPING_KEYWORD,
		"_ss":     MAPPING_KEYWORD,
		"samples": map[string]interface{}{
			"properties": map[string]interface{}{
				"study":  MAPPING_KEYWORD,
				"fileId": MAPPING_KEYWORD,
				"id":     MAPPING_KEYWORD,
				"format": MAPPING_KEYWORD,
				"values": MAPPING_TEXT,
			},
		},
	},
}
