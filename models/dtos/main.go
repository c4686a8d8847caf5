package dtos

import (
	"time"

	"gohan/storage/models/indexes"
)

type GeneralErrorResponseDto struct {
	Code      int            `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Errors    []GeneralError `json:"errors"`
}

type GeneralError struct {
	Message string `json:"message"`
}

// -- Partitions
type RegisterPartitionRequestDto struct {
	CollectionName string   `json:"collectionName" mapstructure:"collectionName"`
	Samples        []string `json:"samples" mapstructure:"samples"`
	Files          []string `json:"files" mapstructure:"files"`
}

type PartitionsResponseDto struct {
	Project    string                    `json:"project"`
	Count      int                       `json:"count"`
	Partitions []*indexes.IndexPartition `json:"partitions"`
}

type RoutingResponseDto struct {
	Project        string `json:"project"`
	Resolved       bool   `json:"resolved"`
	PartitionId    int    `json:"partitionId,omitempty"`
	CollectionName string `json:"collectionName,omitempty"`
}

// -- Annotation
type AnnotationRequestDto struct {
	Annotator     *indexes.AnnotatorDescriptor `json:"annotator" mapstructure:"annotator"`
	SourceVersion []indexes.SourceVersionEntry `json:"sourceVersion" mapstructure:"sourceVersion"`
}
