package storageErrors

import (
	"errors"
	"fmt"
	"strings"

	"gohan/storage/models/indexes"
)

var (
	ErrAlreadyIndexed           = errors.New("already in search index")
	ErrAnnotatorMismatch        = errors.New("annotator mismatch")
	ErrSourceVersionMismatch    = errors.New("annotator source version mismatch")
	ErrMissingAnnotatorMetadata = errors.New("missing annotator metadata")
	ErrSnapshotNameDuplicate    = errors.New("annotation snapshot name already exists")
	ErrSnapshotNotFound         = errors.New("annotation snapshot not found")

	// ErrVersionConflict is returned when the metadata store was written by
	// someone else since it was last read.
	ErrVersionConflict = errors.New("metadata version conflict")
	// ErrNoCurrentAnnotation is returned when a snapshot is requested
	// before any annotation has been checked or committed.
	ErrNoCurrentAnnotation = errors.New("no current annotation")
	ErrInvalidArgument     = errors.New("invalid argument")
)

// AlreadyIndexedError reports samples already covered by a search partition.
type AlreadyIndexedError struct {
	Project string
	Samples []string
}

func (e *AlreadyIndexedError) Error() string {
	return fmt.Sprintf("samples [%s] of project %s already in search index", strings.Join(e.Samples, ", "), e.Project)
}

func (e *AlreadyIndexedError) Is(target error) bool { return target == ErrAlreadyIndexed }

type AnnotatorMismatchError struct {
	Existing  *indexes.AnnotatorDescriptor
	Attempted *indexes.AnnotatorDescriptor
}

func (e *AnnotatorMismatchError) Error() string {
	return fmt.Sprintf("Using a different annotator! Existing annotation calculated with %s, attempting to annotate with %s",
		e.Existing, e.Attempted)
}

func (e *AnnotatorMismatchError) Is(target error) bool { return target == ErrAnnotatorMismatch }

type SourceVersionMismatchError struct {
	Existing  []indexes.SourceVersionEntry
	Attempted []indexes.SourceVersionEntry
}

func (e *SourceVersionMismatchError) Error() string {
	return fmt.Sprintf("Source version of the annotator has changed. Existing annotation calculated with %s, attempting to annotate with %s",
		indexes.SourceVersionsToString(e.Existing), indexes.SourceVersionsToString(e.Attempted))
}

func (e *SourceVersionMismatchError) Is(target error) bool { return target == ErrSourceVersionMismatch }

// MissingAnnotatorMetadataError wraps the annotator failure, if any.
type MissingAnnotatorMetadataError struct {
	Reason string
	cause  error
}

func NewMissingAnnotatorMetadataError(reason string, cause error) *MissingAnnotatorMetadataError {
	return &MissingAnnotatorMetadataError{Reason: reason, cause: cause}
}

func (e *MissingAnnotatorMetadataError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.cause)
	}
	return e.Reason
}

func (e *MissingAnnotatorMetadataError) Unwrap() error { return e.cause }

func (e *MissingAnnotatorMetadataError) Is(target error) bool {
	return target == ErrMissingAnnotatorMetadata
}

type SnapshotNameDuplicateError struct {
	Name string
}

func (e *SnapshotNameDuplicateError) Error() string {
	return fmt.Sprintf("Annotation snapshot name %q already exists!", e.Name)
}

func (e *SnapshotNameDuplicateError) Is(target error) bool { return target == ErrSnapshotNameDuplicate }

type SnapshotNotFoundError struct {
	Name string
}

func (e *SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("Variant Annotation snapshot %q not found!", e.Name)
}

func (e *SnapshotNotFoundError) Is(target error) bool { return target == ErrSnapshotNotFound }
