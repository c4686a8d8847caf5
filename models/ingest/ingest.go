package ingest

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	Queued  State = "Queued"
	Running State = "Running"
	Done    State = "Done"
	Error   State = "Error"
)

// LoadStats are the running counters of one or more incremental loaders.
type LoadStats struct {
	SkippedRefBlock    int `json:"skippedRefBlock"`
	SkippedAll         int `json:"skippedAll"`
	SkippedRefVariants int `json:"skippedRefVariants"`
	LoadedVariants     int `json:"loadedVariants"`
	LoadedVariantsAll  int `json:"loadedVariantsAll"`
}

func (s *LoadStats) Add(other LoadStats) {
	s.SkippedRefBlock += other.SkippedRefBlock
	s.SkippedAll += other.SkippedAll
	s.SkippedRefVariants += other.SkippedRefVariants
	s.LoadedVariants += other.LoadedVariants
	s.LoadedVariantsAll += other.LoadedVariantsAll
}

type LoadRequest struct {
	Id           uuid.UUID `json:"id"`
	Project      string    `json:"project"`
	RecordCount  int       `json:"recordCount"`
	State        State     `json:"state"`
	Message      string    `json:"message"`
	Stats        LoadStats `json:"stats"`
	MutationsOut int       `json:"mutationsOut"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type LoadResponseDTO struct {
	Id      uuid.UUID `json:"id"`
	State   State     `json:"state"`
	Message string    `json:"message"`
}
