package loaderService

import (
	"strings"

	"gohan/storage/models"
	syncStatus "gohan/storage/models/constants/sync-status"

	"github.com/labstack/gommon/log"
)

// Encoder converts a variant record into a storage mutation.
// It returns nil when the record carries nothing worth storing.
type Encoder interface {
	Encode(record *models.VariantRecord) *models.StorageMutation
}

// VariantEncoder keys records of one project with a RowKeyCodec and keeps
// the sample data of non reference genotypes as payload.
type VariantEncoder struct {
	Project              string
	Codec                RowKeyCodec
	IncludeReferenceData bool

	logger *log.Logger
}

func NewVariantEncoder(project string, codec RowKeyCodec, includeReferenceData bool, logger *log.Logger) *VariantEncoder {
	if codec == nil {
		codec = BinaryRowKeyCodec{}
	}
	return &VariantEncoder{
		Project:              project,
		Codec:                codec,
		IncludeReferenceData: includeReferenceData,
		logger:               logger,
	}
}

func (e *VariantEncoder) Encode(record *models.VariantRecord) *models.StorageMutation {
	samples := e.convertSamples(record)
	if len(samples) == 0 {
		return nil
	}

	rowKey, err := e.Codec.Encode(record.Coordinate)
	if err != nil {
		e.logger.Warnf("Skipping malformed variant %s: %s", record.Coordinate, err)
		return nil
	}

	return &models.StorageMutation{
		Project: e.Project,
		RowKey:  rowKey,
		Columns: map[string]interface{}{
			"project":         e.Project,
			"coordinate":      record.Coordinate,
			"type":            record.Type,
			syncStatus.COLUMN: syncStatus.Unknown,
		},
		Samples: samples,
	}
}

func (e *VariantEncoder) convertSamples(record *models.VariantRecord) []models.SampleEntry {
	gtIdx := 0
	for i, key := range record.Format {
		if key == "GT" {
			gtIdx = i
			break
		}
	}

	samples := make([]models.SampleEntry, 0, len(record.Samples))
	for _, s := range record.Samples {
		if len(s.Values) == 0 {
			continue
		}
		if !e.IncludeReferenceData && gtIdx < len(s.Values) && isHomRef(s.Values[gtIdx]) {
			continue
		}
		samples = append(samples, models.SampleEntry{
			Study:  record.Study,
			FileId: record.FileId,
			Id:     s.Id,
			Format: append([]string(nil), record.Format...),
			Values: append([]string(nil), s.Values...),
		})
	}
	return samples
}

func isHomRef(gt string) bool {
	switch strings.TrimSpace(gt) {
	case "0", "0/0", "0|0":
		return true
	}
	return false
}
