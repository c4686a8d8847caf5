package routingService

import (
	"gohan/storage/models/constants"
	qp "gohan/storage/models/constants/query-param"
	"gohan/storage/models/indexes"
	"gohan/storage/models/query"
	"gohan/storage/utils"
)

type (
	// CoverageView is the read side of a coverage registry.
	CoverageView interface {
		LookupPartitionForSample(sampleId string) *indexes.IndexPartition
		LookupPartitionForFile(fileId string) *indexes.IndexPartition
	}

	// RoutingTarget names the single partition able to answer a query.
	// An unresolved target means the query has to go to the primary store.
	RoutingTarget struct {
		Resolved       bool
		PartitionId    int
		CollectionName string
	}

	scope struct {
		positiveSamples []string
		positiveFiles   []string
		samples         []string
		files           []string
		unbounded       bool
	}
)

var Unresolved = RoutingTarget{}

// Route decides whether a single partition covers every sample and file the
// query refers to. SAMPLE, GENOTYPE and FILE filters bind the query to a
// partition; INCLUDE_SAMPLE and INCLUDE_FILE only have to be contained in it.
func Route(q query.Query, view CoverageView) RoutingTarget {
	s := collectScope(q)
	if s.unbounded {
		return Unresolved
	}

	var candidate *indexes.IndexPartition
	switch {
	case len(s.positiveSamples) > 0:
		candidate = commonOwner(s.positiveSamples, view.LookupPartitionForSample)
	case len(s.positiveFiles) > 0:
		candidate = commonOwner(s.positiveFiles, view.LookupPartitionForFile)
	}
	if candidate == nil {
		return Unresolved
	}

	// every reference, negated ones included, must stay inside the candidate
	for _, sample := range s.samples {
		owner := view.LookupPartitionForSample(sample)
		if owner == nil || owner.Id != candidate.Id {
			return Unresolved
		}
	}
	for _, file := range s.files {
		if !utils.StringInSlice(file, candidate.Files) {
			return Unresolved
		}
	}

	return RoutingTarget{
		Resolved:       true,
		PartitionId:    candidate.Id,
		CollectionName: candidate.CollectionName,
	}
}

func collectScope(q query.Query) *scope {
	s := &scope{}

	filter := func(key constants.QueryParam, positive *[]string, all *[]string) {
		for _, v := range q.Values(key) {
			if qp.IsAll(v) || qp.IsNone(v) {
				s.unbounded = true
				continue
			}
			if !qp.IsNegated(v) {
				*positive = append(*positive, v)
			}
			*all = append(*all, qp.RemoveNegation(v))
		}
	}
	include := func(key constants.QueryParam, all *[]string) {
		for _, v := range q.Values(key) {
			switch {
			case qp.IsNone(v):
			case qp.IsAll(v):
				s.unbounded = true
			default:
				*all = append(*all, qp.RemoveNegation(v))
			}
		}
	}

	filter(qp.SAMPLE, &s.positiveSamples, &s.samples)
	filter(qp.FILE, &s.positiveFiles, &s.files)

	if q.IsValid(qp.GENOTYPE) {
		genotypes := q.Genotypes()
		for _, sample := range genotypes.Samples {
			if genotypes.HasPositiveGenotype(sample) {
				s.positiveSamples = append(s.positiveSamples, sample)
			}
			s.samples = append(s.samples, sample)
		}
	}

	include(qp.INCLUDE_SAMPLE, &s.samples)
	include(qp.INCLUDE_FILE, &s.files)

	return s
}

// commonOwner returns the partition owning every id, or nil
// when an id is uncovered or the ids span several partitions.
func commonOwner(ids []string, lookup func(string) *indexes.IndexPartition) *indexes.IndexPartition {
	var owner *indexes.IndexPartition
	for _, id := range ids {
		p := lookup(id)
		if p == nil {
			return nil
		}
		if owner == nil {
			owner = p
		} else if owner.Id != p.Id {
			return nil
		}
	}
	return owner
}
