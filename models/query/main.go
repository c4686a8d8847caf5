package query

import (
	"net/url"
	"sort"
	"strings"

	"gohan/storage/models/constants"
	qp "gohan/storage/models/constants/query-param"
)

// Query maps the recognized keys to their raw wire values.
// A key may carry several raw values (multi-map), each of which
// may itself be a comma separated list.
type Query map[constants.QueryParam][]string

func New() Query {
	return Query{}
}

// Append adds raw values under key; it returns the query for chaining.
func (q Query) Append(key constants.QueryParam, values ...string) Query {
	q[key] = append(q[key], values...)
	return q
}

// FromValues builds a Query from an HTTP style multi-map. Unrecognized
// keys are not scoping filters and are dropped.
func FromValues(values url.Values) Query {
	q := New()
	for k, vs := range values {
		key := qp.CastToQueryParam(k)
		if key == qp.Unknown {
			continue
		}
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				q.Append(key, v)
			}
		}
	}
	return q
}

// IsValid reports whether the key is present with at least one non-empty value.
func (q Query) IsValid(key constants.QueryParam) bool {
	return len(q.Values(key)) > 0
}

// Raw joins the raw values of key with separator.
func (q Query) Raw(key constants.QueryParam, separator string) string {
	return strings.Join(q[key], separator)
}

// Values splits every raw value of key on commas, trimming blanks.
func (q Query) Values(key constants.QueryParam) []string {
	var values []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			v = strings.TrimSpace(v)
			if v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

// Keys returns the present keys in a stable order.
func (q Query) Keys() []constants.QueryParam {
	keys := make([]constants.QueryParam, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// GenotypeFilter holds the genotypes requested per sample,
// in order of first appearance.
type GenotypeFilter struct {
	Samples   []string
	Genotypes map[string][]string
}

// HasPositiveGenotype reports whether at least one genotype
// requested for sample is not negated.
func (gf *GenotypeFilter) HasPositiveGenotype(sample string) bool {
	for _, gt := range gf.Genotypes[sample] {
		if !qp.IsNegated(gt) {
			return true
		}
	}
	return false
}

// ParseGenotypeFilter parses `s1:0/1,1/1;s2:!0/0`. Entries are separated
// by ';' or ','; an entry without a sample continues the genotype list
// of the previous sample.
func ParseGenotypeFilter(value string) *GenotypeFilter {
	gf := &GenotypeFilter{Genotypes: map[string][]string{}}

	var current string
	for _, group := range strings.Split(value, ";") {
		for _, token := range strings.Split(group, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}

			if idx := strings.LastIndex(token, ":"); idx >= 0 {
				current = strings.TrimSpace(token[:idx])
				if current == "" {
					continue
				}
				if _, seen := gf.Genotypes[current]; !seen {
					gf.Samples = append(gf.Samples, current)
					gf.Genotypes[current] = []string{}
				}
				if gt := strings.TrimSpace(token[idx+1:]); gt != "" {
					gf.Genotypes[current] = append(gf.Genotypes[current], gt)
				}
			} else if current != "" {
				gf.Genotypes[current] = append(gf.Genotypes[current], token)
			}
		}
	}
	return gf
}

// Genotypes parses the GENOTYPE key of the query.
func (q Query) Genotypes() *GenotypeFilter {
	return ParseGenotypeFilter(q.Raw(qp.GENOTYPE, ";"))
}
