package queryParam

import (
	"gohan/storage/models/constants"
	"strings"
)

const (
	Unknown constants.QueryParam = ""

	SAMPLE         constants.QueryParam = "SAMPLE"
	FILE           constants.QueryParam = "FILE"
	GENOTYPE       constants.QueryParam = "GENOTYPE"
	INCLUDE_SAMPLE constants.QueryParam = "INCLUDE_SAMPLE"
	INCLUDE_FILE   constants.QueryParam = "INCLUDE_FILE"
)

// All returns the recognized query keys in a stable order.
func All() []constants.QueryParam {
	return []constants.QueryParam{SAMPLE, FILE, GENOTYPE, INCLUDE_SAMPLE, INCLUDE_FILE}
}

// CastToQueryParam accepts both the upper-case wire keys
// and the camel-cased HTTP query parameter names
// (i.e. `includeSample`).
func CastToQueryParam(text string) constants.QueryParam {
	switch strings.ToLower(strings.ReplaceAll(text, "_", "")) {
	case "sample":
		return SAMPLE
	case "file":
		return FILE
	case "genotype":
		return GENOTYPE
	case "includesample":
		return INCLUDE_SAMPLE
	case "includefile":
		return INCLUDE_FILE
	default:
		return Unknown
	}
}

func IsKnownQueryParam(text string) bool {
	return CastToQueryParam(text) != Unknown
}

func IsNegated(value string) bool {
	return strings.HasPrefix(value, constants.NEGATION)
}

func RemoveNegation(value string) string {
	return strings.TrimPrefix(value, constants.NEGATION)
}

func IsAll(value string) bool {
	return value == constants.ALL || value == constants.ALL_SHORT
}

func IsNone(value string) bool {
	return value == constants.NONE
}
