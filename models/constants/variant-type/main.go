package variantType

import (
	"gohan/storage/models/constants"
	"strings"
)

const (
	Unknown constants.VariantType = ""

	SNV           constants.VariantType = "SNV"
	MNV           constants.VariantType = "MNV"
	INDEL         constants.VariantType = "INDEL"
	SV            constants.VariantType = "SV"
	INSERTION     constants.VariantType = "INSERTION"
	DELETION      constants.VariantType = "DELETION"
	DUPLICATION   constants.VariantType = "DUPLICATION"
	INVERSION     constants.VariantType = "INVERSION"
	TRANSLOCATION constants.VariantType = "TRANSLOCATION"
	BREAKEND      constants.VariantType = "BREAKEND"
	CNV           constants.VariantType = "CNV"

	// reference blocks and placeholders
	NO_VARIATION constants.VariantType = "NO_VARIATION"
	SYMBOLIC     constants.VariantType = "SYMBOLIC"
	MIXED        constants.VariantType = "MIXED"
)

var targetTypes = map[constants.VariantType]bool{
	SNV:           true,
	MNV:           true,
	INDEL:         true,
	SV:            true,
	INSERTION:     true,
	DELETION:      true,
	DUPLICATION:   true,
	INVERSION:     true,
	TRANSLOCATION: true,
	BREAKEND:      true,
	CNV:           true,
}

func CastToVariantType(text string) constants.VariantType {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "SNV", "SNP":
		return SNV
	case "MNV", "MNP":
		return MNV
	case "INDEL":
		return INDEL
	case "SV":
		return SV
	case "INSERTION":
		return INSERTION
	case "DELETION":
		return DELETION
	case "DUPLICATION":
		return DUPLICATION
	case "INVERSION":
		return INVERSION
	case "TRANSLOCATION":
		return TRANSLOCATION
	case "BREAKEND":
		return BREAKEND
	case "CNV":
		return CNV
	case "NO_VARIATION", "REF_BLOCK":
		return NO_VARIATION
	case "SYMBOLIC":
		return SYMBOLIC
	case "MIXED":
		return MIXED
	default:
		return Unknown
	}
}

// IsTarget reports whether variants of this type are loaded
// into the primary store. Reference blocks, symbolic
// placeholders and unknown types are not.
func IsTarget(vt constants.VariantType) bool {
	return targetTypes[vt]
}
