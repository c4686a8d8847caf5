package constants

/*
	Defines a set of base level
	constants and enums to be used
	throughout Gohan and it's
	associated services.
*/
type QueryParam string
type VariantType string
type SyncStatus string

// Reserved query tokens
const (
	ALL       = "ALL"
	ALL_SHORT = "*"
	NONE      = "NONE"

	NEGATION = "!"
)
