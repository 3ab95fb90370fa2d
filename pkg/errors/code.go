package errors

// Service codes (AA)
const (
	// ServiceCommon is for common/base errors shared by all services.
	ServiceCommon = 0

	// ServiceInfraCache is for cache infrastructure.
	ServiceInfraCache = 11

	// ServiceRAG is for the document Q&A pipeline.
	ServiceRAG = 20
)

// Category codes (BB)
const (
	CategorySuccess  = 0
	CategoryRequest  = 1
	CategoryResource = 4
	CategoryConflict = 5
	CategoryInternal = 7
	CategoryDatabase = 8
	CategoryCache    = 9
	CategoryNetwork  = 10
	CategoryTimeout  = 11
	CategoryConfig   = 12
)

// MakeCode creates an error code from service, category, and sequence.
// Format: AABBCCC where AA=service, BB=category, CCC=sequence
func MakeCode(service, category, sequence int) int {
	return service*100000 + category*1000 + sequence
}

// ParseCode parses an error code into service, category, and sequence.
func ParseCode(code int) (service, category, sequence int) {
	service = code / 100000
	category = (code % 100000) / 1000
	sequence = code % 1000
	return
}

// GetCategory returns the category code from an error code.
func GetCategory(code int) int {
	return (code % 100000) / 1000
}
