package domain

// Flags are the lead pipeline feature toggles, injected at module
// construction instead of being read ambiently.
type Flags struct {
	// EnableLeadCapture gates all intake paths (enquiry, login, manual).
	EnableLeadCapture bool
	// EnableConversion gates the conversion orchestrator; when off,
	// converting fails with a policy error instead of silently succeeding.
	EnableConversion bool
}
