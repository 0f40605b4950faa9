package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Capability Errors (Z001-Z019)
	// ============================================

	"Z001": {
		Category:   CategoryCapability,
		Message:    "variable cannot modify",
		Detail:     "Set, Modify and Update require the MODIFY capability. Read-only wrappers, constants and derived variables reject write requests.",
		Suggestion: "Check Capabilities().CanModify() before writing, or write to the source variable instead.",
	},

	// ============================================
	// Downcast Errors (Z020-Z039)
	// ============================================

	"Z020": {
		Category:   CategoryDowncast,
		Message:    "type-erased downcast mismatch",
		Detail:     "The erased variable holds a different value type than the one requested. This is a programmer error, not a recoverable condition.",
		Suggestion: "Keep the typed handle instead of round-tripping through AnyVar, or downcast to the variable's actual value type.",
	},
	"Z021": {
		Category:   CategoryDowncast,
		Message:    "type-erased write mismatch",
		Detail:     "SetAny received a value whose type does not match the variable's value type.",
		Suggestion: "Convert the value to the variable's value type before the erased write.",
	},

	// ============================================
	// Context Errors (Z040-Z059)
	// ============================================

	"Z040": {
		Category:   CategoryContext,
		Message:    "context variable not initialized",
		Detail:     "The contextual variable has no value for any scope. Reads can only degrade to a different scope's value when at least one entry exists.",
		Suggestion: "Call SetFor or InitFor during widget instantiation before the first read.",
	},
	"Z041": {
		Category:   CategoryContext,
		Message:    "context read outside scope",
		Detail:     "Get was called with no current scope on this goroutine.",
		Suggestion: "Wrap the read in WithScope, or use GetIn with an explicit scope.",
	},

	// ============================================
	// Engine Errors (Z060-Z079)
	// ============================================

	"Z060": {
		Category:   CategoryEngine,
		Message:    "reentrant apply pass",
		Detail:     "Apply was called while an apply pass was already running on this engine. Hooks must enqueue modifications, not drive nested passes.",
		Suggestion: "Queue follow-up work with Set/Modify; it is committed within the same pass.",
	},
	"Z061": {
		Category:   CategoryEngine,
		Message:    "variable engine mismatch",
		Detail:     "The operation wires together variables owned by different Updates engines.",
		Suggestion: "Create related variables from the same Updates instance.",
	},
}

// Template returns the registered template for a code and whether it exists.
func Template(code string) (ErrorTemplate, bool) {
	tmpl, ok := registry[code]
	return tmpl, ok
}

// Codes returns all registered error codes.
func Codes() []string {
	out := make([]string, 0, len(registry))
	for code := range registry {
		out = append(out, code)
	}
	return out
}
