package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldSessionID   = "session_id"
	FieldFile        = "file"
	FieldRowsLoaded  = "rows_loaded"
	FieldRowsDropped = "rows_dropped"
	FieldExportID    = "export_id"
	FieldExportPath  = "export_path"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentAnalysis = "analysis"
	ComponentWorker   = "worker"
)

// Operations defines standard operation names
const (
	OpUpload = "upload"
	OpExport = "export"
)

// LogFields provides a builder for structured log fields.
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithUpload adds upload-outcome fields
func (f LogFields) WithUpload(file string, loaded, dropped int) LogFields {
	f[FieldFile] = file
	f[FieldRowsLoaded] = loaded
	f[FieldRowsDropped] = dropped
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
