package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldBackend       = "backend"
	FieldFailure       = "failure"
	FieldFilter        = "filter"
	FieldCategory      = "category"
	FieldPaymentMethod = "payment_method"
	FieldAmount        = "amount"
	FieldRejected      = "rejected"
	FieldRecords       = "records"
	FieldRef           = "ref"
	FieldRecordID      = "id"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentAnalytics  = "analytics"
	ComponentClassifier = "classifier"
	ComponentSubmit     = "submit"
	ComponentWorker     = "worker"
	ComponentCache      = "cache"
	ComponentBackend    = "backend"
	ComponentReport     = "report"
)

// Operations defines standard operation names
const (
	OpSubmit    = "submit"
	OpClassify  = "classify"
	OpDashboard = "dashboard"
	OpSummary   = "summary"
	OpTrends    = "trends"
	OpExport    = "export"
	OpSync      = "sync"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
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
