package log

// Common field names for structured logging
const (
	FieldComponent         = "component"
	FieldRequestID         = "request_id"
	FieldClientIP          = "client_ip"
	FieldMethod            = "method"
	FieldPath              = "path"
	FieldQuery             = "query"
	FieldStatusCode        = "status_code"
	FieldDuration          = "duration_ms"
	FieldUserAgent         = "user_agent"
	FieldSuccess           = "success"
	FieldError             = "error"
	FieldErrorType         = "error_type"
	FieldOperation         = "operation"
	FieldRecordID          = "record_id"
	FieldAmount            = "amount"
	FieldCurrency          = "currency"
	FieldPrimaryCategory   = "primary_category"
	FieldSecondaryCategory = "secondary_category"
	FieldMatchKind         = "match_kind"
	FieldSpreadsheetID     = "spreadsheet_id"
	FieldSheet             = "sheet"
	FieldCell              = "cell"
	FieldCount             = "count"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentPipeline   = "pipeline"
	ComponentClassifier = "classifier"
	ComponentRecords    = "records"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentSheets     = "sheets"
	ComponentCache      = "cache"
	ComponentAuth       = "auth"
	ComponentBackend    = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpDelete   = "delete"
	OpList     = "list"
	OpAppend   = "append"
	OpSync     = "sync"
	OpUpload   = "upload"
	OpDownload = "download"
	OpClassify = "classify"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
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

// WithRecord adds expense record fields
func (f LogFields) WithRecord(id, amount, currency, category, subcategory string) LogFields {
	f[FieldRecordID] = id
	f[FieldAmount] = amount
	f[FieldCurrency] = currency
	f[FieldPrimaryCategory] = category
	f[FieldSecondaryCategory] = subcategory
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
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
