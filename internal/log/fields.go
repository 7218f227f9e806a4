package log

import (
	"maps"
	"slices"
)

// Attribute keys shared by every component.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldErrorType = "error_type"

	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldReferer    = "referer"
	FieldSuccess    = "success"

	FieldKey        = "key"
	FieldMonth      = "month"
	FieldEntryID    = "entry_id"
	FieldEntryType  = "entry_type"
	FieldEntryLabel = "entry_label"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldRevision   = "revision"
	FieldCount      = "count"
	FieldModel      = "model"
)

const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStore    = "store"
	ComponentStorage  = "storage"
	ComponentReceipt  = "receipt"
	ComponentAdvisor  = "advisor"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
	ComponentSecurity = "security"
	ComponentBackend  = "backend"
	ComponentModel    = "model"
)

// Values for FieldOperation.
const (
	OpCreate = "create"
	OpLoad   = "load"
	OpSave   = "save"
	OpUpdate = "update"
	OpDelete = "delete"
	OpClear  = "clear"
	OpAppend = "append"
	OpExport = "export"
	OpParse  = "parse"
	OpAdvise = "advise"
)

// Values for FieldErrorType.
const (
	ErrorTypeValidation  = "validation_error"
	ErrorTypePersistence = "persistence_error"
	ErrorTypeUpstream    = "upstream_error"
	ErrorTypeInternal    = "internal_error"
)

// LogFields collects attributes for one record. Setters return the map so
// calls chain.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields { return f.set(FieldComponent, component) }
func (f LogFields) WithRequestID(id string) LogFields        { return f.set(FieldRequestID, id) }
func (f LogFields) WithClientIP(ip string) LogFields         { return f.set(FieldClientIP, ip) }
func (f LogFields) WithOperation(op string) LogFields        { return f.set(FieldOperation, op) }
func (f LogFields) WithErrorType(t string) LogFields         { return f.set(FieldErrorType, t) }

// WithError is a no-op for a nil error.
func (f LogFields) WithError(err error) LogFields {
	if err == nil {
		return f
	}
	return f.set(FieldError, err.Error())
}

func (f LogFields) WithEntry(id, entryType, label string, amount float64, category string) LogFields {
	return f.set(FieldEntryID, id).
		set(FieldEntryType, entryType).
		set(FieldEntryLabel, label).
		set(FieldAmount, amount).
		set(FieldCategory, category)
}

// WithHTTPRequest skips empty headers and query strings.
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f.set(FieldMethod, method).set(FieldPath, path)
	for key, v := range map[string]string{FieldQuery: query, FieldUserAgent: userAgent, FieldReferer: referer} {
		if v != "" {
			f[key] = v
		}
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	return f.set(FieldStatusCode, statusCode).set(FieldDuration, durationMs).set(FieldSuccess, success)
}

// ToSlice flattens the fields into slog key/value pairs ordered by key.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for _, k := range slices.Sorted(maps.Keys(f)) {
		slice = append(slice, k, f[k])
	}
	return slice
}

func (f LogFields) set(key string, v any) LogFields {
	f[key] = v
	return f
}
