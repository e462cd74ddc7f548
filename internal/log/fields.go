package log

// Common field names for structured logging.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldUID           = "uid"
	FieldWalletID      = "wallet_id"
	FieldTransactionID = "transaction_id"
	FieldKind          = "kind"
	FieldAmount        = "amount"
	FieldAction        = "action"
	FieldCount         = "count"
)

// Components defines standard component names.
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentWallet      = "wallet"
	ComponentTransaction = "transaction"
	ComponentStats       = "stats"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentSheets      = "sheets"
	ComponentImages      = "images"
	ComponentCache       = "cache"
	ComponentBackend     = "backend"
)

// Operations defines standard operation names.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpApply    = "apply"
	OpRevert   = "revert"
	OpExport   = "export"
	OpUpload   = "upload"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
