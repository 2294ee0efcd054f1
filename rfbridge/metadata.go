package rfbridge

// Well-known metadata keys used on the engine transport. These appear as
// custom_metadata on Arrow IPC RecordBatch messages.
const (
	MetaMethod         = "rf_bridge.method"
	MetaRequestVersion = "rf_bridge.request_version"
	MetaRequestID      = "rf_bridge.request_id"
	MetaLogLevel       = "rf_bridge.log_level"
	MetaLogMessage     = "rf_bridge.log_message"
	MetaLogExtra       = "rf_bridge.log_extra"
	MetaServerID       = "rf_bridge.server_id"

	ProtocolVersion = "1"
)
