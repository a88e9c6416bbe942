package logger

// 结构化日志的标准字段名
const (
	FieldComponent  = "component"
	FieldPhase      = "phase"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
	FieldDecl       = "decl"
	FieldRound      = "round"
	FieldReason     = "reason"
	FieldPath       = "path"
	FieldPartition  = "partition"
	FieldError      = "error"
)
