package model

import "time"

// Inspection result values.
const (
    InspectionPassed = "PASSED"
    InspectionFailed = "FAILED"
)

// Inspection is a compliance report an inspector files against a stall.
type Inspection struct {
    ID          uint64    `json:"id"`           // inspections.id
    StallID     uint64    `json:"stall_id"`     // inspections.stall_id
    InspectorID uint64    `json:"inspector_id"` // inspections.inspector_id (user)
    Result      string    `json:"result"`       // inspections.result
    Remarks     string    `json:"remarks"`      // inspections.remarks
    FiledAt     time.Time `json:"filed_at"`     // inspections.filed_at
}
