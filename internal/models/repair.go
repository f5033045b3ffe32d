package models

import "time"

// RepairOutcome is the result of a repair cycle. A repair that has not
// been returned yet carries OutcomeInRepair.
type RepairOutcome string

const (
	OutcomeInRepair    RepairOutcome = "in_repair"
	OutcomeRepaired    RepairOutcome = "repaired"
	OutcomeNotRepaired RepairOutcome = "not_repaired"
)

// IsClosed reports whether the outcome is a terminal one.
func (o RepairOutcome) IsClosed() bool {
	return o == OutcomeRepaired || o == OutcomeNotRepaired
}

// Repair represents one repair cycle at an external vendor.
type Repair struct {
	ID         int64         `json:"id"`
	ItemID     int64         `json:"item_id"`
	Vendor     string        `json:"vendor"`
	Problem    string        `json:"problem"`
	Solution   *string       `json:"solution,omitempty"`
	SentAt     time.Time     `json:"sent_at"`
	ReturnedAt *time.Time    `json:"returned_at,omitempty"`
	Outcome    RepairOutcome `json:"outcome"`
	SentBy     int64         `json:"sent_by"`
	ReceivedBy *int64        `json:"received_by,omitempty"`
}

// CreateRepairRequest represents the request body for sending a unit to repair
type CreateRepairRequest struct {
	ItemID  int64  `json:"item_id"`
	Vendor  string `json:"vendor"`
	Problem string `json:"problem"`
}

// ReturnRepairRequest represents the request body for closing a repair
type ReturnRepairRequest struct {
	Outcome  RepairOutcome `json:"outcome"`
	Solution *string       `json:"solution,omitempty"`
}
