package model

import "time"

// Transition names recorded on versions and transition events.
const (
	TransitionSubmit  = "submit"
	TransitionReceive = "receive"
	TransitionFinish  = "finish"
	TransitionReport  = "report"
	TransitionApprove = "approve"
	TransitionUpdate  = "update"
	TransitionReject  = "reject"
	TransitionCancel  = "cancel"
	TransitionRevoke  = "revoke"
)

// Version is an immutable snapshot of an item result taken at a mutation.
type Version struct {
	ItemID     string    `json:"itemId"`
	Seq        int       `json:"seq"`
	Transition string    `json:"transition"`
	Value      *string   `json:"value,omitempty"`
	Comment    *string   `json:"comment,omitempty"`
	ActorID    string    `json:"actorId"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Clone returns a deep copy.
func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	ret := *v
	ret.Value = copyString(v.Value)
	ret.Comment = copyString(v.Comment)
	return &ret
}
