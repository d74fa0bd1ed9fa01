package models

// Snapshot is the whole store as written by snapshot persisters.
type Snapshot struct {
	Requests      []HelpRequest `json:"requests"`
	Responses     []Response    `json:"responses"`
	AcceptedUsers []int64       `json:"acceptedUsers"`
}

// Clone returns a deep copy so a failed save never leaks partial mutations.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Requests:      make([]HelpRequest, len(s.Requests)),
		Responses:     make([]Response, len(s.Responses)),
		AcceptedUsers: make([]int64, len(s.AcceptedUsers)),
	}
	for i, r := range s.Requests {
		if r.ReservedBy != nil {
			id := *r.ReservedBy
			r.ReservedBy = &id
		}
		out.Requests[i] = r
	}
	copy(out.Responses, s.Responses)
	copy(out.AcceptedUsers, s.AcceptedUsers)
	return out
}
