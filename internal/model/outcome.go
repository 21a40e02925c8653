package model

// DraftOutcome is the terminal record for one processed notes message.
type DraftOutcome struct {
	MessageID        string `json:"message_id"`
	Success          bool   `json:"success"`
	DraftID          string `json:"draft_id,omitempty"`
	DraftLink        string `json:"draft_link,omitempty"`
	Error            string `json:"error,omitempty"`
	ResolvedName     string `json:"resolved_name,omitempty"`
	ResolvedAddress  string `json:"resolved_address,omitempty"`
	InExistingThread bool   `json:"in_existing_thread"`
}

func FailedOutcome(messageID, errMsg string) DraftOutcome {
	return DraftOutcome{MessageID: messageID, Error: errMsg}
}
