package model

// IdentitySource names the cascade step that produced a candidate.
type IdentitySource string

const (
	IdentitySourceInvitedLine   IdentitySource = "invited_line"
	IdentitySourceInboxSender   IdentitySource = "inbox_sender"
	IdentitySourceSentRecipient IdentitySource = "sent_recipient"
	IdentitySourceSenderHeader  IdentitySource = "sender_header"
	IdentitySourceAddressLocal  IdentitySource = "address_local_part"
	IdentitySourceInternalMail  IdentitySource = "internal_mail"
)

// CandidateIdentity is produced by one cascade step and never persisted.
type CandidateIdentity struct {
	DisplayName string
	Address     string
	Source      IdentitySource
}

// Resolved reports whether the candidate carries an address.
func (c CandidateIdentity) Resolved() bool {
	return c.Address != ""
}
