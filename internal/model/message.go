package model

// Message is a mail message as seen by the gate and the resolvers.
type Message struct {
	ID       string
	ThreadID string
	Subject  string
	From     string // raw From header
	To       string // raw To header, may list several recipients
	Body     string // plain-text body
	Snippet  string
	Labels   []string
}

// DraftRequest describes a draft to create. When HTMLBody is set the draft is
// sent as multipart/alternative so the client opens it in rich-text mode.
type DraftRequest struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
	ThreadID string
}

// Draft is a created draft.
type Draft struct {
	ID        string
	MessageID string
}

// DraftLink returns the mail client URL that opens the draft for editing.
func (d Draft) DraftLink() string {
	return "https://mail.google.com/mail/u/0/#drafts?compose=" + d.MessageID
}
