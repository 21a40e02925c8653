package model

// MeetingFacts is the structured record extracted from one set of meeting notes.
// Only ArtistEmail may change after extraction, and only to backfill an empty value.
type MeetingFacts struct {
	ArtistFirstName     string   `json:"artist_first_name"`
	ArtistEmail         string   `json:"artist_email"`
	CourseSubject       string   `json:"course_subject"`
	OutlineDeliveryDate string   `json:"outline_delivery_date,omitempty"`
	DemoVideoDate       string   `json:"demo_video_date,omitempty"`
	ContractTimeline    string   `json:"contract_timeline,omitempty"`
	CheckinSchedule     string   `json:"checkin_schedule,omitempty"`
	NextCheckinDate     string   `json:"next_checkin_date,omitempty"`
	ActionItems         []string `json:"action_items"`
}

// HasContact reports whether a contact address is known.
func (f *MeetingFacts) HasContact() bool {
	return f != nil && f.ArtistEmail != ""
}
