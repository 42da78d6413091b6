package models

import "time"

// Event is a normalized calendar event, ready for serialization.
// The JSON field names are the tool's output contract; consumers parse them.
type Event struct {
	Date              string       `json:"date"`               // Calendar date of the event start (YYYY-MM-DD, local time)
	StartTime         string       `json:"start_time"`         // Local start time (HH:MM:SS); 00:00:00 for all-day events
	EndTime           string       `json:"end_time"`           // Local end time (HH:MM:SS); 23:59:59 for all-day events
	Title             string       `json:"title"`              // Event summary, empty when the backend has none
	AcceptedAttendees []string     `json:"accepted_attendees"` // Emails of attendees who accepted, excluding the authenticated user
	Attachments       []Attachment `json:"attachments"`        // Attachments in backend order

	// Underlying instants, kept out of the JSON output for the ICS sink.
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

// Attachment is an event attachment as reported by the backend.
type Attachment struct {
	Title    string `json:"title"`
	FileURL  string `json:"fileUrl"`
	MimeType string `json:"mimeType"`
}
