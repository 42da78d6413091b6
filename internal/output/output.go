package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"gcalevents/internal/models"
)

// envelope is the top-level JSON document.
type envelope struct {
	Events []models.Event `json:"events"`
}

// WriteJSON writes the events wrapped in a {"events": [...]} envelope.
// Empty runs encode as an empty array, never null.
func WriteJSON(w io.Writer, events []models.Event) error {
	if events == nil {
		events = []models.Event{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(envelope{Events: events}); err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}
	return nil
}

// WriteICS renders the events as an iCalendar document, one VEVENT each.
func WriteICS(w io.Writer, events []models.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//gcalevents//EN")

	for _, event := range events {
		cal.Children = append(cal.Children, toICal(event))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode iCal document: %w", err)
	}
	return nil
}

// toICal converts a normalized event to an ical.Component (VEvent).
func toICal(event models.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uuid.New().String())
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.Start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.End)

	for _, attendee := range event.AcceptedAttendees {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText(fmt.Sprintf("mailto:%s", attendee))
		ve.Props.Add(p)
	}
	for _, att := range event.Attachments {
		p := ical.NewProp(ical.PropAttach)
		p.SetText(att.FileURL)
		ve.Props.Add(p)
	}
	return ve
}
