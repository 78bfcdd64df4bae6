package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

// Composer renders the booking workflow emails.
type Composer struct {
	appURL string
}

func NewComposer(appURL string) *Composer {
	return &Composer{appURL: strings.TrimRight(appURL, "/")}
}

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937; max-width: 560px; margin: 0 auto;">
  <h2 style="color: #4f46e5;">{{.Heading}}</h2>
  <p>Hi {{.Greeting}},</p>
  {{range .Lines}}<p>{{.}}</p>
  {{end}}
  <table style="border-collapse: collapse; margin: 16px 0;">
    <tr><td style="padding: 4px 12px 4px 0;"><strong>Date</strong></td><td>{{.Date}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;"><strong>Time</strong></td><td>{{.Time}}</td></tr>
    {{if .With}}<tr><td style="padding: 4px 12px 4px 0;"><strong>With</strong></td><td>{{.With}}</td></tr>{{end}}
    {{if .Notes}}<tr><td style="padding: 4px 12px 4px 0;"><strong>Notes</strong></td><td>{{.Notes}}</td></tr>{{end}}
  </table>
  {{if .ActionURL}}<p><a href="{{.ActionURL}}" style="background: #4f46e5; color: #fff; padding: 10px 18px; border-radius: 6px; text-decoration: none;">{{.ActionLabel}}</a></p>{{end}}
  <p style="font-size: 12px; color: #6b7280;">This is an automated message from CampusCare counseling.</p>
</body>
</html>`))

type view struct {
	Heading     string
	Greeting    string
	Lines       []string
	Date        string
	Time        string
	With        string
	Notes       string
	ActionURL   string
	ActionLabel string
}

func (c *Composer) BookingRequested(cons *domain.Consultation, student, counselor *domain.User, to domain.Recipient) domain.Email {
	v := view{Heading: "Consultation request", Date: cons.Date, Time: cons.Time, ActionLabel: "Open dashboard"}
	if to == domain.RecipientCounselor {
		v.Greeting = name(counselor, "Counselor")
		v.Lines = []string{fmt.Sprintf("%s has requested a consultation with you.", name(student, "A student"))}
		v.With = name(student, "")
		v.ActionURL = c.link("/counselor/consultations")
		return c.render(v, "New consultation request")
	}
	v.Greeting = name(student, "there")
	v.Lines = []string{"Your consultation request was received. You will get another email once your counselor responds."}
	v.With = name(counselor, "")
	v.ActionURL = c.link("/consultations")
	return c.render(v, "Consultation request received")
}

func (c *Composer) ConsultationAccepted(cons *domain.Consultation, student, counselor *domain.User, to domain.Recipient) domain.Email {
	v := view{Heading: "Consultation confirmed", Date: cons.Date, Time: cons.Time, ActionLabel: "Join video room"}
	if cons.VideoLink != nil {
		v.ActionURL = *cons.VideoLink
	}
	if to == domain.RecipientCounselor {
		v.Greeting = name(counselor, "Counselor")
		v.Lines = []string{"You accepted this consultation. The video room is ready."}
		v.With = name(student, "")
		return c.render(v, "Consultation scheduled")
	}
	v.Greeting = name(student, "there")
	v.Lines = []string{"Your consultation was accepted. Use the button below to join at the scheduled time."}
	v.With = name(counselor, "")
	return c.render(v, "Your consultation was accepted")
}

func (c *Composer) ConsultationRejected(cons *domain.Consultation, student, counselor *domain.User) domain.Email {
	v := view{
		Heading:     "Consultation update",
		Greeting:    name(student, "there"),
		Lines:       []string{"Unfortunately your consultation request could not be accommodated. You are welcome to book another time."},
		Date:        cons.Date,
		Time:        cons.Time,
		With:        name(counselor, ""),
		ActionURL:   c.link("/consultations/new"),
		ActionLabel: "Book another time",
	}
	if cons.Notes != nil {
		v.Notes = *cons.Notes
	}
	return c.render(v, "Your consultation request was declined")
}

func (c *Composer) render(v view, subject string) domain.Email {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, v); err != nil {
		// the layout is static; fall back to plain text
		buf.Reset()
		buf.WriteString(template.HTMLEscapeString(strings.Join(v.Lines, " ")))
	}
	return domain.Email{Subject: subject, HTML: buf.String()}
}

func (c *Composer) link(path string) string {
	if c.appURL == "" {
		return ""
	}
	return c.appURL + path
}

func name(u *domain.User, fallback string) string {
	if u == nil || u.DisplayName == "" {
		return fallback
	}
	return u.DisplayName
}
