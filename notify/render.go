package notify

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"lessonbook/mailer"
	"lessonbook/models"
)

const startLayout = "Monday, 2 January 2006 at 15:04"

func (n *Notifier) adminMessage(lesson models.Lesson) mailer.Message {
	when := lesson.Start.In(n.cfg.OperatingZone).Format(startLayout)

	text := fmt.Sprintf(`A new lesson was booked.

STUDENT:
%s (%s)

STARTS:
%s (%s)

DURATION:
%d minutes

Lesson ID: %s`,
		lesson.OwnerName, lesson.OwnerEmail,
		when, zoneLabel(n.cfg.OperatingZone, lesson.Start),
		lesson.DurationMinutes,
		lesson.ID,
	)
	html := fmt.Sprintf("<p>Student <strong>%s</strong> (%s) booked a lesson starting at <strong>%s</strong>.</p>",
		lesson.OwnerName, lesson.OwnerEmail, when)

	return mailer.Message{
		FromName:       n.cfg.FromName,
		FromEmail:      n.cfg.FromEmail,
		ToName:         "Admin",
		ToEmail:        n.cfg.AdminEmail,
		Subject:        "New lesson booked",
		Text:           text,
		HTML:           html,
		IdempotencyKey: lesson.ID + ":admin",
	}
}

func (n *Notifier) studentMessage(lesson models.Lesson, lastLesson bool) mailer.Message {
	loc := n.lessonZone(lesson)
	when := fmt.Sprintf("%s (%s)", lesson.Start.In(loc).Format(startLayout), zoneLabel(loc, lesson.Start))

	subject := "Reminder: your lesson starts soon"
	status := "Paid"
	if !lesson.Paid {
		subject = "Reminder: your unpaid lesson starts soon"
		status = "Not paid yet"
	}

	text := fmt.Sprintf(`Hola %s!

Your lesson starts at %s.
Payment status: %s.`, lesson.OwnerName, when, status)
	html := fmt.Sprintf(`<p>Hola <strong>%s</strong>!</p>
<p>Your lesson starts at <strong>%s</strong>.</p>
<p>Payment status: <strong>%s</strong>.</p>`, lesson.OwnerName, when, status)

	if lastLesson {
		notice := "This is the last lesson on your schedule. Book your next one to keep your spot."
		text += "\n\n" + notice
		html += "\n<p>" + notice + "</p>"
	}

	return mailer.Message{
		FromName:       n.cfg.FromName,
		FromEmail:      n.cfg.FromEmail,
		ToName:         lesson.OwnerName,
		ToEmail:        lesson.OwnerEmail,
		Subject:        subject,
		Text:           text,
		HTML:           html,
		IdempotencyKey: lesson.ID + ":student",
	}
}

func (n *Notifier) lowBalanceMessage(user models.User, balance int, now time.Time) mailer.Message {
	text := fmt.Sprintf(`Hola!

You have %d paid lesson(s) left on your schedule.
Book and pay for your next lessons to keep your regular time slot.`, balance)
	html := fmt.Sprintf(`<p>Hola!</p>
<p>You have <strong>%d</strong> paid lesson(s) left on your schedule.</p>
<p>Book and pay for your next lessons to keep your regular time slot.</p>`, balance)

	return mailer.Message{
		FromName:  n.cfg.FromName,
		FromEmail: n.cfg.FromEmail,
		ToName:    user.Email,
		ToEmail:   user.Email,
		Subject:   "Your lesson balance is low",
		Text:      text,
		HTML:      html,
		// Cool-down based, so the key is per window, not one-shot.
		IdempotencyKey: user.Email + ":lowbalance:" + now.Format("2006-01-02"),
	}
}

// lessonZone resolves the lesson's display zone, falling back to UTC when the
// lesson has none or names one the host does not know.
func (n *Notifier) lessonZone(lesson models.Lesson) *time.Location {
	if lesson.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(lesson.Timezone)
	if err != nil {
		n.log.Warn("unknown lesson timezone, falling back to UTC",
			zap.String("lesson_id", lesson.ID),
			zap.String("timezone", lesson.Timezone))
		return time.UTC
	}
	return loc
}

// zoneLabel renders a human-readable zone name: the IANA identifier plus the
// abbreviation or offset in effect at t, e.g. "Europe/Madrid, CET".
func zoneLabel(loc *time.Location, t time.Time) string {
	name := loc.String()
	abbr := t.In(loc).Format("MST")
	if name == abbr || name == "UTC" {
		return name
	}
	return name + ", " + abbr
}
