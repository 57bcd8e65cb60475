package services

import (
	"fmt"
	"html"

	"hackathonwallah/models"
)

// Template names a notification the platform sends.
type Template string

const (
	TemplateRegistrationPendingPayment Template = "registration_pending_payment"
	TemplatePaymentSessionCreated      Template = "payment_session_created"
	TemplatePaymentSuccess             Template = "payment_success"
	TemplatePaymentFailed              Template = "payment_failed"
	TemplatePaymentRefunded            Template = "payment_refunded"
)

// TemplateData fills a template. Empty fields fall back to neutral wording.
type TemplateData struct {
	Name           string
	HackathonTitle string
	Amount         string
	OrderID        string
	ActionURL      string
}

// RenderedTemplate is the in-app notification plus its e-mail.
type RenderedTemplate struct {
	Title        string
	Message      string
	Type         models.NotificationType
	EmailSubject string
	EmailBody    string
}

func (d TemplateData) name() string {
	if d.Name == "" {
		return "there"
	}
	return d.Name
}

func (d TemplateData) hackathon() string {
	if d.HackathonTitle == "" {
		return "the hackathon"
	}
	return d.HackathonTitle
}

// Render builds the notification for t.
func Render(t Template, data TemplateData) (*RenderedTemplate, error) {
	hackathon := data.hackathon()
	name := html.EscapeString(data.name())
	strong := "<strong>" + html.EscapeString(hackathon) + "</strong>"
	amount := html.EscapeString(data.Amount)

	switch t {
	case TemplateRegistrationPendingPayment:
		return &RenderedTemplate{
			Title:        "Registration received",
			Message:      fmt.Sprintf("You are registered for %s. Complete the payment to confirm your slot.", hackathon),
			Type:         models.NotificationInfo,
			EmailSubject: "Registration received for " + hackathon,
			EmailBody: emailLayout(name,
				fmt.Sprintf("<p>We have recorded your registration for %s. Pay the &#8377;%s fee to secure your place.</p>", strong, amount),
				"<p>Open the app to finish checkout. See you soon!</p>"),
		}, nil
	case TemplatePaymentSessionCreated:
		return &RenderedTemplate{
			Title:        "Complete your payment",
			Message:      fmt.Sprintf("A secure checkout session for %s is ready. Open the payment widget to finish registering.", hackathon),
			Type:         models.NotificationInfo,
			EmailSubject: "Payment session ready for " + hackathon,
			EmailBody: emailLayout(name,
				fmt.Sprintf("<p>Your payment session for %s is ready. Use the app to complete the &#8377;%s fee.</p>", strong, amount),
				"<p>If the session expires, start a new one from the app or contact support.</p>"),
		}, nil
	case TemplatePaymentSuccess:
		return &RenderedTemplate{
			Title:        "Payment confirmed",
			Message:      fmt.Sprintf("We received your payment for %s. Your participation is confirmed.", hackathon),
			Type:         models.NotificationSuccess,
			EmailSubject: "Payment confirmed for " + hackathon,
			EmailBody: emailLayout(name,
				fmt.Sprintf("<p>Thanks! Your &#8377;%s payment for %s went through and your participation is confirmed.</p>", amount, strong),
				"<p>Schedules and resources will follow shortly.</p>"),
		}, nil
	case TemplatePaymentFailed:
		return &RenderedTemplate{
			Title:        "Payment did not go through",
			Message:      fmt.Sprintf("We could not process your payment for %s. Retry checkout or use a different method.", hackathon),
			Type:         models.NotificationWarning,
			EmailSubject: "Payment attempt failed for " + hackathon,
			EmailBody: emailLayout(name,
				fmt.Sprintf("<p>Your latest payment attempt for %s was unsuccessful. Retry from the app to keep your registration active.</p>", strong),
				fmt.Sprintf("<p>If the problem persists, contact support with order reference <strong>%s</strong>.</p>", html.EscapeString(data.OrderID))),
		}, nil
	case TemplatePaymentRefunded:
		return &RenderedTemplate{
			Title:        "Payment refunded",
			Message:      fmt.Sprintf("Your payment for %s has been refunded.", hackathon),
			Type:         models.NotificationInfo,
			EmailSubject: "Refund processed for " + hackathon,
			EmailBody: emailLayout(name,
				fmt.Sprintf("<p>We have refunded &#8377;%s for your %s registration.</p>", amount, strong),
				"<p>The amount should reach your account within a few business days.</p>"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown notification template %q", t)
	}
}

func emailLayout(name string, paragraphs ...string) string {
	body := fmt.Sprintf("<p>Hi %s,</p>", name)
	for _, p := range paragraphs {
		body += p
	}
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .content { background-color: #f9f9f9; padding: 20px; border-radius: 5px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="content">%s<p>Team HackathonWallah</p></div>
    </div>
</body>
</html>
`, body)
}

// PaymentTemplate picks the template announcing a payment status, if any.
func PaymentTemplate(status models.PaymentStatus) (Template, bool) {
	switch status {
	case models.PaymentSuccess:
		return TemplatePaymentSuccess, true
	case models.PaymentFailed:
		return TemplatePaymentFailed, true
	case models.PaymentRefunded:
		return TemplatePaymentRefunded, true
	}
	return "", false
}
