package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"uvocollab/config"
	"uvocollab/models"
)

type EmailData struct {
	Subject   string
	To        []string
	Template  string
	Data      interface{}
	Year      int
	FromName  string
	FromEmail string
}

// Embedded email templates
var emailTemplates = map[string]string{
	"otp": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .otp-code { font-size: 24px; font-weight: bold; color: #3498db; margin: 20px 0; text-align: center; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header"><h2>Your Verification Code</h2></div>
    <div class="content">
        <p>Hello,</p>
        <p>Here is your one-time verification code:</p>
        <div class="otp-code">{{.Data.OTP}}</div>
        <p>This code will expire in 15 minutes. Please don't share it with anyone.</p>
    </div>
    <div class="footer">
        <p>If you didn't request this code, you can safely ignore this email.</p>
        <p>© {{.Year}} UvoCollab. All rights reserved.</p>
    </div>
</body>
</html>`,

	"collab_event": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .cta { display: inline-block; margin: 20px 0; padding: 12px 24px; background: #3498db; color: #fff; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header"><h2>{{.Data.Headline}}</h2></div>
    <div class="content">
        <p>Hello {{.Data.Name}},</p>
        <p>{{.Data.Body}}</p>
        {{if .Data.ActionURL}}<a class="cta" href="{{.Data.ActionURL}}">View collaboration</a>{{end}}
    </div>
    <div class="footer">
        <p>© {{.Year}} UvoCollab. All rights reserved.</p>
    </div>
</body>
</html>`,

	"receipt": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .amount { font-size: 24px; font-weight: bold; margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header"><h2>Payment received</h2></div>
    <div class="content">
        <p>Hello {{.Data.Name}},</p>
        <p>We received your payment for <strong>{{.Data.Title}}</strong>.</p>
        <div class="amount">{{.Data.Amount}}</div>
        <p>The funds are held in escrow and released to your collaborator when you mark the work complete.</p>
    </div>
    <div class="footer">
        <p>© {{.Year}} UvoCollab. All rights reserved.</p>
    </div>
</body>
</html>`,
}

// SendEmail renders the named template and sends it via SMTP.
func SendEmail(to, templateName, subject string, data interface{}) error {
	tmplSrc, ok := emailTemplates[templateName]
	if !ok {
		return fmt.Errorf("unknown email template %q", templateName)
	}

	tmpl, err := template.New(templateName).Parse(tmplSrc)
	if err != nil {
		return fmt.Errorf("failed to parse email template: %w", err)
	}

	payload := EmailData{
		Subject:   subject,
		To:        []string{to},
		Template:  templateName,
		Data:      data,
		Year:      time.Now().Year(),
		FromName:  config.AppConfig.FromName,
		FromEmail: config.AppConfig.FromEmail,
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, payload); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", payload.FromEmail, payload.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
	)
	return d.DialAndSend(m)
}

// SendOTPEmail sends a verification code.
func SendOTPEmail(to, otp string) error {
	return SendEmail(to, "otp", "Your Verification Code", map[string]string{"OTP": otp})
}

// SendCollabEmail sends a lifecycle event email.
func SendCollabEmail(to, name, headline, bodyText, actionURL string) error {
	return SendEmail(to, "collab_event", headline, map[string]string{
		"Name":      name,
		"Headline":  headline,
		"Body":      bodyText,
		"ActionURL": actionURL,
	})
}

// CollabMailer resolves a recipient id to an address and delivers the
// lifecycle event email. It satisfies lifecycle.Mailer.
type CollabMailer struct {
	DB *gorm.DB
}

func NewCollabMailer(db *gorm.DB) *CollabMailer {
	return &CollabMailer{DB: db}
}

func (cm *CollabMailer) SendCollabEvent(userID uint, collab *models.Collaboration, headline, body string) error {
	var user models.User
	if err := cm.DB.First(&user, userID).Error; err != nil {
		return err
	}

	name := user.Email
	if user.Name != nil && *user.Name != "" {
		name = *user.Name
	}
	actionURL := fmt.Sprintf("%s/collaborations/%d", config.AppConfig.FrontendURL, collab.ID)

	return SendCollabEmail(user.Email, name, headline, body, actionURL)
}

// SendReceiptEmail sends the buyer a payment receipt.
func SendReceiptEmail(to, name, title string, amountCents int64, currency string) error {
	amount := fmt.Sprintf("%.2f %s", float64(amountCents)/100, currency)
	return SendEmail(to, "receipt", "Payment received", map[string]string{
		"Name":   name,
		"Title":  title,
		"Amount": amount,
	})
}
