package mailer

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/openhire/jobboard/internal/models"
)

// statusCopy is the fixed per-status content of a status-update email.
type statusCopy struct {
	Title         string
	Message       string
	BadgeClass    string
	Color         string
	Encouragement string
}

var statusCopies = map[models.Status]statusCopy{
	models.StatusReviewing: {
		Title:         "Application Under Review",
		Message:       "is currently being carefully reviewed by the hiring team",
		BadgeClass:    "status-badge info-badge",
		Color:         "#4299e1",
		Encouragement: "Hang tight! The team is taking time to properly evaluate your qualifications.",
	},
	models.StatusShortlisted: {
		Title:         "Great News - You've Been Shortlisted!",
		Message:       "has been shortlisted! You're among the top candidates",
		BadgeClass:    "status-badge success-badge",
		Color:         "#48bb78",
		Encouragement: "Congratulations! You're one step closer to landing this role.",
	},
	models.StatusInterview: {
		Title:         "Interview Invitation",
		Message:       "has progressed to the interview stage",
		BadgeClass:    "status-badge success-badge",
		Color:         "#4299e1",
		Encouragement: "This is exciting! Time to prepare and show them what you've got.",
	},
	models.StatusRejected: {
		Title:         "Application Update",
		Message:       "was not selected for this position",
		BadgeClass:    "status-badge danger-badge",
		Color:         "#f56565",
		Encouragement: "Don't let this discourage you! Every \"no\" brings you closer to the right \"yes\".",
	},
	models.StatusHired: {
		Title:         "Congratulations - You Got the Job!",
		Message:       "has been accepted! Welcome to your new role",
		BadgeClass:    "status-badge success-badge",
		Color:         "#48bb78",
		Encouragement: "Amazing! We're so excited for you and your new journey.",
	},
}

// copyFor falls back to the reviewing copy for statuses without dedicated
// content (a transition back to pending, for example).
func copyFor(status models.Status) statusCopy {
	if c, ok := statusCopies[status]; ok {
		return c
	}
	return statusCopies[models.StatusReviewing]
}

func statusSubjectPrefix(status models.Status) string {
	switch status {
	case models.StatusHired:
		return "Congratulations!"
	case models.StatusInterview:
		return "Interview Invitation:"
	case models.StatusShortlisted:
		return "Great News!"
	default:
		return "Application Update:"
	}
}

var layoutTmpl = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; background-color: #f8fafc; }
    .email-container { max-width: 600px; margin: 0 auto; background: #ffffff; border-radius: 12px; overflow: hidden; }
    .header { background: {{.Color}}; color: white; padding: 40px 30px; text-align: center; }
    .content { padding: 40px 30px; }
    .status-badge { background: #667eea; color: white; padding: 12px 20px; border-radius: 25px; font-weight: 600; display: inline-block; margin: 20px 0; text-transform: uppercase; font-size: 12px; }
    .success-badge { background: #38a169; }
    .danger-badge { background: #e53e3e; }
    .info-badge { background: #3182ce; }
    .cta-button { display: inline-block; background: #3182ce; color: white; padding: 16px 32px; text-decoration: none; border-radius: 8px; margin: 24px 0; font-weight: 600; }
    .highlight-box { background: #f7fafc; border-left: 6px solid {{.Color}}; padding: 20px; margin: 20px 0; border-radius: 6px; }
    .footer { background: #1a202c; color: #e2e8f0; padding: 30px; text-align: center; font-size: 14px; }
    .footer a { color: #63b3ed; text-decoration: none; }
  </style>
</head>
<body>
  <div class="email-container">
    <div class="header">
      <h1>{{.Brand}}</h1>
      <div>{{.Title}}</div>
    </div>
    <div class="content">
      {{.Content}}
    </div>
    <div class="footer">
      <p>&copy; {{.Year}} {{.Brand}}. All rights reserved.</p>
      <p><a href="{{.BaseURL}}/privacy">Privacy Policy</a> | <a href="{{.BaseURL}}/unsubscribe">Unsubscribe</a></p>
    </div>
  </div>
</body>
</html>
`))

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<h2>Welcome to your career journey!</h2>
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Your {{.Brand}} account has been created. You can now browse job opportunities, apply with a few clicks, and track every application from your dashboard.</p>
<div class="highlight-box"><p><strong>Your account is ready.</strong> Complete your profile to stand out to employers.</p></div>
<a href="{{.BaseURL}}/dashboard" class="cta-button">Explore Your Dashboard</a>
<p>Best wishes on your job search!</p>
<p><strong>The {{.Brand}} Team</strong></p>
`))

var applicationConfirmationTmpl = template.Must(template.New("application-confirmation").Parse(`
<h2>Application Submitted Successfully!</h2>
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Your application for the position of <strong>{{.JobTitle}}</strong> at <strong>{{.CompanyName}}</strong> has been submitted and is now with the hiring team.</p>
<div class="status-badge success-badge">Application Submitted</div>
{{if .ApplicationID}}<div class="highlight-box"><p><strong>Application Reference ID:</strong> {{.ApplicationID}}</p></div>{{end}}
<p>The hiring team will review your application, and you will receive an email whenever its status changes.</p>
<a href="{{.BaseURL}}/applications" class="cta-button">View Application Status</a>
<p>We're rooting for you!</p>
<p><strong>The {{.Brand}} Team</strong></p>
`))

var statusUpdateTmpl = template.Must(template.New("status-update").Parse(`
<h2>{{.Copy.Title}}</h2>
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>We have an update regarding your application for <strong>{{.JobTitle}}</strong> at <strong>{{.CompanyName}}</strong>.</p>
<p>Your application {{.Copy.Message}}.</p>
<div class="{{.Copy.BadgeClass}}">{{.StatusLabel}}</div>
{{if .Notes}}<div class="highlight-box"><p><strong>Message from {{.CompanyName}}:</strong></p><p>{{.Notes}}</p></div>{{end}}
<a href="{{.BaseURL}}/applications" class="cta-button">View Full Details</a>
<p>{{.Copy.Encouragement}}</p>
<p><strong>The {{.Brand}} Team</strong></p>
`))

var passwordResetTmpl = template.Must(template.New("password-reset").Parse(`
<h2>Password Reset Request</h2>
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>We received a request to reset the password for your {{.Brand}} account. If you made this request, use the button below.</p>
<a href="{{.ResetURL}}" class="cta-button">Reset Your Password</a>
<div class="highlight-box">
  <p><strong>Important:</strong> this link expires in {{.ExpiryHours}} hour(s). If you didn't request a reset, ignore this email and your password stays unchanged.</p>
</div>
<p>If the button doesn't work, copy and paste this link into your browser:</p>
<p style="word-break: break-all;">{{.ResetURL}}</p>
<p><strong>The {{.Brand}} Team</strong></p>
`))

var employerNewApplicationTmpl = template.Must(template.New("employer-new-application").Parse(`
<h2>New Job Application Received!</h2>
<p>Hi <strong>{{.EmployerName}}</strong>,</p>
<p>You've received a new application for your job posting.</p>
<div class="highlight-box">
  <p><strong>Position:</strong> {{.JobTitle}}</p>
  <p><strong>Candidate:</strong> {{.CandidateName}}</p>
  <p><strong>Application ID:</strong> {{.ApplicationID}}</p>
  <p><strong>Received:</strong> {{.Received}}</p>
</div>
<a href="{{.BaseURL}}/employer/applications" class="cta-button">Review Application</a>
<p>Quick responses and clear communication help attract the best talent.</p>
<p><strong>The {{.Brand}} Team</strong></p>
`))

// renderLayout wraps already-rendered (and therefore already-escaped) content
// in the shared email chrome.
func renderLayout(brand, baseURL, title, color string, content string) (string, error) {
	var buf bytes.Buffer
	err := layoutTmpl.Execute(&buf, struct {
		Brand   string
		BaseURL string
		Title   string
		Color   template.CSS
		Content template.HTML
		Year    int
	}{
		Brand:   brand,
		BaseURL: baseURL,
		Title:   title,
		Color:   template.CSS(color),
		Content: template.HTML(content),
		Year:    time.Now().Year(),
	})
	return buf.String(), err
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func statusLabel(status models.Status) string {
	return strings.ToUpper(strings.ReplaceAll(string(status), "_", " "))
}
