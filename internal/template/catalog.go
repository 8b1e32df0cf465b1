package template

import "github.com/ignite/sales-automator/internal/domain"

// builtin is the compiled-in outreach catalog. IDs are stable and safe to
// persist; the UI references them directly.
var builtin = []domain.EmailTemplate{
	{
		ID:       "business-introduction",
		Name:     "Business Introduction",
		Category: domain.CategoryBusiness,
		Subject:  "Helping {{companyName}} streamline operations",
		Body: `<p>Hi {{contactName}},</p>
<p>I came across {{companyName}} and was impressed by what your team is building. We work with companies at a similar stage to automate their outreach and follow-up workflows, typically saving sales teams several hours a week.</p>
<p>Would you be open to a quick 15-minute call next week to see if there's a fit?</p>
<p>Best regards,<br>{{senderName}}<br>{{senderEmail}}<br>{{senderPhone}}</p>`,
	},
	{
		ID:       "friendly-approach",
		Name:     "Friendly Approach",
		Category: domain.CategoryFriendly,
		Subject:  "Quick question about {{companyName}}",
		Body: `<p>Hey {{contactName}},</p>
<p>Hope your week is going well! I've been following {{companyName}} for a bit and had an idea I wanted to run by you. It's related to how your team handles outbound email, and I think there's an easy win here.</p>
<p>Mind if I send over a short overview? No pressure either way.</p>
<p>Cheers,<br>{{senderName}}<br>{{senderEmail}}</p>`,
	},
	{
		ID:       "formal-proposal",
		Name:     "Formal Proposal",
		Category: domain.CategoryFormal,
		Subject:  "Partnership proposal for {{companyName}}",
		Body: `<p>Dear {{contactName}},</p>
<p>I am writing to propose a potential collaboration between our organizations. Based on our research into {{companyName}}, we believe our platform could materially improve your team's pipeline conversion rates.</p>
<p>I would welcome the opportunity to present a detailed proposal at your convenience. Please let me know a time that suits your schedule.</p>
<p>Sincerely,<br>{{senderName}}<br>{{senderEmail}}<br>{{senderPhone}}</p>`,
	},
	{
		ID:       "brief-efficient",
		Name:     "Brief & Efficient",
		Category: domain.CategoryBrief,
		Subject:  "{{companyName}} + automated outreach",
		Body: `<p>{{contactName}},</p>
<p>We help teams like {{companyName}} automate sales outreach. Worth a 10-minute call?</p>
<p>{{senderName}}<br>{{senderEmail}}</p>`,
	},
	{
		ID:       "problem-solving",
		Name:     "Problem Solving",
		Category: domain.CategoryBusiness,
		Subject:  "Solving the follow-up gap at {{companyName}}",
		Body: `<p>Hi {{contactName}},</p>
<p>Most sales teams lose deals not on the first touch but on the third follow-up that never happens. If that sounds familiar at {{companyName}}, we've built something that closes exactly that gap.</p>
<p>Happy to share how two teams in your space are using it. Interested?</p>
<p>Best,<br>{{senderName}}<br>{{senderEmail}}<br>{{senderPhone}}</p>`,
	},
}

// Catalog returns a copy of the built-in template list.
func Catalog() []domain.EmailTemplate {
	out := make([]domain.EmailTemplate, len(builtin))
	copy(out, builtin)
	return out
}
