// Package templates renders the SyncTask transactional emails.
//
// Every builder is a pure function of its input: no I/O, no hidden state. Fields
// are not validated; an empty field renders as an empty string. Values are
// interpolated verbatim into both bodies.
package templates

import (
	"fmt"
	"strings"
)

// Kind names a notification template.
type Kind string

const (
	KindWelcome               Kind = "welcome"
	KindFriendRequest         Kind = "friend-request"
	KindFriendRequestAccepted Kind = "friend-request-accepted"
	KindGroupInvitation       Kind = "group-invitation"
	KindDeadlineReminder      Kind = "deadline-reminder"
)

// Email is a rendered message.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

type WelcomeData struct {
	Username string
	Email    string
}

type FriendRequestData struct {
	SenderUsername   string
	ReceiverUsername string
}

type FriendRequestAcceptedData struct {
	AccepterUsername string
	SenderUsername   string
}

type GroupInvitationData struct {
	InviterUsername string
	GroupName       string
	InviteeUsername string
}

// DeadlineReminderData carries an optional GroupName; the empty string means absent.
type DeadlineReminderData struct {
	Username  string
	TaskText  string
	Deadline  string
	GroupName string
}

const (
	signatureHTML = `
          <p style="font-size: 14px; color: #666; margin-top: 30px;">
            Best regards,<br>
            <strong>The SyncTask Team</strong>
          </p>
        </div>
        <p style="text-align: center; color: #999; font-size: 12px; margin-top: 20px;">
          This is an automated message from SyncTask. Please do not reply to this email.
        </p>
      </div>
`
	signatureText = "\n\nBest regards,\nThe SyncTask Team"
)

func openHTML(headingColor, heading, greetingName string) string {
	return fmt.Sprintf(`
      <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
        <div style="background-color: white; border-radius: 10px; padding: 30px; box-shadow: 0 2px 10px rgba(0,0,0,0.1);">
          <h1 style="color: %s; margin-bottom: 20px;">%s</h1>
          <p style="font-size: 16px; color: #333; line-height: 1.6;">
            Hi <strong>%s</strong>,
          </p>`, headingColor, heading, greetingName)
}

func paragraph(content string) string {
	return fmt.Sprintf(`
          <p style="font-size: 16px; color: #333; line-height: 1.6;">
            %s
          </p>`, content)
}

func callout(background, border, inner string) string {
	return fmt.Sprintf(`
          <div style="background-color: %s; border-left: 4px solid %s; padding: 15px; margin: 20px 0; border-radius: 5px;">%s
          </div>`, background, border, inner)
}

func strong(s string) string {
	return "<strong>" + s + "</strong>"
}

// Welcome renders the message sent when a user account is created.
func Welcome(d WelcomeData) Email {
	var b strings.Builder
	b.WriteString(openHTML("#2196F3", "🎉 Welcome to SyncTask!", d.Username))
	b.WriteString(paragraph("Thank you for joining SyncTask! We're excited to help you stay organized and collaborate with friends on your daily tasks."))
	b.WriteString(callout("#E3F2FD", "#2196F3", `
            <h3 style="margin: 0 0 10px 0; color: #1976D2; font-size: 16px;">Get Started:</h3>
            <ul style="margin: 0; padding-left: 20px; color: #1565C0; font-size: 14px;">
              <li>Create your first personal task</li>
              <li>Search for friends and send friend requests</li>
              <li>Create task groups to collaborate</li>
              <li>Track your progress together!</li>
            </ul>`))
	b.WriteString(paragraph("Your account has been successfully created with the email: " + strong(d.Email)))
	b.WriteString(signatureHTML)

	text := fmt.Sprintf("Hi %s,\n\n"+
		"Thank you for joining SyncTask! We're excited to help you stay organized and collaborate with friends on your daily tasks.\n\n"+
		"Get Started:\n"+
		"- Create your first personal task\n"+
		"- Search for friends and send friend requests\n"+
		"- Create task groups to collaborate\n"+
		"- Track your progress together!\n\n"+
		"Your account has been successfully created with the email: %s"+signatureText,
		d.Username, d.Email)

	return Email{
		Subject: "🎉 Welcome to SyncTask!",
		HTML:    b.String(),
		Text:    text,
	}
}

// FriendRequest renders the message sent to the receiver of a friend request.
func FriendRequest(d FriendRequestData) Email {
	var b strings.Builder
	b.WriteString(openHTML("#2196F3", "👋 New Friend Request!", d.ReceiverUsername))
	b.WriteString(paragraph(strong(d.SenderUsername) + " has sent you a friend request on SyncTask!"))
	b.WriteString(callout("#E3F2FD", "#2196F3", `
            <p style="margin: 0; color: #1976D2; font-size: 14px;">
              Open the SyncTask app to accept or decline this request and start collaborating on tasks together!
            </p>`))
	b.WriteString(signatureHTML)

	text := fmt.Sprintf("Hi %s,\n\n"+
		"%s has sent you a friend request on SyncTask!\n\n"+
		"Open the SyncTask app to accept or decline this request and start collaborating on tasks together!"+signatureText,
		d.ReceiverUsername, d.SenderUsername)

	return Email{
		Subject: "🤝 New Friend Request from " + d.SenderUsername,
		HTML:    b.String(),
		Text:    text,
	}
}

// FriendRequestAccepted renders the message sent to the original requester.
func FriendRequestAccepted(d FriendRequestAcceptedData) Email {
	var b strings.Builder
	b.WriteString(openHTML("#4CAF50", "🎉 Friend Request Accepted!", d.SenderUsername))
	b.WriteString(paragraph("Great news! " + strong(d.AccepterUsername) + " has accepted your friend request on SyncTask!"))
	b.WriteString(callout("#E8F5E9", "#4CAF50", `
            <p style="margin: 0; color: #2E7D32; font-size: 14px;">
              You can now create task groups and collaborate together. Start syncing your tasks today!
            </p>`))
	b.WriteString(signatureHTML)

	text := fmt.Sprintf("Hi %s,\n\n"+
		"Great news! %s has accepted your friend request on SyncTask!\n\n"+
		"You can now create task groups and collaborate together. Start syncing your tasks today!"+signatureText,
		d.SenderUsername, d.AccepterUsername)

	return Email{
		Subject: "✅ Friend Request Accepted by " + d.AccepterUsername,
		HTML:    b.String(),
		Text:    text,
	}
}

// GroupInvitation renders the message sent to a user invited into a task group.
func GroupInvitation(d GroupInvitationData) Email {
	var b strings.Builder
	b.WriteString(openHTML("#FF9800", "📋 New Group Invitation!", d.InviteeUsername))
	b.WriteString(paragraph(strong(d.InviterUsername) + " has invited you to join the task group:"))
	b.WriteString(callout("#FFF3E0", "#FF9800", fmt.Sprintf(`
            <h2 style="margin: 0 0 10px 0; color: #F57C00; font-size: 18px;">%s</h2>
            <p style="margin: 0; color: #E65100; font-size: 14px;">
              Join this group to collaborate on shared tasks and track progress together!
            </p>`, d.GroupName)))
	b.WriteString(signatureHTML)

	text := fmt.Sprintf("Hi %s,\n\n"+
		"%s has invited you to join the task group: \"%s\"\n\n"+
		"Join this group to collaborate on shared tasks and track progress together!"+signatureText,
		d.InviteeUsername, d.InviterUsername, d.GroupName)

	return Email{
		Subject: "📋 You've been invited to join \"" + d.GroupName + "\"",
		HTML:    b.String(),
		Text:    text,
	}
}

// DeadlineReminder renders a task deadline reminder. The "Group:" line appears
// in both bodies only when GroupName is set.
func DeadlineReminder(d DeadlineReminderData) Email {
	hasGroup := d.GroupName != ""

	details := fmt.Sprintf(`
            <h2 style="margin: 0 0 10px 0; color: #C62828; font-size: 18px;">%s</h2>
            <p style="margin: 5px 0; color: #B71C1C; font-size: 14px;">
              <strong>Deadline:</strong> %s
            </p>`, d.TaskText, d.Deadline)
	if hasGroup {
		details += fmt.Sprintf(`
            <p style="margin: 5px 0; color: #B71C1C; font-size: 14px;"><strong>Group:</strong> %s</p>`,
			d.GroupName)
	}

	var b strings.Builder
	b.WriteString(openHTML("#F44336", "⏰ Task Deadline Approaching!", d.Username))
	b.WriteString(paragraph("This is a friendly reminder that your task deadline is approaching:"))
	b.WriteString(callout("#FFEBEE", "#F44336", details))
	b.WriteString(paragraph("Don't forget to mark it as complete when you're done!"))
	b.WriteString(signatureHTML)

	var t strings.Builder
	fmt.Fprintf(&t, "Hi %s,\n\n", d.Username)
	t.WriteString("This is a friendly reminder that your task deadline is approaching:\n\n")
	fmt.Fprintf(&t, "Task: %s\nDeadline: %s", d.TaskText, d.Deadline)
	if hasGroup {
		fmt.Fprintf(&t, "\nGroup: %s", d.GroupName)
	}
	t.WriteString("\n\nDon't forget to mark it as complete when you're done!")
	t.WriteString(signatureText)

	return Email{
		Subject: "⏰ Task Deadline Reminder: " + d.TaskText,
		HTML:    b.String(),
		Text:    t.String(),
	}
}

// Kinds lists every known template kind.
func Kinds() []Kind {
	return []Kind{KindWelcome, KindFriendRequest, KindFriendRequestAccepted, KindGroupInvitation, KindDeadlineReminder}
}

// Render selects a builder by kind and feeds it from a field map keyed by the
// camelCase field names used in trigger and callable payloads.
func Render(kind Kind, fields map[string]string) (Email, error) {
	switch kind {
	case KindWelcome:
		return Welcome(WelcomeData{
			Username: fields["username"],
			Email:    fields["email"],
		}), nil
	case KindFriendRequest:
		return FriendRequest(FriendRequestData{
			SenderUsername:   fields["senderUsername"],
			ReceiverUsername: fields["receiverUsername"],
		}), nil
	case KindFriendRequestAccepted:
		return FriendRequestAccepted(FriendRequestAcceptedData{
			AccepterUsername: fields["accepterUsername"],
			SenderUsername:   fields["senderUsername"],
		}), nil
	case KindGroupInvitation:
		return GroupInvitation(GroupInvitationData{
			InviterUsername: fields["inviterUsername"],
			GroupName:       fields["groupName"],
			InviteeUsername: fields["inviteeUsername"],
		}), nil
	case KindDeadlineReminder:
		return DeadlineReminder(DeadlineReminderData{
			Username:  fields["username"],
			TaskText:  fields["taskText"],
			Deadline:  fields["deadline"],
			GroupName: fields["groupName"],
		}), nil
	}
	return Email{}, fmt.Errorf("unknown template kind %q", kind)
}
