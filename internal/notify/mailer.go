// Package notify sends subscriber notification email behind a narrow
// Mailer interface. Message formatting stays minimal; delivery failures are
// the caller's to log, never to surface.
package notify

import "context"

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
