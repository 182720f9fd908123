package checker

import (
	"context"
	"fmt"
	"regexp"

	"github.com/boillodmanuel/markdown-link-check/resolve"
)

// mailAddress accepts dot-atom local parts and dotted domain names with
// labels of at most 63 characters.
var mailAddress = regexp.MustCompile(
	`^[A-Za-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+(?:\.[A-Za-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+)*` +
		`@[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?)+$`,
)

// MailChecker validates mail addresses syntactically. It never touches the
// network.
type MailChecker struct{}

// Check reports 200 for a well-formed address and 400 otherwise.
func (MailChecker) Check(_ context.Context, target resolve.Target) Outcome {
	if len(target.Location) > 254 || !mailAddress.MatchString(target.Location) {
		return Failed(400, KindInvalidAddress, fmt.Errorf("invalid mail address %q", target.Location))
	}
	return Outcome{StatusCode: 200}
}
