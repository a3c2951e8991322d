// Package visitor decides what a viewer request gets to see, based on the
// video's settings and the requesting user agent.
package visitor

import (
	"strings"

	"github.com/weiwangfds/vidshare/config"
	"github.com/weiwangfds/vidshare/internal/database"
)

// Action is the outcome of Decide.
type Action int

const (
	// Render shows the viewer page.
	Render Action = iota
	// Deny answers 403.
	Deny
	// FacebookRedirect sends the Facebook crawler to its own target; no click is counted.
	FacebookRedirect
	// ClickRedirect counts a click and redirects to the video's redirect URL.
	ClickRedirect
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Deny:
		return "deny"
	case FacebookRedirect:
		return "facebook_redirect"
	case ClickRedirect:
		return "click_redirect"
	default:
		return "unknown"
	}
}

// Decision is an Action plus its redirect target, if any.
type Decision struct {
	Action Action
	Target string
}

// Classifier matches user agents against crawler signatures.
type Classifier struct {
	signatures []string
	facebook   string
}

// NewClassifier lowercases the configured signatures. Empty settings fall back
// to config.DefaultBotSignatures and "facebookexternalhit".
func NewClassifier(cfg config.ViewerConfig) *Classifier {
	sigs := cfg.BotSignatures
	if len(sigs) == 0 {
		sigs = config.DefaultBotSignatures
	}
	c := &Classifier{facebook: strings.ToLower(cfg.FacebookSignature)}
	if c.facebook == "" {
		c.facebook = "facebookexternalhit"
	}
	for _, s := range sigs {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			c.signatures = append(c.signatures, s)
		}
	}
	return c
}

// IsBot reports whether userAgent contains any signature, ignoring case.
func (c *Classifier) IsBot(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, sig := range c.signatures {
		if strings.Contains(ua, sig) {
			return true
		}
	}
	return false
}

// IsFacebookBot reports whether userAgent is the Facebook link crawler.
func (c *Classifier) IsFacebookBot(userAgent string) bool {
	return strings.Contains(strings.ToLower(userAgent), c.facebook)
}

// Decide applies the viewer rules in order: antibot denial, Facebook crawler
// redirect, click-counted redirect, and otherwise render.
func (c *Classifier) Decide(video *database.Video, userAgent string) Decision {
	if video.UseAntibot && c.IsBot(userAgent) {
		return Decision{Action: Deny}
	}
	if video.FacebookRedirectURL != "" && c.IsFacebookBot(userAgent) {
		return Decision{Action: FacebookRedirect, Target: video.FacebookRedirectURL}
	}
	if video.RedirectURL != "" {
		return Decision{Action: ClickRedirect, Target: video.RedirectURL}
	}
	return Decision{Action: Render}
}
