package visitor

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/weiwangfds/vidshare/config"
	"github.com/weiwangfds/vidshare/internal/database"
)

const (
	chromeUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	googleUA   = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	facebookUA = "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)"
)

func defaultClassifier() *Classifier {
	return NewClassifier(config.ViewerConfig{})
}

func signatureGen() gopter.Gen {
	values := make([]interface{}, len(config.DefaultBotSignatures))
	for i, s := range config.DefaultBotSignatures {
		values[i] = s
	}
	return gen.OneConstOf(values...)
}

func TestIsBot(t *testing.T) {
	c := defaultClassifier()

	assert.True(t, c.IsBot(googleUA))
	assert.True(t, c.IsBot("Mozilla/5.0 (compatible; bingbot/2.0)"))
	assert.True(t, c.IsBot("YANDEXBOT"))
	assert.True(t, c.IsBot(facebookUA))
	assert.False(t, c.IsBot(chromeUA))
	assert.False(t, c.IsBot(""))
}

func TestIsFacebookBot(t *testing.T) {
	c := defaultClassifier()

	assert.True(t, c.IsFacebookBot(facebookUA))
	assert.True(t, c.IsFacebookBot("FacebookExternalHit/1.1"))
	assert.False(t, c.IsFacebookBot(googleUA))
}

func TestNewClassifier_CustomSignatures(t *testing.T) {
	c := NewClassifier(config.ViewerConfig{BotSignatures: []string{" MyCrawler ", ""}})

	assert.True(t, c.IsBot("mycrawler/1.0"))
	assert.False(t, c.IsBot(googleUA))
	assert.True(t, c.IsFacebookBot(facebookUA))
}

func TestDecide(t *testing.T) {
	c := defaultClassifier()

	tests := []struct {
		name  string
		video database.Video
		ua    string
		want  Decision
	}{
		{
			name:  "plain video renders",
			video: database.Video{},
			ua:    chromeUA,
			want:  Decision{Action: Render},
		},
		{
			name:  "bot without antibot renders",
			video: database.Video{},
			ua:    googleUA,
			want:  Decision{Action: Render},
		},
		{
			name:  "antibot denies bot",
			video: database.Video{UseAntibot: true, RedirectURL: "https://r.example.com"},
			ua:    googleUA,
			want:  Decision{Action: Deny},
		},
		{
			name:  "antibot lets people through",
			video: database.Video{UseAntibot: true, RedirectURL: "https://r.example.com"},
			ua:    chromeUA,
			want:  Decision{Action: ClickRedirect, Target: "https://r.example.com"},
		},
		{
			name:  "antibot wins over facebook redirect",
			video: database.Video{UseAntibot: true, FacebookRedirectURL: "https://fb.example.com"},
			ua:    facebookUA,
			want:  Decision{Action: Deny},
		},
		{
			name:  "facebook crawler gets its own target",
			video: database.Video{FacebookRedirectURL: "https://fb.example.com", RedirectURL: "https://r.example.com"},
			ua:    facebookUA,
			want:  Decision{Action: FacebookRedirect, Target: "https://fb.example.com"},
		},
		{
			name:  "facebook target ignored for people",
			video: database.Video{FacebookRedirectURL: "https://fb.example.com"},
			ua:    chromeUA,
			want:  Decision{Action: Render},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Decide(&tt.video, tt.ua))
		})
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "render", Render.String())
	assert.Equal(t, "deny", Deny.String())
	assert.Equal(t, "facebook_redirect", FacebookRedirect.String())
	assert.Equal(t, "click_redirect", ClickRedirect.String())
	assert.Equal(t, "unknown", Action(42).String())
}

// Antibot videos deny every UA carrying a bot signature, whatever the other
// fields hold.
func TestProperty_AntibotDeniesBots(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	c := defaultClassifier()

	properties.Property("antibot + bot signature is always denied", prop.ForAll(
		func(prefix, sig, suffix string, upper bool, redirect, fbRedirect string) bool {
			if upper {
				sig = strings.ToUpper(sig)
			}
			video := &database.Video{
				UseAntibot:          true,
				RedirectURL:         redirect,
				FacebookRedirectURL: fbRedirect,
			}
			return c.Decide(video, prefix+sig+suffix).Action == Deny
		},
		gen.AlphaString(),
		signatureGen(),
		gen.AlphaString(),
		gen.Bool(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// The Facebook crawler is redirected to the Facebook target and never counted
// as a click.
func TestProperty_FacebookRedirect(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	c := defaultClassifier()

	properties.Property("facebook crawler goes to facebook target", prop.ForAll(
		func(noise, target, redirect string) bool {
			video := &database.Video{
				FacebookRedirectURL: "https://fb.example.com/" + target,
				RedirectURL:         redirect,
			}
			d := c.Decide(video, "facebookexternalhit/1.1 "+noise)
			return d.Action == FacebookRedirect && d.Target == video.FacebookRedirectURL
		},
		gen.NumString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// For non-bot agents the redirect URL, when set, is always chosen.
func TestProperty_ClickRedirectForPeople(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	c := defaultClassifier()

	properties.Property("non-bot with redirect url is a counted redirect", prop.ForAll(
		func(noise, path string, antibot bool) bool {
			video := &database.Video{
				UseAntibot:          antibot,
				RedirectURL:         "https://r.example.com/" + path,
				FacebookRedirectURL: "https://fb.example.com",
			}
			// digits never form a signature
			d := c.Decide(video, "Mozilla/5.0 "+noise)
			return d.Action == ClickRedirect && d.Target == video.RedirectURL
		},
		gen.NumString(),
		gen.AlphaString(),
		gen.Bool(),
	))

	properties.Property("non-bot without redirect url renders", prop.ForAll(
		func(noise string, antibot bool) bool {
			video := &database.Video{UseAntibot: antibot, FacebookRedirectURL: "https://fb.example.com"}
			return c.Decide(video, "Mozilla/5.0 "+noise).Action == Render
		},
		gen.NumString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
