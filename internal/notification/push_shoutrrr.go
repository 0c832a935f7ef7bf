package notification

import (
	"context"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/twdrugfinder/drugfinder/internal/errors"
)

var allTypes = []Type{TypeSupplyReport, TypeDrugProposal, TypeTest}

// ShoutrrrProvider fans reviewer alerts out to a list of shoutrrr service URLs
// (Slack, Telegram, generic webhooks and so on) through one router.
type ShoutrrrProvider struct {
	name    string
	enabled bool
	urls    []string
	accepts []Type
	timeout time.Duration

	router *router.ServiceRouter
}

// NewShoutrrrProvider returns a provider for urls. With no types it accepts all of them.
// The URLs are parsed by ValidateConfig, not here.
func NewShoutrrrProvider(name string, enabled bool, urls []string, types []Type, timeout time.Duration) *ShoutrrrProvider {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "shoutrrr"
	}
	if len(types) == 0 {
		types = allTypes
	}
	return &ShoutrrrProvider{
		name:    name,
		enabled: enabled,
		urls:    slices.Clone(urls),
		accepts: slices.Clone(types),
		timeout: timeout,
	}
}

func (p *ShoutrrrProvider) GetName() string { return p.name }

func (p *ShoutrrrProvider) IsEnabled() bool { return p.enabled }

func (p *ShoutrrrProvider) SupportsType(t Type) bool { return slices.Contains(p.accepts, t) }

// ValidateConfig builds the router. A disabled provider is always valid.
func (p *ShoutrrrProvider) ValidateConfig() error {
	if !p.enabled {
		return nil
	}
	if len(p.urls) == 0 {
		return p.fail(errors.NewStd("no reviewer URLs configured"), errors.CategoryConfiguration)
	}

	r, err := shoutrrr.CreateSender(p.urls...)
	if err != nil {
		return p.fail(err, errors.CategoryConfiguration)
	}
	if p.timeout > 0 {
		r.Timeout = p.timeout
	}
	// shoutrrr logs through the stdlib logger; route failures through Send's errors instead
	r.SetLogger(log.New(io.Discard, "", 0))
	p.router = r
	return nil
}

// Send posts the alert to every URL. Delivery stops counting at the first failure.
func (p *ShoutrrrProvider) Send(ctx context.Context, n *Notification) error {
	if p.router == nil {
		return p.fail(errors.NewStd("provider used before ValidateConfig"), errors.CategoryState)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := stypes.Params{}
	if n.Title != "" {
		params.SetTitle(n.Title)
	}
	errs := p.router.Send(n.Message, &params)
	if i := slices.IndexFunc(errs, func(e error) bool { return e != nil }); i >= 0 {
		return p.fail(errs[i], errors.CategoryNotification)
	}
	return nil
}

// fail wraps err with its message scrubbed; shoutrrr errors can echo tokens from service URLs.
func (p *ShoutrrrProvider) fail(err error, category errors.ErrorCategory) error {
	return errors.Newf("%s", errors.ScrubMessage(err.Error())).
		Category(category).
		Component("notification").
		Context("provider", p.name).
		Build()
}
