package source

import (
	"fmt"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/pkg/errors"
)

// Registry resolves source plugins by platform tag and by scraper identity.
type Registry struct {
	byPlatform map[string][]Plugin
	byName     map[string]Plugin
	all        []Plugin
}

func NewRegistry(plugins ...Plugin) (*Registry, error) {
	r := &Registry{
		byPlatform: map[string][]Plugin{},
		byName:     map[string]Plugin{},
	}
	for _, p := range plugins {
		if _, dup := r.byName[p.Name()]; dup {
			return nil, fmt.Errorf("source plugin %q registered twice", p.Name())
		}
		r.byName[p.Name()] = p
		r.byPlatform[p.Platform()] = append(r.byPlatform[p.Platform()], p)
		r.all = append(r.all, p)
	}
	return r, nil
}

// ForChannel returns the first plugin registered for the channel's platform that accepts it.
func (r *Registry) ForChannel(c *domain.Channel) (Plugin, error) {
	for _, p := range r.byPlatform[c.Platform] {
		if p.CanHandle(c) {
			return p, nil
		}
	}
	return nil, errors.Wrap(errors.ErrNoHandler, fmt.Sprintf("no source for platform %q (channel %d)", c.Platform, c.ID))
}

// ForScraper returns the plugin whose identity matches a capture's recorded scraper.
func (r *Registry) ForScraper(name string) (Plugin, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, errors.Wrap(errors.ErrNoHandler, fmt.Sprintf("no source named %q", name))
	}
	return p, nil
}

func (r *Registry) Plugins() []Plugin {
	return r.all
}
