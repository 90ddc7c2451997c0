package transform

import (
	"fmt"

	"github.com/orgball2608/channel-archiver/pkg/errors"
)

// Registry maps a platform tag to the one plugin normalizing its captures.
type Registry struct {
	plugins map[string]Plugin
	order   []Plugin
}

func NewRegistry(plugins ...Plugin) (*Registry, error) {
	r := &Registry{plugins: make(map[string]Plugin, len(plugins))}
	for _, p := range plugins {
		if existing, ok := r.plugins[p.Platform()]; ok {
			return nil, fmt.Errorf("platform %q handled by both %s and %s", p.Platform(), existing.Name(), p.Name())
		}
		r.plugins[p.Platform()] = p
		r.order = append(r.order, p)
	}
	return r, nil
}

func (r *Registry) ForPlatform(platform string) (Plugin, error) {
	p, ok := r.plugins[platform]
	if !ok {
		return nil, errors.Wrap(errors.ErrNoHandler, fmt.Sprintf("no transformer for platform %q", platform))
	}
	return p, nil
}

func (r *Registry) Plugins() []Plugin {
	return r.order
}
