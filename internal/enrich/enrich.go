package enrich

import (
	"regexp"
	"sort"
	"strings"

	"github.com/orgball2608/channel-archiver/internal/domain"
)

// LanguageDetector returns an ISO 639-1 code, or "" when undecided.
type LanguageDetector interface {
	DetectLanguage(text string) string
}

// EntityExtractor returns the named entities mentioned in text.
type EntityExtractor interface {
	ExtractEntities(text string) []string
}

type Result struct {
	Hashtags        []string
	Outlinks        []string
	CryptoAddresses []string
	NamedEntities   []string
	Language        string
}

var (
	hashtagRe = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_&/])#([\p{L}\p{N}_]{1,100})`)
	urlRe     = regexp.MustCompile(`https?://[^\s<>"'()\[\]]+`)
	cryptoRes = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:bc1[0-9a-z]{25,59}|[13][a-km-zA-HJ-NP-Z1-9]{25,34})\b`), // bitcoin
		regexp.MustCompile(`\b0x[0-9a-fA-F]{40}\b`),                                     // ethereum
		regexp.MustCompile(`\bT[1-9A-HJ-NP-Za-km-z]{33}\b`),                             // tron
	}
)

// Registry holds the enrichment collaborators. It is built once at startup and shared.
type Registry struct {
	language LanguageDetector
	entities EntityExtractor
}

type Option func(*Registry)

func WithLanguageDetector(d LanguageDetector) Option {
	return func(r *Registry) { r.language = d }
}

func WithEntityExtractor(e EntityExtractor) Option {
	return func(r *Registry) { r.entities = e }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Enrich(text string) Result {
	res := Result{
		Hashtags:        Hashtags(text),
		Outlinks:        Outlinks(text),
		CryptoAddresses: CryptoAddresses(text),
	}
	if strings.TrimSpace(text) == "" {
		return res
	}
	if r.language != nil {
		res.Language = r.language.DetectLanguage(text)
	}
	if r.entities != nil {
		res.NamedEntities = unique(r.entities.ExtractEntities(text))
	}
	return res
}

// Apply enriches the post from its content, keeping lists the transformer already filled.
func (r *Registry) Apply(p *domain.Post) {
	res := r.Enrich(p.Content)
	p.Hashtags = unique(append(p.Hashtags, res.Hashtags...))
	p.Outlinks = unique(append(p.Outlinks, res.Outlinks...))
	p.CryptoAddresses = unique(append(p.CryptoAddresses, res.CryptoAddresses...))
	p.NamedEntities = unique(append(p.NamedEntities, res.NamedEntities...))
	if p.Language == "" {
		p.Language = res.Language
	}
}

func Hashtags(text string) []string {
	var out []string
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return unique(out)
}

func Outlinks(text string) []string {
	var out []string
	for _, u := range urlRe.FindAllString(text, -1) {
		out = append(out, strings.TrimRight(u, ".,;:!?"))
	}
	return unique(out)
}

func CryptoAddresses(text string) []string {
	var out []string
	for _, re := range cryptoRes {
		out = append(out, re.FindAllString(text, -1)...)
	}
	return unique(out)
}

// unique drops empties and duplicates, sorted.
func unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
