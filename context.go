package flagkit

import (
	"encoding/json"

	deepcopy "github.com/barkimedes/go-deepcopy"
	"golang.org/x/exp/maps"

	"github.com/flagkit/flagkit/internal/value"
)

// Attributes is the set of per-request user attributes a Context
// evaluates features and experiments against (spec §3).
type Attributes map[string]value.Value

// FeaturesProvider lazily supplies a feature map to a Context that was
// built without a static one — typically a Repository (spec §6:
// "build_context(attributes, features?) — if features omitted, the
// context lazily queries the Repository").
type FeaturesProvider interface {
	GetFeatures() FeatureMap
}

// Context is the per-evaluation input: attributes plus whichever
// feature source and evaluation flags apply (spec §3). A Context is
// created per evaluation and is never mutated concurrently; builder
// methods return the same pointer for chaining, so callers that need
// an independent copy should call Clone first.
type Context struct {
	attributes          Attributes
	features            FeatureMap
	featuresProvider    FeaturesProvider
	enabled             bool
	url                 string
	qaMode              bool
	forcedVariations    map[string]int
	stickyBucketService StickyBucketService
	stickyBucketCache   StickyBucketAssignments
	forcedFeatureValues map[string]value.Value
	attributeOverrides  Attributes
}

// NewContext creates a context with default settings: enabled, no
// attributes, no features.
func NewContext() *Context {
	return &Context{
		enabled:             true,
		attributes:          Attributes{},
		features:            FeatureMap{},
		forcedVariations:    map[string]int{},
		stickyBucketCache:   StickyBucketAssignments{},
		forcedFeatureValues: map[string]value.Value{},
	}
}

// Clone returns a deep copy of the context, safe to hand to a
// goroutine that must not observe later mutation of the original.
func (ctx *Context) Clone() *Context {
	clone := *ctx
	if ctx.attributes != nil {
		clone.attributes = deepcopy.MustAnything(ctx.attributes).(Attributes)
	}
	if ctx.attributeOverrides != nil {
		clone.attributeOverrides = deepcopy.MustAnything(ctx.attributeOverrides).(Attributes)
	}
	if ctx.forcedVariations != nil {
		clone.forcedVariations = deepcopy.MustAnything(ctx.forcedVariations).(map[string]int)
	}
	clone.forcedFeatureValues = maps.Clone(ctx.forcedFeatureValues)
	clone.stickyBucketCache = maps.Clone(ctx.stickyBucketCache)
	return &clone
}

func (ctx *Context) Enabled() bool { return ctx.enabled }

func (ctx *Context) WithEnabled(enabled bool) *Context {
	ctx.enabled = enabled
	return ctx
}

func (ctx *Context) Attributes() Attributes { return ctx.attributes }

func (ctx *Context) WithAttributes(attributes Attributes) *Context {
	if attributes == nil {
		attributes = Attributes{}
	}
	ctx.attributes = attributes
	return ctx
}

func (ctx *Context) URL() string { return ctx.url }

func (ctx *Context) WithURL(url string) *Context {
	ctx.url = url
	return ctx
}

// Features returns the static feature map for this context, ignoring
// any FeaturesProvider.
func (ctx *Context) Features() FeatureMap { return ctx.features }

func (ctx *Context) WithFeatures(features FeatureMap) *Context {
	if features == nil {
		features = FeatureMap{}
	}
	ctx.features = features
	ctx.featuresProvider = nil
	return ctx
}

// WithFeaturesProvider attaches a lazy feature source such as a
// Repository. resolveFeatures prefers this over the static map.
func (ctx *Context) WithFeaturesProvider(provider FeaturesProvider) *Context {
	ctx.featuresProvider = provider
	return ctx
}

// resolveFeatures returns the feature map to evaluate against: the
// provider's live map when one is attached, else the static map.
func (ctx *Context) resolveFeatures() FeatureMap {
	if ctx.featuresProvider != nil {
		if fm := ctx.featuresProvider.GetFeatures(); fm != nil {
			return fm
		}
		return FeatureMap{}
	}
	return ctx.features
}

func (ctx *Context) ForcedVariations() map[string]int { return ctx.forcedVariations }

func (ctx *Context) WithForcedVariations(forcedVariations map[string]int) *Context {
	if forcedVariations == nil {
		forcedVariations = map[string]int{}
	}
	ctx.forcedVariations = forcedVariations
	return ctx
}

// ForceVariation pins an experiment key to a variation index, useful
// for QA and deep links.
func (ctx *Context) ForceVariation(key string, variation int) *Context {
	ctx.forcedVariations[key] = variation
	return ctx
}

// UnforceVariation removes a previously forced variation.
func (ctx *Context) UnforceVariation(key string) *Context {
	delete(ctx.forcedVariations, key)
	return ctx
}

func (ctx *Context) QAMode() bool { return ctx.qaMode }

func (ctx *Context) WithQAMode(qaMode bool) *Context {
	ctx.qaMode = qaMode
	return ctx
}

// WithStickyBucketService attaches a sticky bucket assignment store.
// A nil service (the default) disables sticky bucketing entirely,
// regardless of any rule's DisableStickyBucketing setting.
func (ctx *Context) WithStickyBucketService(service StickyBucketService) *Context {
	ctx.stickyBucketService = service
	return ctx
}

// AttributeOverrides returns the attribute overrides layered on top of
// Attributes() during evaluation.
func (ctx *Context) AttributeOverrides() Attributes { return ctx.attributeOverrides }

// WithAttributeOverrides layers override values on top of Attributes()
// for every evaluation run against this context, without mutating the
// base attribute set — useful for QA tooling that needs to preview a
// feature under a hypothetical attribute value without losing the
// caller's real attributes.
func (ctx *Context) WithAttributeOverrides(overrides Attributes) *Context {
	ctx.attributeOverrides = overrides
	return ctx
}

// resolveAttributes returns the attributes evaluation should actually
// see: the base set with any attributeOverrides layered on top.
func (ctx *Context) resolveAttributes() Attributes {
	if len(ctx.attributeOverrides) == 0 {
		return ctx.attributes
	}
	resolved := make(Attributes, len(ctx.attributes)+len(ctx.attributeOverrides))
	for k, v := range ctx.attributes {
		resolved[k] = v
	}
	for k, v := range ctx.attributeOverrides {
		resolved[k] = v
	}
	return resolved
}

// SetForcedFeature pins a feature id to a fixed value, bypassing its
// rules entirely — useful for QA and deep links (spec's supplemented
// forced-feature-value plumbing).
func (ctx *Context) SetForcedFeature(id string, v value.Value) *Context {
	ctx.forcedFeatureValues[id] = v
	return ctx
}

// ClearForcedFeature removes a previously forced feature value.
func (ctx *Context) ClearForcedFeature(id string) *Context {
	delete(ctx.forcedFeatureValues, id)
	return ctx
}

// ParseContext builds a Context from raw JSON input matching §6's
// wire shape: {attributes, url, enabled, qaMode, forcedVariations}.
func ParseContext(data []byte) (*Context, error) {
	var aux struct {
		Attributes       map[string]value.JSON `json:"attributes"`
		URL              string                 `json:"url"`
		Enabled          *bool                  `json:"enabled"`
		QAMode           bool                   `json:"qaMode"`
		ForcedVariations map[string]int         `json:"forcedVariations"`
		Features         FeatureMap             `json:"features"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	ctx := NewContext()
	attrs := Attributes{}
	for k, v := range aux.Attributes {
		attrs[k] = v.V
	}
	ctx.WithAttributes(attrs).WithURL(aux.URL).WithQAMode(aux.QAMode)
	if aux.Enabled != nil {
		ctx.WithEnabled(*aux.Enabled)
	}
	if aux.ForcedVariations != nil {
		ctx.WithForcedVariations(aux.ForcedVariations)
	}
	if aux.Features != nil {
		ctx.WithFeatures(aux.Features)
	}
	return ctx, nil
}
