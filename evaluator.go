package flagkit

import (
	"net/url"
	"strconv"

	"github.com/flagkit/flagkit/internal/value"
)

// Engine drives feature and experiment evaluation (spec §4.5). It is
// pure and allocation-only: no suspension points, no shared mutable
// state, safe to call concurrently from any number of goroutines
// against the same or different contexts.
type Engine struct {
	logger Logger
}

// NewEngine builds an Engine. A nil logger discards everything.
func NewEngine(logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{logger: logger}
}

// evaluation carries the per-call state (the path vector used for
// prerequisite cycle detection) through a single EvalFeature or
// RunExperiment call. It is never shared across calls.
type evaluation struct {
	ctx    *Context
	engine *Engine
	path   pathStack
}

// EvalFeature evaluates a single feature by id against ctx (spec
// §4.5.1).
func (e *Engine) EvalFeature(ctx *Context, id string) *FeatureResult {
	ev := &evaluation{ctx: ctx, engine: e}
	return ev.evalFeature(id)
}

// RunExperiment runs an experiment directly, outside of any feature's
// rule list (spec §4.5.2).
func (e *Engine) RunExperiment(ctx *Context, exp *Experiment) *ExperimentResult {
	ev := &evaluation{ctx: ctx, engine: e}
	return ev.runExperiment(exp, "")
}

func (ev *evaluation) evalFeature(id string) *FeatureResult {
	if ev.path.has(id) {
		return newFeatureResult(value.Null(), CyclicPrerequisiteSource, "", nil, nil)
	}
	if v, ok := ev.ctx.forcedFeatureValues[id]; ok {
		return newFeatureResult(v, ForceSource, "", nil, nil)
	}
	ev.path.push(id)
	defer ev.path.pop()

	features := ev.ctx.resolveFeatures()
	feature, ok := features[id]
	if !ok || feature == nil {
		return newFeatureResult(value.Null(), UnknownFeatureSource, "", nil, nil)
	}

	for i := range feature.Rules {
		rule := &feature.Rules[i]
		if res := ev.evalRule(id, rule); res != nil {
			return res
		}
	}

	return newFeatureResult(feature.DefaultValue, DefaultValueSource, "", nil, nil)
}

func (ev *evaluation) evalRule(featureID string, rule *FeatureRule) *FeatureResult {
	if len(rule.ParentConditions) > 0 {
		switch ev.evalPrerequisites(rule.ParentConditions) {
		case prereqCyclic:
			return newFeatureResult(value.Null(), CyclicPrerequisiteSource, "", nil, nil)
		case prereqGateFail:
			return newFeatureResult(value.Null(), PrerequisiteSource, "", nil, nil)
		case prereqSkip:
			return nil
		}
	}

	if ev.isFilteredOut(rule.Filters) {
		return nil
	}

	if !rule.Condition.Eval(ev.attributesValue()) {
		return nil
	}

	if rule.Force != nil {
		if !ev.isIncludedInRollout(featureID, rule) {
			return nil
		}
		return newFeatureResult(rule.Force, ForceSource, rule.ID, nil, nil)
	}

	if len(rule.Variations) == 0 {
		return nil
	}

	exp := experimentFromRule(featureID, rule)
	res := ev.runExperiment(exp, featureID)
	if !res.InExperiment || res.Passthrough {
		return nil
	}
	return newFeatureResult(res.Value, ExperimentSource, rule.ID, exp, res)
}

type prereqStatus int

const (
	prereqOK prereqStatus = iota
	prereqSkip
	prereqGateFail
	prereqCyclic
)

// evalPrerequisites implements §4.4: each prerequisite is evaluated in
// order; the first failure wins.
func (ev *evaluation) evalPrerequisites(prereqs []Prerequisite) prereqStatus {
	for _, p := range prereqs {
		res := ev.evalFeature(p.ID)
		if res.Source == CyclicPrerequisiteSource {
			return prereqCyclic
		}
		evalObj := value.Obj(map[string]any{"value": res.Value})
		if !p.Condition.Eval(evalObj) {
			if p.Gate {
				return prereqGateFail
			}
			return prereqSkip
		}
	}
	return prereqOK
}

func (ev *evaluation) runExperiment(exp *Experiment, featureID string) *ExperimentResult {
	// 1. need at least two variations.
	if len(exp.Variations) < 2 {
		return ev.fallbackResult(exp, featureID)
	}

	// 2. context must be enabled.
	if !ev.ctx.Enabled() {
		return ev.fallbackResult(exp, featureID)
	}

	// 3. query-string override.
	if v, ok := queryStringOverride(exp.Key, ev.ctx.URL(), len(exp.Variations)); ok {
		return ev.forcedResult(exp, featureID, v)
	}

	// 4. forced variation via context.
	if v, ok := ev.ctx.ForcedVariations()[exp.Key]; ok {
		return ev.forcedResult(exp, featureID, v)
	}

	// 5. experiment must be active.
	if !exp.Active {
		return ev.fallbackResult(exp, featureID)
	}

	// 6. resolve hash value.
	hashAttr, hashValue := ev.getHashAttribute(exp.HashAttribute, exp.FallbackAttribute)
	if hashValue == "" {
		return ev.fallbackResult(exp, featureID)
	}

	// 7. filters, else namespace.
	if len(exp.Filters) > 0 {
		if ev.isFilteredOut(exp.Filters) {
			return ev.fallbackResult(exp, featureID)
		}
	} else if exp.Namespace != nil && !exp.Namespace.inNamespace(hashValue) {
		return ev.fallbackResult(exp, featureID)
	}

	// 8. condition.
	if !exp.Condition.Eval(ev.attributesValue()) {
		return ev.fallbackResult(exp, featureID)
	}

	// 9. parent conditions.
	if len(exp.ParentConditions) > 0 {
		if ev.evalPrerequisites(exp.ParentConditions) != prereqOK {
			return ev.fallbackResult(exp, featureID)
		}
	}

	// 9b. sticky bucket: a prior assignment under the experiment's
	// current bucket version wins over a freshly computed one, unless
	// the assignment is blocked by min_bucket_version.
	stickyVariation := -1
	if !exp.DisableStickyBucketing && ev.ctx.stickyBucketService != nil {
		sb, err := GetStickyBucketVariation(
			exp.Key, exp.BucketVersion, exp.MinBucketVersion, exp.Meta,
			ev.ctx.stickyBucketService, hashAttr, exp.FallbackAttribute,
			ev.ctx.resolveAttributes(), ev.ctx.stickyBucketCache,
		)
		if err == nil && sb.VersionIsBlocked {
			return ev.fallbackResult(exp, featureID)
		}
		if err == nil && sb.Variation >= 0 {
			stickyVariation = sb.Variation
		}
	}

	// 10. bucket ranges.
	ranges := exp.Ranges
	if len(ranges) == 0 {
		ranges = bucketRanges(len(exp.Variations), exp.getCoverage(), exp.Weights)
	}

	var chosen int
	var bucket *float64
	if stickyVariation >= 0 && stickyVariation < len(exp.Variations) {
		chosen = stickyVariation
	} else {
		// 11. hash and choose variation.
		n := computeHash(exp.getSeed(), value.Str(hashValue), exp.getHashVersion())
		if n == nil {
			return ev.fallbackResult(exp, featureID)
		}
		chosen = chooseVariation(*n, ranges)
		bucket = n
	}

	// 12. apply result.
	if chosen < 0 {
		return ev.fallbackResult(exp, featureID)
	}
	if exp.Force != nil {
		return ev.forcedResult(exp, featureID, *exp.Force)
	}
	if ev.ctx.QAMode() {
		return ev.fallbackResult(exp, featureID)
	}

	if !exp.DisableStickyBucketing && ev.ctx.stickyBucketService != nil {
		_, attrValue := ev.getHashAttribute(exp.HashAttribute, "")
		_ = SaveStickyBucketAssignment(
			exp.Key, exp.BucketVersion, variationKey(exp, chosen),
			ev.ctx.stickyBucketService, hashAttr, attrValue, ev.ctx.stickyBucketCache,
		)
	}

	res := ev.fullResult(exp, featureID, chosen, bucket)
	if bucket == nil {
		res.HashUsed = false
		res.StickyBucketUsed = true
	}
	return res
}

// fallbackResult builds an ExperimentResult for any gating failure
// (spec §4.5.2): in_experiment=false, variation_id=0, hash_used=false.
func (ev *evaluation) fallbackResult(exp *Experiment, featureID string) *ExperimentResult {
	hashAttr, hashValue := ev.getHashAttribute(exp.HashAttribute, "")
	return &ExperimentResult{
		InExperiment:  false,
		VariationId:   0,
		Value:         firstVariation(exp),
		HashUsed:      false,
		HashAttribute: hashAttr,
		HashValue:     hashValue,
		FeatureId:     featureID,
		Key:           variationKey(exp, 0),
	}
}

// forcedResult builds the "query-string override / context forced
// variation / rule.force" result shape: in_experiment=true,
// hash_used=false (spec §4.5.2, §9).
func (ev *evaluation) forcedResult(exp *Experiment, featureID string, variation int) *ExperimentResult {
	if variation < 0 || variation >= len(exp.Variations) {
		return ev.fallbackResult(exp, featureID)
	}
	hashAttr, hashValue := ev.getHashAttribute(exp.HashAttribute, "")
	res := &ExperimentResult{
		InExperiment:  true,
		VariationId:   variation,
		Value:         exp.Variations[variation],
		HashUsed:      false,
		HashAttribute: hashAttr,
		HashValue:     hashValue,
		FeatureId:     featureID,
		Key:           variationKey(exp, variation),
	}
	applyMeta(res, exp, variation)
	return res
}

// fullResult builds the hash-assigned result shape: hash_used=true.
func (ev *evaluation) fullResult(exp *Experiment, featureID string, variation int, bucket *float64) *ExperimentResult {
	hashAttr, hashValue := ev.getHashAttribute(exp.HashAttribute, "")
	res := &ExperimentResult{
		InExperiment:  true,
		VariationId:   variation,
		Value:         exp.Variations[variation],
		HashUsed:      true,
		HashAttribute: hashAttr,
		HashValue:     hashValue,
		FeatureId:     featureID,
		Key:           variationKey(exp, variation),
		Bucket:        bucket,
	}
	applyMeta(res, exp, variation)
	return res
}

func applyMeta(res *ExperimentResult, exp *Experiment, variation int) {
	if variation < 0 || variation >= len(exp.Meta) {
		return
	}
	m := exp.Meta[variation]
	if m.Key != "" {
		res.Key = m.Key
	}
	res.Name = m.Name
	res.Passthrough = m.Passthrough
}

func variationKey(exp *Experiment, variation int) string {
	if variation >= 0 && variation < len(exp.Meta) && exp.Meta[variation].Key != "" {
		return exp.Meta[variation].Key
	}
	return strconv.Itoa(variation)
}

func firstVariation(exp *Experiment) value.Value {
	if len(exp.Variations) == 0 {
		return value.Null()
	}
	return exp.Variations[0]
}

func (ev *evaluation) isIncludedInRollout(featureID string, rule *FeatureRule) bool {
	if rule.Range == nil && rule.Coverage == nil {
		return true
	}

	_, hashValue := ev.getHashAttribute(rule.HashAttribute, "")
	if hashValue == "" {
		return false
	}

	seed := rule.Seed
	if seed == "" {
		seed = featureID
	}
	hashVersion := rule.HashVersion
	if hashVersion == 0 {
		hashVersion = 1
	}
	n := computeHash(seed, value.Str(hashValue), hashVersion)
	if n == nil {
		return false
	}

	if rule.Range != nil {
		return rule.Range.InRange(*n)
	}
	return *n <= *rule.Coverage
}

func (ev *evaluation) isFilteredOut(filters []Filter) bool {
	for _, f := range filters {
		_, hashValue := ev.getHashAttribute(f.Attribute, "")
		if f.excludes(hashValue) {
			return true
		}
	}
	return false
}

// getHashAttribute resolves the attribute used for bucketing (spec
// §4.5.2 step 6): key defaults to "id"; an empty/missing/nullish
// value falls back to the fallback attribute.
func (ev *evaluation) getHashAttribute(key, fallback string) (string, string) {
	if key == "" {
		key = "id"
	}
	attrs := ev.ctx.resolveAttributes()
	if v, ok := attrs[key]; ok && !value.IsNullish(v) && v.String() != "" {
		return key, v.String()
	}
	if fallback != "" {
		if v, ok := attrs[fallback]; ok && !value.IsNullish(v) && v.String() != "" {
			return fallback, v.String()
		}
	}
	return key, ""
}

func (ev *evaluation) attributesValue() value.Value {
	attrs := ev.ctx.resolveAttributes()
	m := make(map[string]any, len(attrs))
	for k, v := range attrs {
		m[k] = v
	}
	return value.New(m)
}

// queryStringOverride implements §4.2's query_string_override: a
// ?expKey=i query parameter forces variation i when it parses as an
// integer in range.
func queryStringOverride(expKey, rawURL string, numVariations int) (int, bool) {
	if rawURL == "" {
		return 0, false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, false
	}
	raw := u.Query().Get(expKey)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n >= numVariations {
		return 0, false
	}
	return n, true
}
