package flagkit

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/flagkit/flagkit/internal/value"
)

// Sticky bucketing pins a user to the same experiment variation across
// bucket-range changes, as long as the experiment's bucket version
// hasn't advanced past what they were last assigned under (spec's
// supplemented sticky-bucket plumbing: the fields survive in the data
// model per spec §3, but no persistence backend ships — callers
// provide their own StickyBucketService, typically backed by the same
// store as the feature Cache).

// StickyBucketAssignmentDoc is the per-attribute assignment record a
// StickyBucketService persists: every experiment/bucket-version the
// attribute value has ever been assigned a variation for.
type StickyBucketAssignmentDoc struct {
	AttributeName  string            `json:"attributeName"`
	AttributeValue string            `json:"attributeValue"`
	Assignments    map[string]string `json:"assignments"`
}

// StickyBucketAssignments indexes assignment docs by
// attributeName||attributeValue, used both as a Context-scoped
// read-through cache and as the return shape of a bulk prefetch.
type StickyBucketAssignments map[string]*StickyBucketAssignmentDoc

// StickyBucketService is the pluggable persistence boundary for sticky
// bucket assignments. Implementations are free to back onto anything —
// the in-memory one below exists only as the zero-dependency default.
type StickyBucketService interface {
	GetAssignments(attributeName, attributeValue string) (*StickyBucketAssignmentDoc, error)
	SaveAssignments(doc *StickyBucketAssignmentDoc) error
	GetAllAssignments(attributes Attributes) (StickyBucketAssignments, error)
}

// StickyBucketResult is the outcome of a sticky bucket lookup: a
// negative Variation means "no existing assignment, compute one."
type StickyBucketResult struct {
	Variation        int
	VersionIsBlocked bool
}

// InMemoryStickyBucketService is the default StickyBucketService: no
// persistence, scoped to the process. A real deployment typically
// layers this behind the same store backing the feature Cache (e.g.
// RedisCache's client).
type InMemoryStickyBucketService struct {
	mu   sync.RWMutex
	docs map[string]*StickyBucketAssignmentDoc
}

// NewInMemoryStickyBucketService returns an empty in-memory service.
func NewInMemoryStickyBucketService() *InMemoryStickyBucketService {
	return &InMemoryStickyBucketService{docs: make(map[string]*StickyBucketAssignmentDoc)}
}

func (s *InMemoryStickyBucketService) GetAssignments(attributeName, attributeValue string) (*StickyBucketAssignmentDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[stickyBucketKey(attributeName, attributeValue)], nil
}

func (s *InMemoryStickyBucketService) SaveAssignments(doc *StickyBucketAssignmentDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[stickyBucketKey(doc.AttributeName, doc.AttributeValue)] = doc
	return nil
}

// GetAllAssignments prefetches a doc per populated attribute, letting a
// caller warm a StickyBucketAssignments cache before running a batch of
// evaluations instead of round-tripping the service per experiment.
func (s *InMemoryStickyBucketService) GetAllAssignments(attributes Attributes) (StickyBucketAssignments, error) {
	out := make(StickyBucketAssignments)
	for name, v := range attributes {
		val, ok := stringAttribute(v)
		if !ok {
			continue
		}
		doc, err := s.GetAssignments(name, val)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			out[stickyBucketKey(name, val)] = doc
		}
	}
	return out, nil
}

// Destroy clears every stored assignment.
func (s *InMemoryStickyBucketService) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*StickyBucketAssignmentDoc)
}

func stickyBucketKey(attributeName, attributeValue string) string {
	return attributeName + "||" + attributeValue
}

func experimentVersionKey(experimentKey string, bucketVersion int) string {
	return fmt.Sprintf("%s__%d", experimentKey, bucketVersion)
}

// blockedByMinVersion reports whether attributes were ever assigned a
// variation under any bucket version older than minBucketVersion — if
// so, the experiment was reworked and this assignment must not carry
// forward (spec's min_bucket_version field).
func blockedByMinVersion(assignments map[string]string, experimentKey string, minBucketVersion int) bool {
	for v := 0; v < minBucketVersion; v++ {
		if _, ok := assignments[experimentVersionKey(experimentKey, v)]; ok {
			return true
		}
	}
	return false
}

// stringAttribute converts an attribute value to the string a sticky
// bucket key is built from; nullish or empty values don't participate.
func stringAttribute(v value.Value) (string, bool) {
	if v == nil || value.IsNullish(v) {
		return "", false
	}
	s := v.String()
	return s, s != ""
}

// stickyCandidate is one attribute worth resolving against a
// StickyBucketService: primary (the hash attribute) always wins a
// merge conflict; the fallback only fills gaps.
type stickyCandidate struct {
	name    string
	value   string
	primary bool
}

func stickyCandidates(hashAttribute, fallbackAttribute string, attributes Attributes) []stickyCandidate {
	var candidates []stickyCandidate
	if v, ok := stringAttribute(attributes[hashAttribute]); ok {
		candidates = append(candidates, stickyCandidate{hashAttribute, v, true})
	}
	if fallbackAttribute != "" && fallbackAttribute != hashAttribute {
		if v, ok := stringAttribute(attributes[fallbackAttribute]); ok {
			candidates = append(candidates, stickyCandidate{fallbackAttribute, v, false})
		}
	}
	return candidates
}

// resolveStickyAssignments merges every candidate's assignment doc into
// one experimentVersionKey->variationKey map, consulting cache before
// the service and populating cache with whatever the service returns.
func resolveStickyAssignments(service StickyBucketService, cache StickyBucketAssignments, candidates []stickyCandidate) (map[string]string, error) {
	merged := make(map[string]string)
	if service == nil {
		return merged, nil
	}

	for _, c := range candidates {
		doc, err := stickyAssignmentDoc(service, cache, c.name, c.value)
		if err != nil {
			return merged, err
		}
		if doc == nil {
			continue
		}
		for k, v := range doc.Assignments {
			if _, exists := merged[k]; c.primary || !exists {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

func stickyAssignmentDoc(service StickyBucketService, cache StickyBucketAssignments, name, val string) (*StickyBucketAssignmentDoc, error) {
	key := stickyBucketKey(name, val)
	if cache != nil {
		if doc, ok := cache[key]; ok {
			return doc, nil
		}
	}
	doc, err := service.GetAssignments(name, val)
	if err != nil {
		return nil, &StickyBucketError{Op: "get assignments", Err: err}
	}
	if doc != nil && cache != nil {
		cache[key] = doc
	}
	return doc, nil
}

// GetStickyBucketVariation looks up an existing sticky assignment for
// an experiment, consulting the hash attribute first and the fallback
// attribute only where the hash attribute has no assignment.
func GetStickyBucketVariation(
	experimentKey string,
	bucketVersion int,
	minBucketVersion int,
	meta []VariationMeta,
	service StickyBucketService,
	hashAttribute string,
	fallbackAttribute string,
	attributes Attributes,
	cache StickyBucketAssignments,
) (*StickyBucketResult, error) {
	result := &StickyBucketResult{Variation: -1}

	if bucketVersion < 0 {
		bucketVersion = 0
	}
	if minBucketVersion < 0 {
		minBucketVersion = 0
	}

	assignments, err := resolveStickyAssignments(service, cache, stickyCandidates(hashAttribute, fallbackAttribute, attributes))
	if err != nil {
		return result, err
	}

	if blockedByMinVersion(assignments, experimentKey, minBucketVersion) {
		result.VersionIsBlocked = true
		return result, nil
	}

	variationKey, ok := assignments[experimentVersionKey(experimentKey, bucketVersion)]
	if !ok {
		return result, nil
	}
	for i, m := range meta {
		if m.Key == variationKey {
			result.Variation = i
			break
		}
	}
	return result, nil
}

// SaveStickyBucketAssignment persists a fresh variation assignment,
// merging it into whatever the service already has on file and writing
// back only when the merge actually changed something.
func SaveStickyBucketAssignment(
	experimentKey string,
	bucketVersion int,
	variationKey string,
	service StickyBucketService,
	attributeName string,
	attributeValue string,
	cache StickyBucketAssignments,
) error {
	if service == nil || attributeName == "" || attributeValue == "" {
		return nil
	}

	update := map[string]string{experimentVersionKey(experimentKey, bucketVersion): variationKey}
	doc, changed, err := mergeStickyBucketDoc(service, attributeName, attributeValue, update)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if cache != nil {
		cache[stickyBucketKey(attributeName, attributeValue)] = doc
	}
	if err := service.SaveAssignments(doc); err != nil {
		return &StickyBucketError{Op: "save assignments", Err: err}
	}
	return nil
}

// mergeStickyBucketDoc loads the existing doc for (attributeName,
// attributeValue), layers updates on top, and reports whether the
// write is actually necessary.
func mergeStickyBucketDoc(service StickyBucketService, attributeName, attributeValue string, updates map[string]string) (*StickyBucketAssignmentDoc, bool, error) {
	doc, err := service.GetAssignments(attributeName, attributeValue)
	if err != nil {
		return nil, false, &StickyBucketError{Op: "get assignments", Err: err}
	}

	changed := false
	if doc == nil {
		doc = &StickyBucketAssignmentDoc{
			AttributeName:  attributeName,
			AttributeValue: attributeValue,
			Assignments:    map[string]string{},
		}
		changed = true
	}

	merged := maps.Clone(doc.Assignments)
	for k, v := range updates {
		if cur, ok := merged[k]; !ok || cur != v {
			merged[k] = v
			changed = true
		}
	}
	doc.Assignments = merged
	return doc, changed, nil
}
