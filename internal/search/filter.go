package search

import (
	"fmt"
	"strings"

	"modelhub/pkg/types"
)

// Compatibility signal tokens for the target runtime.
const (
	compatTag       = "mlx"
	compatPublisher = "mlx-community"
)

// robustKeep applies the strict candidate filter: accessibility, a
// compatibility signal, and every requested criterion.
func robustKeep(raw *types.RawModel, c types.SearchCriteria) bool {
	if !raw.Accessible() {
		return false
	}
	if !hasCompatSignal(raw) {
		return false
	}
	if c.Type != "" && !matchesType(raw, c.Type) {
		return false
	}
	if c.Architecture != "" && !matchesArch(raw, c.Architecture) {
		return false
	}
	for _, ex := range c.ExcludeArchs {
		if matchesArch(raw, ex) {
			return false
		}
	}
	if capMB := sizeCapMB(c); capMB > 0 {
		if est := estimateSize(*raw); est > 0 && est > capMB*1024*1024 {
			return false
		}
	}
	for _, want := range c.Tags {
		if !hasTagFold(raw.Tags, want) {
			return false
		}
	}
	if c.MinDownloads > 0 && raw.Downloads < c.MinDownloads {
		return false
	}
	if c.MinLikes > 0 && raw.Likes < c.MinLikes {
		return false
	}
	return true
}

// sizeCapMB resolves the effective size ceiling: an explicit MaxFileSizeMB
// wins, otherwise the requested size class implies one.
func sizeCapMB(c types.SearchCriteria) int64 {
	if c.MaxFileSizeMB > 0 {
		return c.MaxFileSizeMB
	}
	if c.Size != "" {
		return c.Size.MaxSizeMB()
	}
	return 0
}

// lenientKeep is the fallback-pass filter: accessible plus any direct
// compatibility marker.
func lenientKeep(raw *types.RawModel) bool {
	if !raw.Accessible() {
		return false
	}
	if hasTagExact(raw.Tags, compatTag) {
		return true
	}
	if strings.EqualFold(raw.LibraryName, compatTag) {
		return true
	}
	return containsFold(raw.ID, compatTag)
}

// hasCompatSignal reports whether the record looks usable by the target
// runtime: compatibility tag, marker in the id, or a known publisher.
func hasCompatSignal(raw *types.RawModel) bool {
	if hasTagExact(raw.Tags, compatTag) {
		return true
	}
	if containsFold(raw.ID, compatTag) {
		return true
	}
	return strings.HasPrefix(strings.ToLower(raw.ID), compatPublisher+"/")
}

func matchesType(raw *types.RawModel, t types.ModelType) bool {
	hint := t.SearchHint()
	if containsFold(raw.PipelineTag, hint) || containsFold(raw.ID, hint) {
		return true
	}
	for _, alt := range t.AltTags() {
		if hasTagFold(raw.Tags, alt) || strings.EqualFold(raw.PipelineTag, alt) {
			return true
		}
	}
	return hasTagFold(raw.Tags, hint)
}

// matchesArch checks the extracted architecture, id, tags and card metadata
// with a case-insensitive substring rule.
func matchesArch(raw *types.RawModel, arch string) bool {
	hay := extractionHaystack(*raw)
	if extracted := firstToken(hay, archTokens); extracted != "" && containsFold(extracted, arch) {
		return true
	}
	if containsFold(raw.ID, arch) {
		return true
	}
	for _, t := range raw.Tags {
		if containsFold(t, arch) {
			return true
		}
	}
	for _, v := range raw.CardData {
		if containsFold(fmt.Sprint(v), arch) {
			return true
		}
	}
	return false
}

func hasTagExact(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func hasTagFold(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) || containsFold(t, want) {
			return true
		}
	}
	return false
}
