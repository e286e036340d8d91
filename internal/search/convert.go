package search

import (
	"strings"

	"modelhub/pkg/types"
)

// Token vocabularies for best-effort field extraction. Longer size tokens
// come first so "13b" is not shadowed by "3b".
var (
	sizeTokens  = []string{"0.5b", "1.5b", "13b", "1b", "2b", "3b", "4b", "7b", "8b"}
	quantTokens = []string{"4bit", "8bit", "fp16"}
	archTokens  = []string{"qwen", "llama", "mistral", "phi", "gemma"}
)

// Convert maps a raw registry record to an immutable descriptor. Extraction
// of parameters/quantization/architecture is best effort: fields stay empty
// when no vocabulary token matches.
func Convert(raw types.RawModel) types.ModelDescriptor {
	d := types.ModelDescriptor{
		ID:            raw.ID,
		Tags:          append([]string(nil), raw.Tags...),
		PipelineTag:   raw.PipelineTag,
		Downloads:     raw.Downloads,
		Likes:         raw.Likes,
		TrendingScore: raw.TrendingScore,
	}
	d.EstimatedSizeBytes = estimateSize(raw)
	hay := extractionHaystack(raw)
	d.Parameters = firstToken(hay, sizeTokens)
	d.Quantization = firstToken(hay, quantTokens)
	d.Architecture = firstToken(hay, archTokens)
	return d
}

// estimateSize prefers the registry storage figure, falling back to the sum
// of reported sibling sizes.
func estimateSize(raw types.RawModel) int64 {
	if raw.UsedStorage > 0 {
		return raw.UsedStorage
	}
	var sum int64
	for _, s := range raw.Siblings {
		sum += s.SizeBytes()
	}
	return sum
}

func extractionHaystack(raw types.RawModel) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(raw.ID))
	for _, t := range raw.Tags {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(t))
	}
	return b.String()
}

func firstToken(hay string, vocab []string) string {
	for _, tok := range vocab {
		if strings.Contains(hay, tok) {
			return tok
		}
	}
	return ""
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
