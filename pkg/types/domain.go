package types

import "bytes"

// ModelDescriptor describes one candidate model discovered on the remote
// registry, or a minimal view of a locally downloaded artifact.
// Descriptors are immutable once produced by the search engine.
type ModelDescriptor struct {
	// Stable registry identifier in "org/name" form.
	// example: mlx-community/Qwen2.5-0.5B-Instruct-4bit
	ID string `json:"id" example:"mlx-community/Qwen2.5-0.5B-Instruct-4bit"`
	// Tags attached by the registry (library, license, task, ...).
	Tags []string `json:"tags,omitempty"`
	// Pipeline tag (task), e.g. text-generation. Empty when unknown.
	PipelineTag string `json:"pipeline_tag,omitempty" example:"text-generation"`
	// Lifetime download count reported by the registry.
	Downloads int `json:"downloads" example:"10432"`
	// Like count reported by the registry.
	Likes int `json:"likes" example:"87"`
	// Registry trending signal; 0 when the registry omits it.
	TrendingScore float64 `json:"trending_score,omitempty"`
	// Estimated total artifact size in bytes; 0 when unknown.
	EstimatedSizeBytes int64 `json:"estimated_size_bytes,omitempty"`
	// Parameter count token extracted from the id/tags (e.g. "0.5b").
	// Empty when no known token matched.
	Parameters string `json:"parameters,omitempty" example:"0.5b"`
	// Quantization token extracted from the id/tags (e.g. "4bit").
	Quantization string `json:"quantization,omitempty" example:"4bit"`
	// Architecture family extracted from the id/tags (e.g. "qwen").
	Architecture string `json:"architecture,omitempty" example:"qwen"`
}

// ModelType constrains search results to a broad task category.
type ModelType string

const (
	ModelTypeChat      ModelType = "chat"
	ModelTypeCode      ModelType = "code"
	ModelTypeEmbedding ModelType = "embedding"
	ModelTypeVision    ModelType = "vision"
)

// SearchHint returns the token matched against pipeline tags, ids and tags
// when this type is requested.
func (t ModelType) SearchHint() string {
	switch t {
	case ModelTypeChat:
		return "instruct"
	case ModelTypeCode:
		return "code"
	case ModelTypeEmbedding:
		return "embedding"
	case ModelTypeVision:
		return "vision"
	}
	return string(t)
}

// AltTags returns alternate registry tags that also satisfy the type.
func (t ModelType) AltTags() []string {
	switch t {
	case ModelTypeChat:
		return []string{"conversational", "chat", "text-generation"}
	case ModelTypeCode:
		return []string{"code-generation", "coding"}
	case ModelTypeEmbedding:
		return []string{"sentence-similarity", "feature-extraction"}
	case ModelTypeVision:
		return []string{"image-text-to-text", "multimodal"}
	}
	return nil
}

// SizeClass buckets models by parameter count. Each class carries a search
// term used when building query strategies and a rough on-disk ceiling.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"  // <= ~1B params
	SizeMedium SizeClass = "medium" // ~3B params
	SizeLarge  SizeClass = "large"  // ~7B+ params
)

// SearchTerm returns the registry query token for the size class.
func (s SizeClass) SearchTerm() string {
	switch s {
	case SizeSmall:
		return "0.5b"
	case SizeMedium:
		return "3b"
	case SizeLarge:
		return "7b"
	}
	return ""
}

// MaxSizeMB returns the rough artifact ceiling for the size class in MB,
// or 0 when the class is unknown.
func (s SizeClass) MaxSizeMB() int64 {
	switch s {
	case SizeSmall:
		return 1500
	case SizeMedium:
		return 4000
	case SizeLarge:
		return 10000
	}
	return 0
}

// Quantization constrains search results to a weight precision.
type Quantization string

const (
	Quant4Bit Quantization = "4bit"
	Quant8Bit Quantization = "8bit"
	QuantFP16 Quantization = "fp16"
)

// SearchCriteria narrows a model search. Every field is optional; the zero
// value means "no constraint".
type SearchCriteria struct {
	Type          ModelType    `json:"type,omitempty"`
	Size          SizeClass    `json:"size,omitempty"`
	Quant         Quantization `json:"quant,omitempty"`
	MaxFileSizeMB int64        `json:"max_file_size_mb,omitempty"`
	Architecture  string       `json:"architecture,omitempty"`
	ExcludeArchs  []string     `json:"exclude_archs,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	MinDownloads  int          `json:"min_downloads,omitempty"`
	MinLikes      int          `json:"min_likes,omitempty"`
}

// RawModel is one registry search record before filtering/conversion.
type RawModel struct {
	ID            string         `json:"id"`
	Tags          []string       `json:"tags,omitempty"`
	PipelineTag   string         `json:"pipeline_tag,omitempty"`
	LibraryName   string         `json:"library_name,omitempty"`
	Downloads     int            `json:"downloads,omitempty"`
	Likes         int            `json:"likes,omitempty"`
	TrendingScore float64        `json:"trendingScore,omitempty"`
	Private       bool           `json:"private,omitempty"`
	Gated         GatedFlag      `json:"gated,omitempty"`
	UsedStorage   int64          `json:"usedStorage,omitempty"`
	CardData      map[string]any `json:"cardData,omitempty"`
	Siblings      []Sibling      `json:"siblings,omitempty"`
}

// Accessible reports whether the record can be fetched without special
// access (not private, not gated).
func (r *RawModel) Accessible() bool {
	return !r.Private && !bool(r.Gated)
}

// GatedFlag tolerates the registry encoding "gated" as either a boolean or
// a mode string ("auto", "manual"). Any non-false value counts as gated.
type GatedFlag bool

func (g *GatedFlag) UnmarshalJSON(b []byte) error {
	switch {
	case bytes.Equal(b, []byte("false")), bytes.Equal(b, []byte("null")):
		*g = false
	default:
		*g = true
	}
	return nil
}

// Sibling is a file entry inside a registry repository.
type Sibling struct {
	RFilename string   `json:"rfilename"`
	Size      int64    `json:"size,omitempty"`
	LFS       *LFSInfo `json:"lfs,omitempty"`
}

// LFSInfo carries the large-file pointer the registry stores for big
// artifacts. Oid is "sha256:<hex>".
type LFSInfo struct {
	Oid  string `json:"oid,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Checksum returns the hex SHA-256 for the file when the registry reports
// one, or "".
func (s Sibling) Checksum() string {
	if s.LFS == nil {
		return ""
	}
	const prefix = "sha256:"
	if len(s.LFS.Oid) > len(prefix) && s.LFS.Oid[:len(prefix)] == prefix {
		return s.LFS.Oid[len(prefix):]
	}
	return ""
}

// SizeBytes prefers the LFS size over the inline size field.
func (s Sibling) SizeBytes() int64 {
	if s.LFS != nil && s.LFS.Size > 0 {
		return s.LFS.Size
	}
	return s.Size
}

// FileManifestEntry names one file of a model artifact along with its
// expected size and checksum when the registry reports them.
type FileManifestEntry struct {
	// Name is the path of the file relative to the model directory.
	Name string `json:"name"`
	// ExpectedSizeBytes is 0 when the registry did not report a size.
	ExpectedSizeBytes int64 `json:"expected_size_bytes,omitempty"`
	// ExpectedChecksum is a lowercase hex SHA-256, empty when unknown.
	ExpectedChecksum string `json:"expected_checksum,omitempty"`
}

// FileStatus is the lifecycle of one file inside a download.
type FileStatus string

const (
	FilePending    FileStatus = "pending"
	FileInProgress FileStatus = "in_progress"
	FileVerified   FileStatus = "verified"
	FileFailed     FileStatus = "failed"
)

// DownloadState tracks one file transfer. It is owned exclusively by the
// download coordinator while the transfer is in flight.
type DownloadState struct {
	Name          string     `json:"name"`
	ReceivedBytes int64      `json:"received_bytes"`
	TotalBytes    int64      `json:"total_bytes"`
	Status        FileStatus `json:"status"`
}
