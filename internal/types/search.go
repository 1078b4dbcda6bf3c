package types

// SearchFilters is the metadata filter set accepted by SearchHybrid and, in
// defense-in-depth, re-applied by the Retriever (spec §4.3, §4.4 step 2).
type SearchFilters struct {
	SpaceKey       string  `json:"space_key,omitempty"`
	DocType        string  `json:"doc_type,omitempty"`
	MinQualityScore float64 `json:"min_quality_score,omitempty"`
}

// Match reports whether a chunk satisfies every filter that was set.
func (f SearchFilters) Match(c *ChunkData) bool {
	if f.SpaceKey != "" && c.SpaceKey != f.SpaceKey {
		return false
	}
	if f.DocType != "" && c.DocType != f.DocType {
		return false
	}
	if f.MinQualityScore > 0 && c.QualityScore < f.MinQualityScore {
		return false
	}
	return true
}

// RawResult is a single hit returned by the GraphStore's SearchHybrid, before
// the Retriever applies quality boosting, filtering and graph expansion.
type RawResult struct {
	ChunkID  string
	Content  string
	Score    float64
	Metadata *ChunkData
}

// SearchResult is the Retriever's public output: post-boost score plus
// convenience accessors over the full metadata map (spec §4.4).
type SearchResult struct {
	ChunkID  string
	Content  string
	Score    float64
	Metadata *ChunkData
}

func (r *SearchResult) PageTitle() string     { return r.Metadata.PageTitle }
func (r *SearchResult) URL() string           { return r.Metadata.URL }
func (r *SearchResult) SpaceKey() string      { return r.Metadata.SpaceKey }
func (r *SearchResult) DocType() string       { return r.Metadata.DocType }
func (r *SearchResult) QualityScore() float64 { return r.Metadata.QualityScore }
func (r *SearchResult) Owner() string         { return r.Metadata.Owner }
