package v1

// Mode reports which generation path produced an answer.
type Mode string

const (
	ModeRAG      Mode = "RAG"
	ModeFallback Mode = "FALLBACK"
)

// Answer is one answered query. Sources is empty when Mode is FALLBACK and
// otherwise lists only sources that were part of the grounding context.
type Answer struct {
	Answer  string   `json:"answer"`
	Mode    Mode     `json:"mode"`
	Sources []string `json:"sources,omitempty"`
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Documents int `json:"documents"`
	Passages  int `json:"passages"`
}
