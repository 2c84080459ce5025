package domain

// Classification is the outcome of scoring a candidate pair
type Classification string

const (
	ClassMatch     Classification = "MATCH"
	ClassAmbiguous Classification = "AMBIGUOUS"
	ClassNoMatch   Classification = "NO_MATCH"
)

// MatchCandidate is a scored pairing of two normalized records from
// different sites. RecordA and RecordB are references, not copies owned by
// the candidate; Reasons lists the contributing signals in evaluation order
// so a reviewer can see how the score was built.
type MatchCandidate struct {
	RecordA        *NormalizedRecord `json:"recordA"`
	RecordB        *NormalizedRecord `json:"recordB"`
	Score          float64           `json:"score"` // in [0,1]
	Classification Classification    `json:"classification"`
	Reasons        []string          `json:"reasons,omitempty"`
}
