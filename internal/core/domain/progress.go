package domain

// Stage names a step of the ingestion pipeline.
type Stage string

// Pipeline stages, in the order they are reported.
const (
	StageExtract Stage = "extract"
	StageChunk   Stage = "chunk"
	StageHash    Stage = "hash"
	StageCache   Stage = "cache"
	StageEmbed   Stage = "embed"
	StageStore   Stage = "store"
	StageDone    Stage = "done"
)

// ProgressEvent reports pipeline progress.
// Fraction is the overall completion in [0, 1].
type ProgressEvent struct {
	Stage    Stage
	Fraction float64
	Message  string
}
