package client

import "context"

// DefaultPrompt accompanies the image when the caller supplies no
// instruction. Consumers may override it in full, but some instruction
// is always sent.
const DefaultPrompt = `You are a volleyball coach reviewing a marked-up court heatmap.
Green "O" markers are successful actions, red "X" markers are failures.
Describe the spatial patterns you see, point out strong and weak zones,
and give three concrete coaching recommendations.`

// AnalysisClient sends an encoded image with an instruction to a
// vision model and returns its free-text analysis.
type AnalysisClient interface {
	Analyze(ctx context.Context, mimeType, imageB64, instruction string) (string, error)
}
