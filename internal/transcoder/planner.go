package transcoder

import "github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"

// PlanVariants computes the renditions for a source of the given height.
// Ladder entries above the source height are skipped so the ladder never
// upscales; the synthetic source variant is always appended last.
func PlanVariants(sourceHeight int) []models.VariantSpec {
	variants := make([]models.VariantSpec, 0, len(models.VariantLadder)+1)

	for _, height := range models.VariantLadder {
		if sourceHeight < height {
			continue
		}
		variants = append(variants, models.LadderVariant(height))
	}

	return append(variants, models.SourceVariant(sourceHeight))
}
