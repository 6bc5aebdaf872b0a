package transcoder

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

func variantNames(variants []models.VariantSpec) []string {
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Name
	}
	return names
}

func TestPlanVariants(t *testing.T) {
	tests := []struct {
		height int
		want   []string
	}{
		{2160, []string{"1080p", "720p", "480p", "240p", "144p", "source"}},
		{1080, []string{"1080p", "720p", "480p", "240p", "144p", "source"}},
		{1079, []string{"720p", "480p", "240p", "144p", "source"}},
		{720, []string{"720p", "480p", "240p", "144p", "source"}},
		{360, []string{"240p", "144p", "source"}},
		{144, []string{"144p", "source"}},
		{100, []string{"source"}},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.height), func(t *testing.T) {
			assert.Equal(t, tt.want, variantNames(PlanVariants(tt.height)))
		})
	}
}

func TestPlanVariants_Bitrates(t *testing.T) {
	variants := PlanVariants(1080)

	want := []models.VariantSpec{
		{Name: "1080p", TargetHeight: 1080, VideoBitrateKbps: 5000, AudioBitrateKbps: 128},
		{Name: "720p", TargetHeight: 720, VideoBitrateKbps: 3000, AudioBitrateKbps: 128},
		{Name: "480p", TargetHeight: 480, VideoBitrateKbps: 1500, AudioBitrateKbps: 96},
		{Name: "240p", TargetHeight: 240, VideoBitrateKbps: 800, AudioBitrateKbps: 64},
		{Name: "144p", TargetHeight: 144, VideoBitrateKbps: 400, AudioBitrateKbps: 64},
		{Name: "source", TargetHeight: 1080, VideoBitrateKbps: 8000, AudioBitrateKbps: 192},
	}
	assert.Equal(t, want, variants)
}

func TestPlanVariants_NeverUpscales(t *testing.T) {
	for h := 1; h <= 2200; h += 37 {
		variants := PlanVariants(h)
		last := variants[len(variants)-1]
		assert.Equal(t, models.SourceVariantName, last.Name)
		assert.Equal(t, h, last.TargetHeight)

		seen := map[string]bool{}
		for _, v := range variants[:len(variants)-1] {
			assert.LessOrEqual(t, v.TargetHeight, h)
			assert.False(t, seen[v.Name], "duplicate variant %s", v.Name)
			seen[v.Name] = true
		}
	}
}
