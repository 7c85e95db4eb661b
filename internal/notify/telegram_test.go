package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"watchlog/internal/service"
	"watchlog/internal/timeutil"
)

func TestFormatDigestEmpty(t *testing.T) {
	timeutil.SetNowFunc(func() time.Time {
		return time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	})
	t.Cleanup(func() { timeutil.SetNowFunc(nil) })

	digest := FormatDigest(nil)
	assert.Contains(t, digest, "2024-06-10")
	assert.Contains(t, digest, "Nothing airing")
}

func TestFormatDigest(t *testing.T) {
	groups := []service.ReminderGroup{
		{
			Date: "2024-06-11",
			Items: []service.EpisodeReminder{
				{Name: "Severance", SeasonNumber: 2, EpisodeNumber: 5, EpisodeName: "Trojan's Horse"},
				{Name: "Dark", SeasonNumber: 3, EpisodeNumber: 1},
			},
		},
		{
			Date: "2024-06-13",
			Items: []service.EpisodeReminder{
				{Name: "Andor", SeasonNumber: 1, EpisodeNumber: 12, EpisodeName: "Rix Road"},
			},
		},
	}

	digest := FormatDigest(groups)

	assert.Contains(t, digest, "<b>2024-06-11</b>")
	assert.Contains(t, digest, "• Severance S02E05: Trojan's Horse")
	assert.Contains(t, digest, "• Dark S03E01\n")
	assert.Contains(t, digest, "<b>2024-06-13</b>")
	assert.Contains(t, digest, "• Andor S01E12: Rix Road")
}
