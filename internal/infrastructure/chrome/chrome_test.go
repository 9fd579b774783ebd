package chrome

import (
	"testing"

	"github.com/chromedp/cdproto/target"
	"github.com/stretchr/testify/assert"
)

// All workers share one Chrome process, so the target list mixes this
// tab's popups with every other worker's tab. Only the former may be
// closed.
func TestSpawnedBy(t *testing.T) {
	self := target.ID("3F2504E0")
	sibling := target.ID("7C9E6679")

	tests := []struct {
		name string
		info *target.Info
		want bool
	}{
		{
			name: "popup this tab opened",
			info: &target.Info{TargetID: "A1B2C3D4", Type: "page", OpenerID: self},
			want: true,
		},
		{
			name: "the tab itself",
			info: &target.Info{TargetID: self, Type: "page"},
			want: false,
		},
		{
			name: "sibling worker tab",
			info: &target.Info{TargetID: sibling, Type: "page"},
			want: false,
		},
		{
			name: "popup a sibling opened",
			info: &target.Info{TargetID: "E5F6A7B8", Type: "page", OpenerID: sibling},
			want: false,
		},
		{
			name: "non-page target",
			info: &target.Info{TargetID: "C9D0E1F2", Type: "service_worker", OpenerID: self},
			want: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, spawnedBy(tc.info, self))
		})
	}
}
