package media

import "github.com/tg-archive/tgkeeper/internal/types"

// PickThumb selects the thumbnail variant worth fetching: the one with the
// greatest reported width. Outline placeholders are never candidates, not
// even as a fallback. The stripped inline preview reports no width and so
// only wins when nothing else qualifies. Returns nil when no variant
// qualifies.
func PickThumb(thumbs []types.Thumb) *types.Thumb {
	var best *types.Thumb
	for i := range thumbs {
		t := &thumbs[i]
		if t.Outline {
			continue
		}
		width := t.Width
		if t.Stripped {
			width = 0
		}
		if best == nil || width > bestWidth(best) {
			best = t
		}
	}
	return best
}

func bestWidth(t *types.Thumb) int {
	if t.Stripped {
		return 0
	}
	return t.Width
}
