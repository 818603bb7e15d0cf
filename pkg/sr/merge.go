package sr

import "log/slog"

// Bucket holds the merged content of every measurement group sharing a tracking UID
type Bucket struct {
	// Index of the first group that contributed, among the measurement groups
	Index                    int
	TrackingUniqueIdentifier string
	Items                    []*ContentItem
}

// MergeGroups merges the Measurement Group containers among items by tracking
// unique identifier. The first group for an identifier contributes all its
// children; later groups append theirs minus their own tracking UID item.
// Buckets come back in first-encounter order. Groups lacking a tracking UID
// are skipped and reported.
func MergeGroups(items []*ContentItem) ([]Bucket, []SkipReason) {
	var (
		buckets []Bucket
		skips   []SkipReason
		byUID   = map[string]int{}
		index   = -1
	)

	for _, group := range items {
		if group == nil || group.Concept() != MeasurementGroup {
			continue
		}
		index++

		children := group.Children()
		at := -1
		for i, child := range children {
			if child.Concept() == TrackingUniqueIdentifier {
				at = i
				break
			}
		}
		if at < 0 || children[at].UID == "" {
			slog.Warn("skipping measurement group without tracking unique identifier", "index", index)
			skips = append(skips, newSkip(index, "", ErrMissingTrackingUID))
			continue
		}
		uid := children[at].UID

		b, seen := byUID[uid]
		if !seen {
			byUID[uid] = len(buckets)
			buckets = append(buckets, Bucket{
				Index:                    index,
				TrackingUniqueIdentifier: uid,
				Items:                    append([]*ContentItem(nil), children...),
			})
			continue
		}
		rest := make([]*ContentItem, 0, len(children)-1)
		rest = append(rest, children[:at]...)
		rest = append(rest, children[at+1:]...)
		buckets[b].Items = append(buckets[b].Items, rest...)
	}
	return buckets, skips
}
