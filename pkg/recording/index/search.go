package index

import "github.com/pi3123/SmartDashcam/pkg/recording"

// CeilingSearch performs a binary search over an ascending slice.
//
// If target is present its position is returned. Otherwise the position of
// the smallest element strictly greater than target is returned. ok is false
// when no element is greater than or equal to target.
func CeilingSearch(sorted []recording.Timestamp, target recording.Timestamp) (int, bool) {
	return ceiling(len(sorted), func(i int) recording.Timestamp { return sorted[i] }, target)
}

// ceiling tracks the best candidate seen so far while the search narrows,
// so it can run over any indexable sequence without materializing it.
func ceiling(n int, at func(int) recording.Timestamp, target recording.Timestamp) (int, bool) {
	low, high := 0, n-1
	next := -1

	for low <= high {
		mid := int(uint(low+high) >> 1)
		v := at(mid)
		switch {
		case v == target:
			return mid, true
		case v > target:
			next = mid
			high = mid - 1
		default:
			low = mid + 1
		}
	}

	if next < 0 {
		return 0, false
	}
	return next, true
}
