// Package index holds the ordered timestamp index of the retention buffer
// and the ceiling search used to resolve export windows.
//
// The index is a fixed-capacity ring of FrameRecord values that grows at
// the tail (capture) and shrinks at the head (eviction). It is not safe for
// concurrent use; the retention manager serializes all access to it.
//
// # Ceiling Search
//
// CeilingSearch returns the position of the smallest timestamp that is
// greater than or equal to a target:
//
//	pos, ok := index.CeilingSearch([]recording.Timestamp{10, 20, 30, 40}, 25)
//	// pos == 2, ok == true
//
// A target below every element resolves to 0. A target above every element
// has no ceiling and reports ok == false.
package index
