package vg

// validStates reports whether b holds a plausible bone state change
// table: every byte an in-range bone index, and no index repeated. Each
// hardware bone slot maps to a distinct model bone, so duplicates mean
// the window is not the table.
func validStates(b []byte, boneCount int) bool {
	var seen [256]bool
	for _, v := range b {
		if int(v) >= boneCount || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// findBoneStates searches a converted model file for its embedded bone
// state change table. The table sits near the end of the file, so the
// scan runs backwards first; that also avoids false positives from bone
// parent tables and other small-integer runs earlier in the file. The
// first 0x1000 bytes are never searched, nothing below that is ever the
// table.
//
// A backward hit must additionally be preceded by 16 bytes shaped like
// the small header that precedes the table in practice: a LOD count in
// 1..8 up front, zeroed padding words, and a zero byte directly before
// the data. A forward pass without the header check runs as a last
// resort. Returns nil when no window qualifies.
func findBoneStates(model []byte, count, boneCount int) []byte {
	const searchStart = 0x1000
	if count == 0 || boneCount == 0 || len(model) < searchStart+count {
		return nil
	}

	for off := len(model) - count; off >= searchStart; off-- {
		w := model[off : off+count]
		if !validStates(w, boneCount) {
			continue
		}
		if off < 16 {
			continue
		}
		h := model[off-16 : off]
		if h[0] >= 1 && h[0] <= 8 && h[4] == 0 && h[8] == 0 && h[12] == 0 && h[15] == 0 {
			return w
		}
	}

	for off := searchStart; off < len(model)-count; off++ {
		w := model[off : off+count]
		if validStates(w, boneCount) {
			return w
		}
	}
	return nil
}
