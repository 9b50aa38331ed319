package client

// Delta is a localized text mutation: replace the range [Start, End) with
// Text. Positions are expressed in the sender's coordinate space at
// emission time; receivers apply it as-is, with no transform against their
// own concurrent edits. The accompanying full content is the fallback when
// a delta is missing or does not fit the local buffer.
type Delta struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

func (d Delta) apply(s string) (string, bool) {
	if d.Start < 0 || d.End < d.Start || d.End > len(s) {
		return s, false
	}
	return s[:d.Start] + d.Text + s[d.End:], true
}
