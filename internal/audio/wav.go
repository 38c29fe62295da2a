package audio

// HeaderSize is the length of the canonical 44-byte RIFF/WAVE header every
// synthesis fragment starts with. All fragments in one call share the same
// layout because they come from one synthesis configuration.
const HeaderSize = 44

// ConcatWAV joins fragments into one playable buffer: the first fragment is
// copied byte-for-byte including its header, every subsequent fragment has
// its header stripped. This is a strict byte-offset contract, not a semantic
// audio merge.
func ConcatWAV(fragments [][]byte) []byte {
	if len(fragments) == 0 {
		return nil
	}

	size := len(fragments[0])
	for _, f := range fragments[1:] {
		if len(f) > HeaderSize {
			size += len(f) - HeaderSize
		}
	}

	out := make([]byte, 0, size)
	out = append(out, fragments[0]...)
	for _, f := range fragments[1:] {
		if len(f) <= HeaderSize {
			continue
		}
		out = append(out, f[HeaderSize:]...)
	}
	return out
}
