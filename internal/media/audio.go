package media

// Alignment places an offset audio source against the playhead. Audio
// recordings can start later than the session's video; until the playhead
// reaches the audio's relative start the source is held paused at zero.
type Alignment struct {
	// Position is the playback position within the audio source.
	Position float64 `json:"position"`
	// Available is false while the playhead sits before the source's start.
	Available bool `json:"available"`
}

// Align computes where an audio source anchored at audioEpoch sits when the
// session video is anchored at videoEpoch and the playhead is at current
// seconds. Sources that start before the video (negative relative start) are
// simply available early.
func Align(audioEpoch, videoEpoch int64, current float64) Alignment {
	relativeStart := float64(audioEpoch - videoEpoch)
	if current < relativeStart {
		return Alignment{Position: 0, Available: false}
	}
	return Alignment{Position: current - relativeStart, Available: true}
}
