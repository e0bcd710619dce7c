package media

import "strings"

// Kind is the coarse media classification derived from a filename.
type Kind int

const (
	KindUnknown Kind = iota
	KindAudio
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

var videoSuffixes = []string{".mp4", ".mov", ".mkv", ".avi", ".m4v"}
var audioSuffixes = []string{".mp3", ".wav", ".m4a", ".aac", ".flac", ".ogg"}

// Classify inspects a filename suffix, case-insensitively. Audio wins when a
// name somehow matches both tables.
func Classify(filename string) Kind {
	switch {
	case IsAudioFilename(filename):
		return KindAudio
	case IsVideoFilename(filename):
		return KindVideo
	default:
		return KindUnknown
	}
}

func IsVideoFilename(filename string) bool {
	return hasAnySuffix(filename, videoSuffixes)
}

func IsAudioFilename(filename string) bool {
	return hasAnySuffix(filename, audioSuffixes)
}

// NeedsExtraction reports whether the upload must be run through the decoder
// before inference. Unknown suffixes pass through untouched on the assumption
// the engine can read them directly.
func NeedsExtraction(filename string) bool {
	return IsVideoFilename(filename) && !IsAudioFilename(filename)
}

func hasAnySuffix(filename string, suffixes []string) bool {
	lowered := strings.ToLower(filename)
	for _, suffix := range suffixes {
		if strings.HasSuffix(lowered, suffix) {
			return true
		}
	}
	return false
}
