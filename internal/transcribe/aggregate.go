package transcribe

import (
	"strings"

	"github.com/tusharkhatri12/Teamflow-AI/internal/whisper"
)

// JoinSegments concatenates segment texts in order, trimming each one and
// dropping segments that are empty after trimming.
func JoinSegments(segments []whisper.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}
