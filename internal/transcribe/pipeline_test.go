package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tusharkhatri12/Teamflow-AI/internal/media"
	"github.com/tusharkhatri12/Teamflow-AI/internal/whisper"
)

type fakeDecoder struct {
	err       error
	inputPath string
	outputs   []string
}

func (d *fakeDecoder) ExtractAudio(_ context.Context, inputPath, outputPath string) error {
	d.inputPath = inputPath
	d.outputs = append(d.outputs, outputPath)
	if d.err != nil {
		return d.err
	}
	return os.WriteFile(outputPath, []byte("RIFF"), 0o644)
}

type fakeEngine struct {
	result    whisper.Result
	err       error
	audioPath string
}

func (e *fakeEngine) Transcribe(_ context.Context, req whisper.Request) (whisper.Result, error) {
	e.audioPath = req.AudioPath
	if e.err != nil {
		return whisper.Result{}, e.err
	}
	return e.result, nil
}

type fakeSource struct {
	engine whisper.Engine
	err    error
}

func (s *fakeSource) Get(context.Context) (whisper.Engine, error) {
	return s.engine, s.err
}

// isolateTempDir points os.MkdirTemp at a fresh directory so the test can
// observe workspace creation and teardown.
func isolateTempDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("TMPDIR", root)
	return root
}

func requireNoWorkspaces(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries, "workspace left behind")
}

func TestRunAudioUploadSkipsDecoding(t *testing.T) {
	root := isolateTempDir(t)

	decoder := &fakeDecoder{}
	engine := &fakeEngine{result: whisper.Result{
		Language: "en",
		Duration: 3.5,
		Segments: []whisper.Segment{{Text: " hello "}, {Text: "again"}},
	}}
	pipeline := NewPipeline(decoder, &fakeSource{engine: engine}, nil)

	outcome, err := pipeline.Run(context.Background(), "voice.wav", strings.NewReader("RIFF"))
	require.NoError(t, err)
	require.Equal(t, "en", outcome.Language)
	require.InDelta(t, 3.5, outcome.Duration, 1e-9)
	require.Equal(t, "hello again", outcome.Text)

	require.Empty(t, decoder.outputs, "decoder must not run for audio uploads")
	require.Equal(t, "voice.wav", filepath.Base(engine.audioPath))
	requireNoWorkspaces(t, root)
}

func TestRunVideoUploadDecodesFirst(t *testing.T) {
	root := isolateTempDir(t)

	decoder := &fakeDecoder{}
	engine := &fakeEngine{result: whisper.Result{
		Language: "en",
		Duration: 12.5,
		Segments: []whisper.Segment{{Text: "Hi"}, {Text: "there."}},
	}}
	pipeline := NewPipeline(decoder, &fakeSource{engine: engine}, nil)

	outcome, err := pipeline.Run(context.Background(), "interview.mp4", strings.NewReader("mp4-bytes"))
	require.NoError(t, err)
	require.Equal(t, "Hi there.", outcome.Text)

	require.Equal(t, "interview.mp4", filepath.Base(decoder.inputPath))
	require.Len(t, decoder.outputs, 1)
	require.Equal(t, "audio.wav", filepath.Base(decoder.outputs[0]))
	require.Equal(t, decoder.outputs[0], engine.audioPath)
	requireNoWorkspaces(t, root)
}

func TestRunEmptyFilenameAllocatesNothing(t *testing.T) {
	root := isolateTempDir(t)

	pipeline := NewPipeline(&fakeDecoder{}, &fakeSource{engine: &fakeEngine{}}, nil)
	_, err := pipeline.Run(context.Background(), "   ", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrNoFile)
	requireNoWorkspaces(t, root)
}

func TestRunCleansUpOnDecoderFailure(t *testing.T) {
	root := isolateTempDir(t)

	decoder := &fakeDecoder{err: media.ErrFFmpegUnavailable}
	pipeline := NewPipeline(decoder, &fakeSource{engine: &fakeEngine{}}, nil)

	_, err := pipeline.Run(context.Background(), "clip.mp4", strings.NewReader("x"))
	require.ErrorIs(t, err, media.ErrFFmpegUnavailable)
	requireNoWorkspaces(t, root)
}

func TestRunCleansUpOnEngineInitFailure(t *testing.T) {
	root := isolateTempDir(t)

	initErr := errors.New("weights missing")
	pipeline := NewPipeline(&fakeDecoder{}, &fakeSource{err: initErr}, nil)

	_, err := pipeline.Run(context.Background(), "voice.wav", strings.NewReader("x"))
	require.ErrorIs(t, err, initErr)
	requireNoWorkspaces(t, root)
}

func TestRunCleansUpOnInferenceFailure(t *testing.T) {
	root := isolateTempDir(t)

	engine := &fakeEngine{err: errors.New("inference blew up")}
	pipeline := NewPipeline(&fakeDecoder{}, &fakeSource{engine: engine}, nil)

	_, err := pipeline.Run(context.Background(), "voice.wav", strings.NewReader("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "inference blew up")
	requireNoWorkspaces(t, root)
}

func TestRunNeutralizesPathTraversal(t *testing.T) {
	root := isolateTempDir(t)

	decoder := &fakeDecoder{}
	engine := &fakeEngine{result: whisper.Result{Language: "en"}}
	pipeline := NewPipeline(decoder, &fakeSource{engine: engine}, nil)

	_, err := pipeline.Run(context.Background(), "../../evil.mp4", strings.NewReader("x"))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(decoder.inputPath, root), "upload escaped the workspace: %s", decoder.inputPath)
	require.Equal(t, "evil.mp4", filepath.Base(decoder.inputPath))

	_, statErr := os.Stat(filepath.Join(filepath.Dir(root), "evil.mp4"))
	require.True(t, os.IsNotExist(statErr))
	requireNoWorkspaces(t, root)
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	require.Equal(t, "evil.mp4", sanitizeFilename("../../evil.mp4"))
	require.Equal(t, "evil.mp4", sanitizeFilename(`..\..\evil.mp4`))
	require.Equal(t, "voice.wav", sanitizeFilename("voice.wav"))
	require.Equal(t, "upload", sanitizeFilename(".."))
	require.Equal(t, "upload", sanitizeFilename("/"))
}
