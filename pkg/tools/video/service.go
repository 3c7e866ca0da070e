package video

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// maxVideoBytes caps downloads and uploads; Whisper rejects large files
// anyway, so fail fast on oversized input.
const maxVideoBytes = 100 << 20

const summarySystemPrompt = "You are a helpful assistant that summarizes video transcripts."

// Service transcribes video audio with Whisper and summarizes the
// transcripts with a chat model.
type Service struct {
	client     *openai.Client
	chatModel  string
	httpClient *http.Client
}

func NewService(apiKey, chatModel string) *Service {
	if chatModel == "" {
		chatModel = "gpt-4o"
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &Service{
		client:     &client,
		chatModel:  chatModel,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Transcribe sends raw video or audio bytes to Whisper. The mp4 container
// is accepted directly, so no local audio extraction is needed.
func (s *Service) Transcribe(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no media data provided")
	}

	if len(data) > maxVideoBytes {
		return "", fmt.Errorf("media exceeds the %d MB limit", maxVideoBytes>>20)
	}

	tr, err := s.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  openai.File(bytes.NewReader(data), "video.mp4", "video/mp4"),
	})
	if err != nil {
		return "", fmt.Errorf("transcribing media: %w", err)
	}

	return tr.Text, nil
}

// TranscribeBase64 decodes base64 media data and transcribes it.
func (s *Service) TranscribeBase64(ctx context.Context, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding media data: %w", err)
	}

	return s.Transcribe(ctx, data)
}

// TranscribeFile transcribes a local video file.
func (s *Service) TranscribeFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("video file does not exist at path %s: %w", path, err)
	}

	if info.Size() > maxVideoBytes {
		return "", fmt.Errorf("video file exceeds the %d MB limit", maxVideoBytes>>20)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	return s.Transcribe(ctx, data)
}

// summaryTokens maps the requested summary length to a token budget.
func summaryTokens(length string) int64 {
	switch length {
	case "short":
		return 200
	case "long":
		return 1000
	default:
		return 500
	}
}

// SummarizeTranscript produces a concise summary of a transcript. The
// language and length hints are optional.
func (s *Service) SummarizeTranscript(ctx context.Context, transcript, language, length string) (string, error) {
	if transcript == "" {
		return "", fmt.Errorf("transcript is empty")
	}

	prompt := fmt.Sprintf("Please summarize the following transcript concisely:\n\n%s", transcript)
	if language != "" && language != "en" {
		prompt = fmt.Sprintf("Please summarize the following transcript concisely, in %s:\n\n%s", language, transcript)
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summarySystemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(summaryTokens(length)),
	})
	if err != nil {
		return "", fmt.Errorf("summarizing transcript: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarization returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Download fetches a video over http(s), rejecting anything beyond the
// size limit.
func (s *Service) Download(ctx context.Context, videoURL string) ([]byte, error) {
	u, err := url.Parse(videoURL)
	if err != nil {
		return nil, fmt.Errorf("parsing video URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported video URL scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, err
	}

	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading video: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading video: unexpected status %s", res.Status)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxVideoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading video body: %w", err)
	}

	if len(data) > maxVideoBytes {
		return nil, fmt.Errorf("video exceeds the %d MB limit", maxVideoBytes>>20)
	}

	return data, nil
}

// SummarizeVideo runs the whole pipeline: download the video, transcribe
// its audio and summarize the transcript.
func (s *Service) SummarizeVideo(ctx context.Context, videoURL, language, length string) (string, error) {
	data, err := s.Download(ctx, videoURL)
	if err != nil {
		return "", err
	}

	transcript, err := s.Transcribe(ctx, data)
	if err != nil {
		return "", err
	}

	return s.SummarizeTranscript(ctx, transcript, language, length)
}
