package tools

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	videosvc "github.com/theapemachine/toolbench/pkg/tools/video"
)

// VideoTool exposes video transcription and summarization as MCP tools.
type VideoTool struct {
	svc *videosvc.Service
}

func NewVideoTool(svc *videosvc.Service) *VideoTool {
	return &VideoTool{svc: svc}
}

func (vt *VideoTool) Register(srv *server.MCPServer) {
	srv.AddTool(mcp.NewTool(
		"transcribe_video",
		mcp.WithDescription("Transcribe a video's audio track with Whisper. Provide either base64-encoded video data or a local file path."),
		mcp.WithString("video_data_base64", mcp.Description("Base64-encoded video data")),
		mcp.WithString("video_path", mcp.Description("Path to a local video file")),
	), vt.handleTranscribe)

	srv.AddTool(mcp.NewTool(
		"summarize_video_transcript",
		mcp.WithDescription("Summarize a video transcript concisely."),
		mcp.WithString("transcript", mcp.Required(), mcp.Description("The transcript text to summarize")),
		mcp.WithString("language", mcp.Description("Language for the summary (default en)")),
		mcp.WithString("length", mcp.Description("Summary length: short, medium or long (default medium)")),
	), vt.handleSummarizeTranscript)

	srv.AddTool(mcp.NewTool(
		"summarize_video",
		mcp.WithDescription("Download a video from a URL, transcribe its audio and summarize the transcript."),
		mcp.WithString("video_url", mcp.Required(), mcp.Description("The http(s) URL of the video")),
		mcp.WithString("language", mcp.Description("Language for the summary (default en)")),
		mcp.WithString("length", mcp.Description("Summary length: short, medium or long (default medium)")),
	), vt.handleSummarizeVideo)
}

func (vt *VideoTool) handleTranscribe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	encoded := req.GetString("video_data_base64", "")
	path := req.GetString("video_path", "")

	if encoded == "" && path == "" {
		return mcp.NewToolResultError("either video_data_base64 or video_path must be provided"), nil
	}

	log.Info("transcribe_video executing", "from_path", path != "")

	var (
		transcript string
		err        error
	)

	if encoded != "" {
		transcript, err = vt.svc.TranscribeBase64(ctx, encoded)
	} else {
		transcript, err = vt.svc.TranscribeFile(ctx, path)
	}

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"transcript": transcript,
	})
}

func (vt *VideoTool) handleSummarizeTranscript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	transcript, err := req.RequireString("transcript")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("summarize_video_transcript executing", "transcript_len", len(transcript))

	summary, err := vt.svc.SummarizeTranscript(ctx, transcript,
		req.GetString("language", "en"),
		req.GetString("length", "medium"),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(summary), nil
}

func (vt *VideoTool) handleSummarizeVideo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoURL, err := req.RequireString("video_url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("summarize_video executing", "url", videoURL)

	summary, err := vt.svc.SummarizeVideo(ctx, videoURL,
		req.GetString("language", "en"),
		req.GetString("length", "medium"),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"summary": summary,
	})
}
