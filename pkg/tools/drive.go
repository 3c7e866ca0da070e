package tools

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/charmbracelet/log"
	v "github.com/cohesivestack/valgo"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/theapemachine/toolbench/pkg/auth"
	drivesvc "github.com/theapemachine/toolbench/pkg/tools/drive"
)

// DriveTool exposes Google Drive file operations plus content-level
// editing of Docs, Sheets and Slides as MCP tools.
type DriveTool struct {
	svc  *drivesvc.Service
	auth *auth.Authenticator
}

func NewDriveTool(svc *drivesvc.Service, authenticator *auth.Authenticator) *DriveTool {
	return &DriveTool{svc: svc, auth: authenticator}
}

func (dt *DriveTool) Register(srv *server.MCPServer) {
	srv.AddTool(mcp.NewTool(
		"list_drive_files",
		mcp.WithDescription("List Drive files matching a search query (Drive query syntax: name contains 'x', mimeType = '...', 'folderId' in parents, ...), most recently modified first."),
		mcp.WithString("query", mcp.Description("Drive search query, empty for most recent files")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of files to return (default 10)")),
	), dt.handleListFiles)

	srv.AddTool(mcp.NewTool(
		"get_file_metadata",
		mcp.WithDescription("Retrieve detailed metadata for a file."),
		mcp.WithString("file_id", mcp.Required(), mcp.Description("The file ID")),
	), dt.handleGetFileMetadata)

	srv.AddTool(mcp.NewTool(
		"create_drive_folder",
		mcp.WithDescription("Create a folder."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Folder name")),
		mcp.WithString("parent_id", mcp.Description("Parent folder ID, defaults to My Drive root")),
	), dt.handleCreateFolder)

	srv.AddTool(mcp.NewTool(
		"create_drive_document",
		mcp.WithDescription("Create a Google Docs document, optionally with initial text content."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name")),
		mcp.WithString("content", mcp.Description("Initial text content")),
		mcp.WithString("parent_id", mcp.Description("Parent folder ID")),
	), dt.handleCreateDocument)

	srv.AddTool(mcp.NewTool(
		"create_drive_spreadsheet",
		mcp.WithDescription("Create a Google Sheets spreadsheet."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Spreadsheet name")),
		mcp.WithString("parent_id", mcp.Description("Parent folder ID")),
	), dt.handleCreateSpreadsheet)

	srv.AddTool(mcp.NewTool(
		"create_drive_presentation",
		mcp.WithDescription("Create a Google Slides presentation."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Presentation name")),
		mcp.WithString("parent_id", mcp.Description("Parent folder ID")),
	), dt.handleCreatePresentation)

	srv.AddTool(mcp.NewTool(
		"download_drive_file",
		mcp.WithDescription("Download a file's content, base64 encoded. Workspace documents are exported: pdf, docx, txt, html, odt, rtf for documents; pdf, xlsx, csv, ods for spreadsheets; pdf, pptx, txt, odp for presentations."),
		mcp.WithString("file_id", mcp.Required(), mcp.Description("The file ID to download")),
		mcp.WithString("export_format", mcp.Description("Export format for Workspace documents (default pdf/xlsx/pptx by type)")),
	), dt.handleDownloadFile)

	srv.AddTool(mcp.NewTool(
		"delete_drive_file",
		mcp.WithDescription("Permanently delete a file or folder."),
		mcp.WithString("file_id", mcp.Required(), mcp.Description("The file ID to delete")),
	), dt.handleDeleteFile)

	srv.AddTool(mcp.NewTool(
		"share_drive_file",
		mcp.WithDescription("Grant a permission on a file. For user and group types the principal is an email address, for domain the domain name."),
		mcp.WithString("file_id", mcp.Required(), mcp.Description("The file ID to share")),
		mcp.WithString("email", mcp.Required(), mcp.Description("Email address or domain to grant access to")),
		mcp.WithString("role", mcp.Description("Permission role: reader, commenter, writer or owner (default reader)")),
		mcp.WithString("type", mcp.Description("Permission type: user, group, domain or anyone (default user)")),
		mcp.WithBoolean("notify", mcp.Description("Send a notification email (default false)")),
	), dt.handleShareFile)

	srv.AddTool(mcp.NewTool(
		"upload_file_to_drive",
		mcp.WithDescription("Upload a local file to Drive. With convert set, office formats become the corresponding Workspace document type."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the local file")),
		mcp.WithString("name", mcp.Description("Name in Drive, defaults to the local filename")),
		mcp.WithString("parent_id", mcp.Description("Parent folder ID")),
		mcp.WithString("mime_type", mcp.Description("MIME type of the upload")),
		mcp.WithBoolean("convert", mcp.Description("Convert to a Workspace document type")),
	), dt.handleUploadFile)

	srv.AddTool(mcp.NewTool(
		"move_drive_file",
		mcp.WithDescription("Move a file to a different folder."),
		mcp.WithString("file_id", mcp.Required(), mcp.Description("The file ID to move")),
		mcp.WithString("new_parent_id", mcp.Required(), mcp.Description("Destination folder ID")),
		mcp.WithBoolean("remove_parents", mcp.Description("Remove existing parents (default true)")),
	), dt.handleMoveFile)

	srv.AddTool(mcp.NewTool(
		"get_document_content",
		mcp.WithDescription("Retrieve the full structured content of a Google Docs document."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("The document ID")),
	), dt.handleGetDocumentContent)

	srv.AddTool(mcp.NewTool(
		"update_document_content",
		mcp.WithDescription("Apply Docs API batchUpdate requests to a document (insertText, deleteContentRange, updateTextStyle, ...)."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("The document ID")),
		mcp.WithArray("requests", mcp.Required(), mcp.Description("Docs API change requests")),
	), dt.handleUpdateDocumentContent)

	srv.AddTool(mcp.NewTool(
		"get_spreadsheet_content",
		mcp.WithDescription("Retrieve spreadsheet metadata plus the cell values of every sheet."),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("The spreadsheet ID")),
	), dt.handleGetSpreadsheetContent)

	srv.AddTool(mcp.NewTool(
		"update_spreadsheet_content",
		mcp.WithDescription("Apply Sheets API batchUpdate requests to a spreadsheet (addSheet, updateCells, mergeCells, ...)."),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("The spreadsheet ID")),
		mcp.WithArray("requests", mcp.Required(), mcp.Description("Sheets API change requests")),
	), dt.handleUpdateSpreadsheetContent)

	srv.AddTool(mcp.NewTool(
		"update_spreadsheet_values",
		mcp.WithDescription("Write a 2D block of cell values to a range in A1 notation, e.g. Sheet1!A1:B5."),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("The spreadsheet ID")),
		mcp.WithString("range", mcp.Required(), mcp.Description("Target range in A1 notation")),
		mcp.WithArray("values", mcp.Required(), mcp.Description("2D array of values, outer array is rows")),
		mcp.WithString("input_option", mcp.Description("RAW or USER_ENTERED (default USER_ENTERED)")),
	), dt.handleUpdateSpreadsheetValues)

	srv.AddTool(mcp.NewTool(
		"get_presentation_content",
		mcp.WithDescription("Retrieve the full structured content of a Google Slides presentation."),
		mcp.WithString("presentation_id", mcp.Required(), mcp.Description("The presentation ID")),
	), dt.handleGetPresentationContent)

	srv.AddTool(mcp.NewTool(
		"update_presentation_content",
		mcp.WithDescription("Apply Slides API batchUpdate requests to a presentation (createSlide, insertText, createShape, ...)."),
		mcp.WithString("presentation_id", mcp.Required(), mcp.Description("The presentation ID")),
		mcp.WithArray("requests", mcp.Required(), mcp.Description("Slides API change requests")),
	), dt.handleUpdatePresentationContent)

	srv.AddTool(mcp.NewTool(
		"authenticate_drive",
		mcp.WithDescription("Check Google Drive authentication status, refreshing the token when possible. Reports the consent URL when re-authentication is required."),
	), dt.handleAuthenticate)
}

func (dt *DriveTool) handleListFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")

	log.Info("list_drive_files executing", "query", query)

	files, err := dt.svc.ListFiles(ctx, query, int64(req.GetInt("max_results", 10)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"files": files,
		"count": len(files),
	})
}

func (dt *DriveTool) handleGetFileMetadata(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileID, err := req.RequireString("file_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("get_file_metadata executing", "file_id", fileID)

	file, err := dt.svc.GetFileMetadata(ctx, fileID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(file)
}

func (dt *DriveTool) handleCreateFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("create_drive_folder executing", "name", name)

	folder, err := dt.svc.CreateFolder(ctx, name, req.GetString("parent_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(folder)
}

func (dt *DriveTool) handleCreateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("create_drive_document executing", "name", name)

	doc, err := dt.svc.CreateDocument(ctx, name,
		req.GetString("content", ""),
		req.GetString("parent_id", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(doc)
}

func (dt *DriveTool) handleCreateSpreadsheet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("create_drive_spreadsheet executing", "name", name)

	sheet, err := dt.svc.CreateSpreadsheet(ctx, name, req.GetString("parent_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(sheet)
}

func (dt *DriveTool) handleCreatePresentation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("create_drive_presentation executing", "name", name)

	presentation, err := dt.svc.CreatePresentation(ctx, name, req.GetString("parent_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(presentation)
}

func (dt *DriveTool) handleDownloadFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileID, err := req.RequireString("file_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("download_drive_file executing", "file_id", fileID)

	result, err := dt.svc.Download(ctx, fileID, req.GetString("export_format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"content":   base64.StdEncoding.EncodeToString(result.Content),
		"mime_type": result.MimeType,
		"file_name": result.FileName,
	})
}

func (dt *DriveTool) handleDeleteFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileID, err := req.RequireString("file_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("delete_drive_file executing", "file_id", fileID)

	if err := dt.svc.DeleteFile(ctx, fileID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("File " + fileID + " deleted successfully"), nil
}

func (dt *DriveTool) handleShareFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileID := req.GetString("file_id", "")
	email := req.GetString("email", "")

	val := v.Is(
		v.String(fileID, "file_id").Not().Blank(),
		v.String(email, "email").Not().Blank(),
	)
	if !val.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", val.Errors())), nil
	}

	log.Info("share_drive_file executing", "file_id", fileID, "email", email)

	permission, err := dt.svc.ShareFile(ctx, fileID, email,
		req.GetString("role", "reader"),
		req.GetString("type", "user"),
		req.GetBool("notify", false),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(permission)
}

func (dt *DriveTool) handleUploadFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("upload_file_to_drive executing", "path", path)

	file, err := dt.svc.UploadFile(ctx, path,
		req.GetString("name", ""),
		req.GetString("parent_id", ""),
		req.GetString("mime_type", ""),
		req.GetBool("convert", false),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(file)
}

func (dt *DriveTool) handleMoveFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileID := req.GetString("file_id", "")
	newParentID := req.GetString("new_parent_id", "")

	val := v.Is(
		v.String(fileID, "file_id").Not().Blank(),
		v.String(newParentID, "new_parent_id").Not().Blank(),
	)
	if !val.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", val.Errors())), nil
	}

	log.Info("move_drive_file executing", "file_id", fileID, "new_parent_id", newParentID)

	file, err := dt.svc.MoveFile(ctx, fileID, newParentID, req.GetBool("remove_parents", true))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(file)
}

func (dt *DriveTool) handleGetDocumentContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentID, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("get_document_content executing", "document_id", documentID)

	doc, err := dt.svc.GetDocumentContent(ctx, documentID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(doc)
}

// rawRequests pulls an array argument out of the request without forcing
// a concrete element type; batch update requests are arbitrary API maps.
func rawRequests(req mcp.CallToolRequest, key string) ([]any, bool) {
	value, ok := req.GetArguments()[key]
	if !ok {
		return nil, false
	}

	list, ok := value.([]any)
	return list, ok
}

func (dt *DriveTool) handleUpdateDocumentContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentID, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	requests, ok := rawRequests(req, "requests")
	if !ok || len(requests) == 0 {
		return mcp.NewToolResultError("requests must be a non-empty array"), nil
	}

	log.Info("update_document_content executing", "document_id", documentID, "requests", len(requests))

	result, err := dt.svc.UpdateDocumentContent(ctx, documentID, requests)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

func (dt *DriveTool) handleGetSpreadsheetContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spreadsheetID, err := req.RequireString("spreadsheet_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("get_spreadsheet_content executing", "spreadsheet_id", spreadsheetID)

	content, err := dt.svc.GetSpreadsheetContent(ctx, spreadsheetID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(content)
}

func (dt *DriveTool) handleUpdateSpreadsheetContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spreadsheetID, err := req.RequireString("spreadsheet_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	requests, ok := rawRequests(req, "requests")
	if !ok || len(requests) == 0 {
		return mcp.NewToolResultError("requests must be a non-empty array"), nil
	}

	log.Info("update_spreadsheet_content executing", "spreadsheet_id", spreadsheetID, "requests", len(requests))

	result, err := dt.svc.UpdateSpreadsheetContent(ctx, spreadsheetID, requests)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

func (dt *DriveTool) handleUpdateSpreadsheetValues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spreadsheetID, err := req.RequireString("spreadsheet_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rangeName, err := req.RequireString("range")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, ok := rawRequests(req, "values")
	if !ok || len(rows) == 0 {
		return mcp.NewToolResultError("values must be a non-empty 2D array"), nil
	}

	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells, ok := row.([]any)
		if !ok {
			return mcp.NewToolResultError("values must be a 2D array, each row an array of cells"), nil
		}
		values = append(values, cells)
	}

	log.Info("update_spreadsheet_values executing", "spreadsheet_id", spreadsheetID, "range", rangeName)

	result, err := dt.svc.UpdateSpreadsheetValues(ctx, spreadsheetID, rangeName, values, req.GetString("input_option", "USER_ENTERED"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

func (dt *DriveTool) handleGetPresentationContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	presentationID, err := req.RequireString("presentation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("get_presentation_content executing", "presentation_id", presentationID)

	presentation, err := dt.svc.GetPresentationContent(ctx, presentationID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(presentation)
}

func (dt *DriveTool) handleUpdatePresentationContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	presentationID, err := req.RequireString("presentation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	requests, ok := rawRequests(req, "requests")
	if !ok || len(requests) == 0 {
		return mcp.NewToolResultError("requests must be a non-empty array"), nil
	}

	log.Info("update_presentation_content executing", "presentation_id", presentationID, "requests", len(requests))

	result, err := dt.svc.UpdatePresentationContent(ctx, presentationID, requests)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

func (dt *DriveTool) handleAuthenticate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Info("authenticate_drive executing")

	return authStatusResult(ctx, dt.auth, func(c context.Context) error {
		_, err := dt.svc.ListFiles(c, "", 1)
		return err
	})
}
