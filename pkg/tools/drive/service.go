package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/slides/v1"
)

const (
	MimeFolder       = "application/vnd.google-apps.folder"
	MimeDocument     = "application/vnd.google-apps.document"
	MimeSpreadsheet  = "application/vnd.google-apps.spreadsheet"
	MimePresentation = "application/vnd.google-apps.presentation"

	fileFields = "id, name, mimeType, createdTime, modifiedTime, size, parents, description, webViewLink"
)

// exportFormats maps a Workspace document type to the formats it can be
// exported as.
var exportFormats = map[string]map[string]string{
	MimeDocument: {
		"pdf":  "application/pdf",
		"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"txt":  "text/plain",
		"html": "text/html",
		"odt":  "application/vnd.oasis.opendocument.text",
		"rtf":  "application/rtf",
	},
	MimeSpreadsheet: {
		"pdf":  "application/pdf",
		"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"csv":  "text/csv",
		"ods":  "application/vnd.oasis.opendocument.spreadsheet",
	},
	MimePresentation: {
		"pdf":  "application/pdf",
		"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"txt":  "text/plain",
		"odp":  "application/vnd.oasis.opendocument.presentation",
	},
}

// defaultExportFormat picks the format used when the caller does not
// specify one.
func defaultExportFormat(mimeType string) string {
	switch mimeType {
	case MimeSpreadsheet:
		return "xlsx"
	case MimePresentation:
		return "pptx"
	default:
		return "pdf"
	}
}

// Service bundles the Drive API with the Docs, Sheets and Slides APIs so
// content-level operations on Workspace documents live next to the file
// operations that create them.
type Service struct {
	drive  *drive.Service
	docs   *docs.Service
	sheets *sheets.Service
	slides *slides.Service
}

func NewService(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*Service, error) {
	all := append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)

	driveAPI, err := drive.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}

	docsAPI, err := docs.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("creating docs service: %w", err)
	}

	sheetsAPI, err := sheets.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	slidesAPI, err := slides.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("creating slides service: %w", err)
	}

	return &Service{
		drive:  driveAPI,
		docs:   docsAPI,
		sheets: sheetsAPI,
		slides: slidesAPI,
	}, nil
}

// ListFiles returns files matching a Drive search query, most recently
// modified first.
func (s *Service) ListFiles(ctx context.Context, query string, maxResults int64) ([]*drive.File, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	call := s.drive.Files.List().
		PageSize(maxResults).
		Fields(googleapi.Field("files(" + fileFields + ")")).
		OrderBy("modifiedTime desc")

	if query != "" {
		call = call.Q(query)
	}

	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	return res.Files, nil
}

func (s *Service) GetFileMetadata(ctx context.Context, fileID string) (*drive.File, error) {
	file, err := s.drive.Files.Get(fileID).
		Fields(googleapi.Field(fileFields)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting file %s: %w", fileID, err)
	}

	return file, nil
}

// DownloadResult carries the raw bytes of a downloaded or exported file.
type DownloadResult struct {
	Content  []byte
	MimeType string
	FileName string
}

// Download fetches a file's content. Workspace documents cannot be
// downloaded directly, so they are exported: the format defaults to pdf
// for documents, xlsx for spreadsheets and pptx for presentations.
func (s *Service) Download(ctx context.Context, fileID, exportFormat string) (*DownloadResult, error) {
	meta, err := s.drive.Files.Get(fileID).
		Fields("name, mimeType").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting file %s: %w", fileID, err)
	}

	if strings.HasPrefix(meta.MimeType, "application/vnd.google-apps") {
		if exportFormat == "" {
			exportFormat = defaultExportFormat(meta.MimeType)
		}

		exportMime, ok := exportFormats[meta.MimeType][exportFormat]
		if !ok {
			return nil, fmt.Errorf("export format %q not supported for %s", exportFormat, meta.MimeType)
		}

		res, err := s.drive.Files.Export(fileID, exportMime).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("exporting file %s: %w", fileID, err)
		}
		defer res.Body.Close()

		content, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("reading export of %s: %w", fileID, err)
		}

		return &DownloadResult{
			Content:  content,
			MimeType: exportMime,
			FileName: meta.Name + "." + exportFormat,
		}, nil
	}

	res, err := s.drive.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("downloading file %s: %w", fileID, err)
	}
	defer res.Body.Close()

	content, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", fileID, err)
	}

	return &DownloadResult{
		Content:  content,
		MimeType: meta.MimeType,
		FileName: meta.Name,
	}, nil
}

func (s *Service) createFile(ctx context.Context, name, mimeType, parentID string) (*drive.File, error) {
	meta := &drive.File{Name: name, MimeType: mimeType}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	file, err := s.drive.Files.Create(meta).
		Fields(googleapi.Field(fileFields)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}

	return file, nil
}

func (s *Service) CreateFolder(ctx context.Context, name, parentID string) (*drive.File, error) {
	return s.createFile(ctx, name, MimeFolder, parentID)
}

// CreateDocument creates a Google Docs document and, when initial content
// is given, inserts it through the Docs API.
func (s *Service) CreateDocument(ctx context.Context, name, content, parentID string) (*drive.File, error) {
	file, err := s.createFile(ctx, name, MimeDocument, parentID)
	if err != nil {
		return nil, err
	}

	if content != "" {
		_, err = s.docs.Documents.BatchUpdate(file.Id, &docs.BatchUpdateDocumentRequest{
			Requests: []*docs.Request{{
				InsertText: &docs.InsertTextRequest{
					Text:     content,
					Location: &docs.Location{Index: 1},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("inserting content into %s: %w", file.Id, err)
		}
	}

	return file, nil
}

func (s *Service) CreateSpreadsheet(ctx context.Context, name, parentID string) (*drive.File, error) {
	return s.createFile(ctx, name, MimeSpreadsheet, parentID)
}

func (s *Service) CreatePresentation(ctx context.Context, name, parentID string) (*drive.File, error) {
	return s.createFile(ctx, name, MimePresentation, parentID)
}

func (s *Service) DeleteFile(ctx context.Context, fileID string) error {
	if err := s.drive.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("deleting file %s: %w", fileID, err)
	}

	return nil
}

// UploadFile uploads a local file. When convert is set, common office
// formats become the corresponding Workspace document type.
func (s *Service) UploadFile(ctx context.Context, path, name, parentID, mimeType string, convert bool) (*drive.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if name == "" {
		name = filepath.Base(path)
	}

	meta := &drive.File{Name: name}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	if convert {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".doc", ".docx", ".txt", ".rtf", ".odt":
			meta.MimeType = MimeDocument
		case ".xls", ".xlsx", ".csv", ".ods":
			meta.MimeType = MimeSpreadsheet
		case ".ppt", ".pptx", ".odp":
			meta.MimeType = MimePresentation
		}
	}

	call := s.drive.Files.Create(meta).Fields(googleapi.Field(fileFields))

	if mimeType != "" {
		call = call.Media(f, googleapi.ContentType(mimeType))
	} else {
		call = call.Media(f)
	}

	file, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}

	return file, nil
}

// MoveFile reparents a file, removing its previous parents when
// removeParents is set.
func (s *Service) MoveFile(ctx context.Context, fileID, newParentID string, removeParents bool) (*drive.File, error) {
	current, err := s.drive.Files.Get(fileID).Fields("parents").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting parents of %s: %w", fileID, err)
	}

	call := s.drive.Files.Update(fileID, nil).
		AddParents(newParentID).
		Fields("id, name, parents")

	if removeParents && len(current.Parents) > 0 {
		call = call.RemoveParents(strings.Join(current.Parents, ","))
	}

	file, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("moving file %s: %w", fileID, err)
	}

	return file, nil
}

// ShareFile grants a permission on a file. For user and group types the
// principal is an email address; for domain it is the domain name.
func (s *Service) ShareFile(ctx context.Context, fileID, principal, role, permType string, notify bool) (*drive.Permission, error) {
	if role == "" {
		role = "reader"
	}

	if permType == "" {
		permType = "user"
	}

	perm := &drive.Permission{Type: permType, Role: role}

	switch permType {
	case "user", "group":
		perm.EmailAddress = principal
	case "domain":
		perm.Domain = principal
	}

	created, err := s.drive.Permissions.Create(fileID, perm).
		SendNotificationEmail(notify).
		Fields("id, type, role, emailAddress").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sharing file %s: %w", fileID, err)
	}

	return created, nil
}

func (s *Service) GetDocumentContent(ctx context.Context, documentID string) (*docs.Document, error) {
	doc, err := s.docs.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting document %s: %w", documentID, err)
	}

	return doc, nil
}

// UpdateDocumentContent applies raw Docs batchUpdate requests, passed
// through as the agent produced them.
func (s *Service) UpdateDocumentContent(ctx context.Context, documentID string, rawRequests []any) (*docs.BatchUpdateDocumentResponse, error) {
	var requests []*docs.Request
	if err := decodeRequests(rawRequests, &requests); err != nil {
		return nil, err
	}

	res, err := s.docs.Documents.BatchUpdate(documentID, &docs.BatchUpdateDocumentRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("updating document %s: %w", documentID, err)
	}

	return res, nil
}

// SpreadsheetContent pairs spreadsheet metadata with the cell values of
// every sheet, keyed by sheet title.
type SpreadsheetContent struct {
	Metadata *sheets.Spreadsheet `json:"metadata"`
	Sheets   map[string][][]any  `json:"sheets"`
}

func (s *Service) GetSpreadsheetContent(ctx context.Context, spreadsheetID string) (*SpreadsheetContent, error) {
	spreadsheet, err := s.sheets.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting spreadsheet %s: %w", spreadsheetID, err)
	}

	content := &SpreadsheetContent{
		Metadata: spreadsheet,
		Sheets:   make(map[string][][]any, len(spreadsheet.Sheets)),
	}

	for _, sheet := range spreadsheet.Sheets {
		title := sheet.Properties.Title

		values, err := s.sheets.Spreadsheets.Values.Get(spreadsheetID, title).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("getting values of sheet %q: %w", title, err)
		}

		content.Sheets[title] = values.Values
	}

	return content, nil
}

func (s *Service) UpdateSpreadsheetContent(ctx context.Context, spreadsheetID string, rawRequests []any) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	var requests []*sheets.Request
	if err := decodeRequests(rawRequests, &requests); err != nil {
		return nil, err
	}

	res, err := s.sheets.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("updating spreadsheet %s: %w", spreadsheetID, err)
	}

	return res, nil
}

// UpdateSpreadsheetValues writes a 2D block of values to a range in A1
// notation, e.g. "Sheet1!A1:B5".
func (s *Service) UpdateSpreadsheetValues(ctx context.Context, spreadsheetID, rangeName string, values [][]any, inputOption string) (*sheets.UpdateValuesResponse, error) {
	if inputOption == "" {
		inputOption = "USER_ENTERED"
	}

	res, err := s.sheets.Spreadsheets.Values.Update(spreadsheetID, rangeName, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption(inputOption).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("updating values in %s: %w", rangeName, err)
	}

	return res, nil
}

func (s *Service) GetPresentationContent(ctx context.Context, presentationID string) (*slides.Presentation, error) {
	presentation, err := s.slides.Presentations.Get(presentationID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting presentation %s: %w", presentationID, err)
	}

	return presentation, nil
}

func (s *Service) UpdatePresentationContent(ctx context.Context, presentationID string, rawRequests []any) (*slides.BatchUpdatePresentationResponse, error) {
	var requests []*slides.Request
	if err := decodeRequests(rawRequests, &requests); err != nil {
		return nil, err
	}

	res, err := s.slides.Presentations.BatchUpdate(presentationID, &slides.BatchUpdatePresentationRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("updating presentation %s: %w", presentationID, err)
	}

	return res, nil
}

// decodeRequests round-trips loosely typed request maps into the typed
// batch request slice of the target API.
func decodeRequests(raw []any, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding requests: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding requests: %w", err)
	}

	return nil
}
