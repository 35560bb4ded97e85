package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/papershelf"
)

// MaxUploadSize is the largest PDF the backend accepts.
const MaxUploadSize = 50 << 20

// DefaultSearchTopK is the number of chunks requested when topK is not positive.
const DefaultSearchTopK = 10

// Ensure DocumentService implements papershelf.DocumentService at compile time.
var _ papershelf.DocumentService = (*DocumentService)(nil)

// DocumentService talks to the document backend on behalf of the signed-in user.
//
// Every request carries the stored access token. A 401 response triggers one
// credential refresh and one retry; any other failure is returned as is.
type DocumentService struct {
	client      *Client
	credentials papershelf.CredentialProvider
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(client *Client, credentials papershelf.CredentialProvider) *DocumentService {
	return &DocumentService{client: client, credentials: credentials}
}

// documentJSON is the backend representation of a document.
type documentJSON struct {
	ID            flexibleID     `json:"id"`
	Title         string         `json:"title"`
	Filename      string         `json:"filename"`
	Status        string         `json:"status"`
	UploadDate    string         `json:"upload_date"`
	ProcessedDate *string        `json:"processed_date"`
	FileSize      int64          `json:"file_size"`
	Metadata      map[string]any `json:"metadata"`
}

func (d *documentJSON) record() (*papershelf.DocumentRecord, error) {
	doc := &papershelf.DocumentRecord{
		ID:       string(d.ID),
		Title:    d.Title,
		Filename: d.Filename,
		Status:   papershelf.DocumentStatus(d.Status),
		FileSize: d.FileSize,
		Metadata: d.Metadata,
	}
	if d.UploadDate != "" {
		t, err := parseTimestamp(d.UploadDate)
		if err != nil {
			return nil, fmt.Errorf("document %s: upload_date: %w", doc.ID, err)
		}
		doc.UploadDate = t
	}
	if d.ProcessedDate != nil && *d.ProcessedDate != "" {
		t, err := parseTimestamp(*d.ProcessedDate)
		if err != nil {
			return nil, fmt.Errorf("document %s: processed_date: %w", doc.ID, err)
		}
		doc.ProcessedDate = &t
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// flexibleID accepts numeric or string document IDs.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = flexibleID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid document id %s", data)
	}
	*id = flexibleID(s)
	return nil
}

// Timestamps are ISO 8601, with or without a zone. Zoneless values are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

// ListDocuments returns all documents of the current user.
// Malformed documents in the response are skipped.
func (s *DocumentService) ListDocuments(ctx context.Context) ([]*papershelf.DocumentRecord, error) {
	resp, err := s.send(ctx, func(ctx context.Context) (*http.Request, error) {
		return s.client.newJSONRequest(ctx, http.MethodGet, "/api/documents/", nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp, nil)
	}

	var out struct {
		Documents []documentJSON `json:"documents"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}

	docs := make([]*papershelf.DocumentRecord, 0, len(out.Documents))
	for i := range out.Documents {
		doc, err := out.Documents[i].record()
		if err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// UploadDocument uploads the PDF at path as multipart field "file".
// Files that are not PDFs or exceed MaxUploadSize are rejected before any
// request is sent.
func (s *DocumentService) UploadDocument(ctx context.Context, path string) (*papershelf.DocumentRecord, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, papershelf.Errorf(papershelf.EREJECTED, "only PDF files are allowed: %s", filepath.Base(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, papershelf.Errorf(papershelf.EINVALID, "cannot read %s: %v", path, err)
	}
	if info.IsDir() {
		return nil, papershelf.Errorf(papershelf.EINVALID, "%s is a directory", path)
	}
	if info.Size() > MaxUploadSize {
		return nil, papershelf.Errorf(papershelf.EREJECTED, "file too large: %s exceeds %d MB", filepath.Base(path), MaxUploadSize>>20)
	}

	body, contentType, err := multipartFile(path)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.URL("/api/documents/upload"), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, responseError(resp, map[int]string{
			http.StatusBadRequest:            papershelf.EREJECTED,
			http.StatusRequestEntityTooLarge: papershelf.EREJECTED,
			http.StatusUnsupportedMediaType:  papershelf.EREJECTED,
		})
	}

	var out struct {
		Document documentJSON `json:"document"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	doc, err := out.Document.record()
	if err != nil {
		return nil, papershelf.Errorf(papershelf.EINTERNAL, "invalid upload response: %v", err)
	}
	return doc, nil
}

func multipartFile(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", papershelf.Errorf(papershelf.EINVALID, "cannot read %s: %v", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// DeleteDocument permanently removes the document with the given ID.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	if id == "" {
		return papershelf.Errorf(papershelf.EINVALID, "document ID required")
	}

	resp, err := s.send(ctx, func(ctx context.Context) (*http.Request, error) {
		return s.client.newJSONRequest(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return responseError(resp, nil)
	}
	drain(resp)
	return nil
}

// ClearDocuments removes every document of the current user.
func (s *DocumentService) ClearDocuments(ctx context.Context) (*papershelf.ClearResult, error) {
	resp, err := s.send(ctx, func(ctx context.Context) (*http.Request, error) {
		return s.client.newJSONRequest(ctx, http.MethodDelete, "/api/documents/clear-all", nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp, nil)
	}

	var out struct {
		DeletedCount    int      `json:"deleted_count"`
		TotalDocuments  int      `json:"total_documents"`
		FailedDocuments []string `json:"failed_documents"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &papershelf.ClearResult{
		DeletedCount: out.DeletedCount,
		TotalCount:   max(out.TotalDocuments, out.DeletedCount+len(out.FailedDocuments)),
		Failed:       out.FailedDocuments,
	}, nil
}

// SearchDocuments runs a semantic query over the user's completed documents.
func (s *DocumentService) SearchDocuments(ctx context.Context, query string, topK int) (*papershelf.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, papershelf.Errorf(papershelf.EINVALID, "query required")
	}
	if topK <= 0 {
		topK = DefaultSearchTopK
	}

	payload := struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}{Query: query, TopK: topK}

	resp, err := s.send(ctx, func(ctx context.Context) (*http.Request, error) {
		return s.client.newJSONRequest(ctx, http.MethodPost, "/api/documents/search", payload)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp, nil)
	}

	var out struct {
		Query   string `json:"query"`
		Results struct {
			Results []struct {
				DocumentID    flexibleID `json:"document_id"`
				DocumentTitle string     `json:"document_title"`
				Content       string     `json:"content"`
				SectionTitle  string     `json:"section_title"`
				PageNumber    int        `json:"page_number"`
				Similarity    float64    `json:"similarity"`
			} `json:"results"`
			LLMResponse string `json:"llm_response"`
		} `json:"results"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}

	result := &papershelf.SearchResult{
		Query:  firstNonEmpty(out.Query, query),
		Answer: out.Results.LLMResponse,
		Hits:   make([]papershelf.SearchHit, 0, len(out.Results.Results)),
	}
	for _, r := range out.Results.Results {
		result.Hits = append(result.Hits, papershelf.SearchHit{
			DocumentID:    string(r.DocumentID),
			DocumentTitle: r.DocumentTitle,
			Content:       r.Content,
			SectionTitle:  r.SectionTitle,
			PageNumber:    r.PageNumber,
			Similarity:    r.Similarity,
		})
	}
	return result, nil
}

// send performs an authorized request built by build. On a 401 it refreshes
// the credentials once and retries once. A missing or unrefreshable
// credential is reported as EUNAUTHORIZED.
func (s *DocumentService) send(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	creds, err := s.credentials.StoredCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, papershelf.Errorf(papershelf.EUNAUTHORIZED, "not signed in")
	}

	resp, err := s.sendWithToken(ctx, build, creds.AccessToken)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	drain(resp)

	creds, err = s.credentials.RefreshCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, papershelf.Errorf(papershelf.EUNAUTHORIZED, "session expired, sign in again")
	}

	resp, err = s.sendWithToken(ctx, build, creds.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		defer resp.Body.Close()
		return nil, responseError(resp, nil)
	}
	return resp, nil
}

func (s *DocumentService) sendWithToken(ctx context.Context, build func(ctx context.Context) (*http.Request, error), token string) (*http.Response, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return s.client.Do(req)
}
