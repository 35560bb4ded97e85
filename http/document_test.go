package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/papershelf"
	papershelfhttp "github.com/fwojciec/papershelf/http"
	"github.com/fwojciec/papershelf/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticCredentials returns a provider that always has the given access token
// and fails the test if a refresh is requested.
func staticCredentials(t *testing.T, token string) *mock.CredentialProvider {
	t.Helper()
	return &mock.CredentialProvider{
		StoredCredentialsFn: func(context.Context) (*papershelf.Credentials, error) {
			return &papershelf.Credentials{AccessToken: token, RefreshToken: "refresh"}, nil
		},
		RefreshCredentialsFn: func(context.Context) (*papershelf.Credentials, error) {
			t.Error("unexpected refresh")
			return nil, nil
		},
	}
}

func newDocumentService(t *testing.T, handler http.HandlerFunc, creds papershelf.CredentialProvider) *papershelfhttp.DocumentService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := papershelfhttp.NewClient(server.URL, papershelfhttp.WithRateLimit(0))
	return papershelfhttp.NewDocumentService(client, creds)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func writePDF(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDocumentService_ListDocuments(t *testing.T) {
	t.Parallel()

	t.Run("decodes backend documents", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/documents/", r.URL.Path)
			assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, `{"documents":[
				{"id":12,"title":"Attention","filename":"attention.pdf","status":"completed",
				 "upload_date":"2025-03-01T12:00:00.123456","processed_date":"2025-03-01T12:05:00",
				 "file_size":2048,"metadata":{"year":2017}},
				{"id":13,"title":"Draft","filename":"draft.pdf","status":"processing",
				 "upload_date":"2025-03-02T08:00:00+00:00","processed_date":null,"file_size":10,"metadata":null}
			]}`)
		}, staticCredentials(t, "access-1"))

		docs, err := svc.ListDocuments(context.Background())

		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "12", docs[0].ID)
		assert.Equal(t, "Attention", docs[0].Title)
		assert.Equal(t, "attention.pdf", docs[0].Filename)
		assert.Equal(t, papershelf.StatusCompleted, docs[0].Status)
		assert.Equal(t, int64(2048), docs[0].FileSize)
		assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 123456000, time.UTC), docs[0].UploadDate)
		require.NotNil(t, docs[0].ProcessedDate)
		assert.Equal(t, time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC), *docs[0].ProcessedDate)
		assert.InDelta(t, 2017, docs[0].Metadata["year"], 0.0001)

		assert.Equal(t, "13", docs[1].ID)
		assert.Equal(t, papershelf.StatusProcessing, docs[1].Status)
		assert.Nil(t, docs[1].ProcessedDate)
	})

	t.Run("skips malformed documents", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"documents":[
				{"id":null,"title":"No ID","filename":"a.pdf","status":"completed"},
				{"id":"x1","title":"Bad date","filename":"b.pdf","status":"completed","upload_date":"yesterday"},
				{"id":"x2","title":"Good","filename":"c.pdf","status":"uploaded"}
			]}`)
		}, staticCredentials(t, "token"))

		docs, err := svc.ListDocuments(context.Background())

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "x2", docs[0].ID)
		assert.Equal(t, papershelf.StatusUploaded, docs[0].Status)
	})

	t.Run("returns empty list for empty library", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"documents":[]}`)
		}, staticCredentials(t, "token"))

		docs, err := svc.ListDocuments(context.Background())

		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("maps server failure to internal error", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, `{"error":"Failed to retrieve documents"}`)
		}, staticCredentials(t, "token"))

		_, err := svc.ListDocuments(context.Background())

		assert.Equal(t, papershelf.EINTERNAL, papershelf.ErrorCode(err))
		assert.Contains(t, papershelf.ErrorMessage(err), "Failed to retrieve documents")
	})

	t.Run("reports invalid JSON as internal error", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `<html>`)
		}, staticCredentials(t, "token"))

		_, err := svc.ListDocuments(context.Background())

		assert.Equal(t, papershelf.EINTERNAL, papershelf.ErrorCode(err))
	})
}

func TestDocumentService_Authorization(t *testing.T) {
	t.Parallel()

	t.Run("fails without contacting backend when not signed in", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		creds := &mock.CredentialProvider{
			StoredCredentialsFn: func(context.Context) (*papershelf.Credentials, error) {
				return nil, nil
			},
		}
		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
		}, creds)

		_, err := svc.ListDocuments(context.Background())

		assert.Equal(t, papershelf.EUNAUTHORIZED, papershelf.ErrorCode(err))
		assert.Zero(t, requests.Load())
	})

	t.Run("refreshes once and retries after 401", func(t *testing.T) {
		t.Parallel()

		var requests, refreshes atomic.Int32
		creds := &mock.CredentialProvider{
			StoredCredentialsFn: func(context.Context) (*papershelf.Credentials, error) {
				return &papershelf.Credentials{AccessToken: "old", RefreshToken: "r"}, nil
			},
			RefreshCredentialsFn: func(context.Context) (*papershelf.Credentials, error) {
				refreshes.Add(1)
				return &papershelf.Credentials{AccessToken: "new", RefreshToken: "r"}, nil
			},
		}
		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			if r.Header.Get("Authorization") != "Bearer new" {
				writeJSON(w, http.StatusUnauthorized, `{"error":"Invalid or expired token"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"documents":[{"id":1,"title":"A","filename":"a.pdf","status":"completed"}]}`)
		}, creds)

		docs, err := svc.ListDocuments(context.Background())

		require.NoError(t, err)
		assert.Len(t, docs, 1)
		assert.Equal(t, int32(2), requests.Load())
		assert.Equal(t, int32(1), refreshes.Load())
	})

	t.Run("gives up after second 401", func(t *testing.T) {
		t.Parallel()

		var requests, refreshes atomic.Int32
		creds := &mock.CredentialProvider{
			StoredCredentialsFn: func(context.Context) (*papershelf.Credentials, error) {
				return &papershelf.Credentials{AccessToken: "old"}, nil
			},
			RefreshCredentialsFn: func(context.Context) (*papershelf.Credentials, error) {
				refreshes.Add(1)
				return &papershelf.Credentials{AccessToken: "still-bad"}, nil
			},
		}
		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			writeJSON(w, http.StatusUnauthorized, `{"error":"Invalid or expired token"}`)
		}, creds)

		_, err := svc.ListDocuments(context.Background())

		assert.Equal(t, papershelf.EUNAUTHORIZED, papershelf.ErrorCode(err))
		assert.Equal(t, int32(2), requests.Load())
		assert.Equal(t, int32(1), refreshes.Load())
	})

	t.Run("treats failed refresh as terminal", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		creds := &mock.CredentialProvider{
			StoredCredentialsFn: func(context.Context) (*papershelf.Credentials, error) {
				return &papershelf.Credentials{AccessToken: "old"}, nil
			},
			RefreshCredentialsFn: func(context.Context) (*papershelf.Credentials, error) {
				return nil, nil
			},
		}
		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			writeJSON(w, http.StatusUnauthorized, `{"error":"Invalid or expired token"}`)
		}, creds)

		_, err := svc.ListDocuments(context.Background())

		assert.Equal(t, papershelf.EUNAUTHORIZED, papershelf.ErrorCode(err))
		assert.Equal(t, int32(1), requests.Load())
	})
}

func TestDocumentService_UploadDocument(t *testing.T) {
	t.Parallel()

	t.Run("uploads file as multipart form", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, "attention.pdf", "%PDF-1.4 test")
		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/documents/upload", r.URL.Path)

			file, header, err := r.FormFile("file")
			if !assert.NoError(t, err) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer file.Close()
			content, _ := io.ReadAll(file)
			assert.Equal(t, "attention.pdf", header.Filename)
			assert.Equal(t, "%PDF-1.4 test", string(content))

			writeJSON(w, http.StatusCreated, `{"message":"Document uploaded successfully","document":
				{"id":5,"title":"attention","filename":"attention.pdf","status":"processing",
				 "upload_date":"2025-03-01T12:00:00","file_size":13}}`)
		}, staticCredentials(t, "token"))

		doc, err := svc.UploadDocument(context.Background(), path)

		require.NoError(t, err)
		assert.Equal(t, "5", doc.ID)
		assert.Equal(t, papershelf.StatusProcessing, doc.Status)
		assert.Equal(t, int64(13), doc.FileSize)
	})

	t.Run("resends the file after refreshing credentials", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, "a.pdf", "%PDF body")
		var (
			mu     sync.Mutex
			bodies []string
		)
		creds := &mock.CredentialProvider{
			StoredCredentialsFn: func(context.Context) (*papershelf.Credentials, error) {
				return &papershelf.Credentials{AccessToken: "old"}, nil
			},
			RefreshCredentialsFn: func(context.Context) (*papershelf.Credentials, error) {
				return &papershelf.Credentials{AccessToken: "new"}, nil
			},
		}
		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			file, _, err := r.FormFile("file")
			if err == nil {
				content, _ := io.ReadAll(file)
				file.Close()
				mu.Lock()
				bodies = append(bodies, string(content))
				mu.Unlock()
			}
			if r.Header.Get("Authorization") != "Bearer new" {
				writeJSON(w, http.StatusUnauthorized, `{"error":"expired"}`)
				return
			}
			writeJSON(w, http.StatusCreated, `{"document":{"id":1,"filename":"a.pdf","status":"uploaded"}}`)
		}, creds)

		_, err := svc.UploadDocument(context.Background(), path)

		require.NoError(t, err)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"%PDF body", "%PDF body"}, bodies)
	})

	t.Run("maps bad request to rejected upload", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, "a.pdf", "%PDF")
		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{"error":"File too large. Maximum size is 50MB"}`)
		}, staticCredentials(t, "token"))

		_, err := svc.UploadDocument(context.Background(), path)

		assert.Equal(t, papershelf.EREJECTED, papershelf.ErrorCode(err))
		assert.Equal(t, "File too large. Maximum size is 50MB", papershelf.ErrorMessage(err))
	})

	t.Run("rejects non-PDF without contacting backend", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, "notes.txt", "hello")
		var requests atomic.Int32
		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
		}, staticCredentials(t, "token"))

		_, err := svc.UploadDocument(context.Background(), path)

		assert.Equal(t, papershelf.EREJECTED, papershelf.ErrorCode(err))
		assert.Zero(t, requests.Load())
	})

	t.Run("returns invalid for missing file", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {}, staticCredentials(t, "token"))

		_, err := svc.UploadDocument(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))

		assert.Equal(t, papershelf.EINVALID, papershelf.ErrorCode(err))
	})
}

func TestDocumentService_DeleteDocument(t *testing.T) {
	t.Parallel()

	t.Run("deletes by ID", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/documents/42", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"message":"Document deleted successfully"}`)
		}, staticCredentials(t, "token"))

		err := svc.DeleteDocument(context.Background(), "42")

		assert.NoError(t, err)
	})

	t.Run("returns not found for missing document", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, `{"error":"Document not found"}`)
		}, staticCredentials(t, "token"))

		err := svc.DeleteDocument(context.Background(), "42")

		assert.Equal(t, papershelf.ENOTFOUND, papershelf.ErrorCode(err))
		assert.Equal(t, "Document not found", papershelf.ErrorMessage(err))
	})

	t.Run("requires ID", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {}, staticCredentials(t, "token"))

		err := svc.DeleteDocument(context.Background(), "")

		assert.Equal(t, papershelf.EINVALID, papershelf.ErrorCode(err))
	})
}

func TestDocumentService_ClearDocuments(t *testing.T) {
	t.Parallel()

	t.Run("reports partial failures", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/documents/clear-all", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"message":"Library cleared successfully","deleted_count":2,
				"total_documents":3,"warning":"Failed to delete 1 document(s)","failed_documents":["Stuck"]}`)
		}, staticCredentials(t, "token"))

		result, err := svc.ClearDocuments(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, result.DeletedCount)
		assert.Equal(t, 3, result.TotalCount)
		assert.Equal(t, []string{"Stuck"}, result.Failed)
	})

	t.Run("handles empty library", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"message":"No documents to delete","deleted_count":0}`)
		}, staticCredentials(t, "token"))

		result, err := svc.ClearDocuments(context.Background())

		require.NoError(t, err)
		assert.Zero(t, result.DeletedCount)
		assert.Zero(t, result.TotalCount)
		assert.Empty(t, result.Failed)
	})
}

func TestDocumentService_SearchDocuments(t *testing.T) {
	t.Parallel()

	t.Run("sends query and decodes hits", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/documents/search", r.URL.Path)
			var body struct {
				Query string `json:"query"`
				TopK  int    `json:"top_k"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "what is attention", body.Query)
			assert.Equal(t, 3, body.TopK)

			writeJSON(w, http.StatusOK, `{"query":"what is attention","count":1,"results":{
				"query":"what is attention","llm_response":"Attention weighs tokens.",
				"results":[{"chunk_id":9,"document_id":12,"document_title":"Attention","content":"...",
					"chunk_type":"text","section_title":"Intro","page_number":2,"similarity":0.87}]}}`)
		}, staticCredentials(t, "token"))

		result, err := svc.SearchDocuments(context.Background(), "  what is attention ", 3)

		require.NoError(t, err)
		assert.Equal(t, "what is attention", result.Query)
		assert.Equal(t, "Attention weighs tokens.", result.Answer)
		require.Len(t, result.Hits, 1)
		assert.Equal(t, "12", result.Hits[0].DocumentID)
		assert.Equal(t, "Attention", result.Hits[0].DocumentTitle)
		assert.Equal(t, "Intro", result.Hits[0].SectionTitle)
		assert.Equal(t, 2, result.Hits[0].PageNumber)
		assert.InDelta(t, 0.87, result.Hits[0].Similarity, 0.0001)
	})

	t.Run("defaults top k", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				TopK int `json:"top_k"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, papershelfhttp.DefaultSearchTopK, body.TopK)
			writeJSON(w, http.StatusOK, `{"results":{"results":[]}}`)
		}, staticCredentials(t, "token"))

		result, err := svc.SearchDocuments(context.Background(), "q", 0)

		require.NoError(t, err)
		assert.Equal(t, "q", result.Query)
		assert.Empty(t, result.Hits)
	})

	t.Run("rejects empty query", func(t *testing.T) {
		t.Parallel()

		svc := newDocumentService(t, func(w http.ResponseWriter, r *http.Request) {}, staticCredentials(t, "token"))

		_, err := svc.SearchDocuments(context.Background(), "   ", 5)

		assert.Equal(t, papershelf.EINVALID, papershelf.ErrorCode(err))
	})
}
