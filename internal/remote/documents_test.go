package remote_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(collection, id string, fields map[string]any) map[string]any {
	return map[string]any{
		"name":   fmt.Sprintf("projects/demo/databases/(default)/documents/%s/%s", collection, id),
		"fields": remote.EncodeFields(fields),
	}
}

func TestListDocuments_FollowsPageTokens(t *testing.T) {
	f := newFakeRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1000", r.URL.Query().Get("pageSize"))
		var page map[string]any
		switch r.URL.Query().Get("pageToken") {
		case "":
			page = map[string]any{
				"documents":     []any{doc("transactions", "a", map[string]any{"amount": 10.0}), doc("transactions", "b", map[string]any{"amount": 20.0})},
				"nextPageToken": "p2",
			}
		case "p2":
			page = map[string]any{
				"documents":     []any{doc("transactions", "b", map[string]any{"amount": 20.0}), doc("transactions", "c", map[string]any{"amount": 30.0})},
				"nextPageToken": "p3",
			}
		case "p3":
			page = map[string]any{"documents": []any{doc("transactions", "d", nil)}}
		}
		_ = json.NewEncoder(w).Encode(page)
	})
	c := f.client(t)

	records, err := c.ListDocuments(context.Background(), "transactions")
	require.NoError(t, err)
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r[remote.RemoteIDKey].(string))
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	assert.Equal(t, 10.0, records[0]["amount"])
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestGetDocument_MissingReturnsNil(t *testing.T) {
	f := newFakeRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
	})
	c := f.client(t)

	rec, err := c.GetDocument(context.Background(), "equipment", "99")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSetDocument_PatchesEncodedFields(t *testing.T) {
	f := newFakeRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/documents/entities/7"), r.URL.Path)
		_ = json.NewEncoder(w).Encode(doc("entities", "7", map[string]any{"name": "Constructora Norte", "active": true}))
	})
	c := f.client(t)

	rec, err := c.SetDocument(context.Background(), "entities", "7", map[string]any{
		"name": "Constructora Norte", "active": true, "_remote_id": "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "7", rec[remote.RemoteIDKey])
	assert.Equal(t, true, rec["active"])

	body := f.lastBody()
	assert.Contains(t, body, `"stringValue":"Constructora Norte"`)
	assert.NotContains(t, body, "_remote_id")
}

func TestCommit_SendsAllWritesInOneRequest(t *testing.T) {
	f := newFakeRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/documents:commit"), r.URL.Path)
		_, _ = w.Write([]byte(`{"writeResults":[{},{}]}`))
	})
	c := f.client(t)

	err := c.Commit(context.Background(),
		remote.Upsert("transactions", "abc", map[string]any{"amount": 100.0}),
		remote.Remove("rental_meta", "old"),
	)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load())

	var sent struct {
		Writes []struct {
			Update *struct{ Name string } `json:"update"`
			Delete string                  `json:"delete"`
		} `json:"writes"`
	}
	require.NoError(t, json.Unmarshal([]byte(f.lastBody()), &sent))
	require.Len(t, sent.Writes, 2)
	assert.Equal(t, "projects/demo/databases/(default)/documents/transactions/abc", sent.Writes[0].Update.Name)
	assert.Equal(t, "projects/demo/databases/(default)/documents/rental_meta/old", sent.Writes[1].Delete)
}

func TestQueryEqual_BuildsFieldFilter(t *testing.T) {
	f := newFakeRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/documents:runQuery"), r.URL.Path)
		_ = json.NewEncoder(w).Encode([]any{
			map[string]any{"document": doc("payments", "p1", map[string]any{"transaction_id": "abc", "amount": 50.0})},
			map[string]any{"readTime": "2025-01-01T00:00:00Z"},
		})
	})
	c := f.client(t)

	records, err := c.QueryEqual(context.Background(), "payments", "transaction_id", "abc")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p1", records[0][remote.RemoteIDKey])

	body := f.lastBody()
	assert.Contains(t, body, `"collectionId":"payments"`)
	assert.Contains(t, body, `"fieldPath":"transaction_id"`)
	assert.Contains(t, body, `"op":"EQUAL"`)
}

func TestUploadObject(t *testing.T) {
	f := newFakeRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/b/demo.appspot.com/o", r.URL.Path)
		assert.Equal(t, "attachments/conduce-1.pdf", r.URL.Query().Get("name"))
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"name":"attachments/conduce-1.pdf","bucket":"demo.appspot.com","size":"4"}`))
	})
	c := f.client(t)

	obj, err := c.UploadObject(context.Background(), "attachments/conduce-1.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "4", obj.Size)
	assert.Equal(t, "%PDF", f.lastBody())
}
