package httpstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miamiwave/internal/record"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "proj-1", "pk-1", 0, srv.Client())
}

func TestList_EncodesQueryAndDecodesData(t *testing.T) {
	var body map[string]any
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/app_Notification/fetch", r.URL.Path)
		assert.Equal(t, "proj-1", r.Header.Get("X-Project-Id"))
		assert.Equal(t, "pk-1", r.Header.Get("X-Public-Key"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(`{"success":true,"data":[{"Id":12345678901,"content":"hi","recipient":{"Id":3,"username":"ana"}}]}`))
	})

	got, err := c.List(context.Background(), record.CollectionNotification, record.Query{
		Fields: []record.Field{
			{Name: "content"},
			{Name: "recipient", RefCollection: record.CollectionUser, RefField: "username"},
		},
		Where:   []record.Condition{record.Eq("is_read", false)},
		OrderBy: []record.Order{{Field: "CreatedOn", Dir: record.Desc}},
		Paging:  &record.Paging{Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(12345678901), got[0].ID())
	_, name := got[0].Ref("recipient", "username")
	assert.Equal(t, "ana", name)

	fields := body["fields"].([]any)
	assert.Len(t, fields, 2)
	ref := fields[1].(map[string]any)["referenceField"].(map[string]any)["field"].(map[string]any)
	assert.Equal(t, "username", ref["Name"])
	where := body["where"].([]any)[0].(map[string]any)
	assert.Equal(t, "is_read", where["FieldName"])
	assert.Equal(t, "EqualTo", where["Operator"])
	order := body["orderBy"].([]any)[0].(map[string]any)
	assert.Equal(t, "DESC", order["sorttype"])
	assert.Equal(t, float64(20), body["pagingInfo"].(map[string]any)["limit"])
}

func TestList_NullDataIsEmpty(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":null}`))
	})
	got, err := c.List(context.Background(), record.CollectionPost, record.Query{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestList_FailureCarriesServerMessage(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"table not found"}`))
	})
	_, err := c.List(context.Background(), record.CollectionPost, record.Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, record.ErrTransport)
	var gwErr *record.Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "table not found", gwErr.Message)
}

func TestList_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := New(srv.URL, "", "", 0, nil)
	srv.Close()
	_, err := c.List(context.Background(), record.CollectionPost, record.Query{})
	assert.ErrorIs(t, err, record.ErrTransport)
}

func TestGetByID_NotFound(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/post/records/5", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":null}`))
	})
	_, err := c.GetByID(context.Background(), record.CollectionPost, 5, nil)
	assert.ErrorIs(t, err, record.ErrNotFound)
}

func TestWrite_PartialOutcomesInOrder(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/message/records", r.URL.Path)
		var req struct {
			Records []map[string]any `json:"records"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Records, 3)
		_, _ = w.Write([]byte(`{"success":true,"results":[
			{"success":true,"data":{"Id":1}},
			{"success":false,"errors":[{"fieldLabel":"read_by","message":"too long"}]}
		]}`))
	})
	out, err := c.Write(context.Background(), record.CollectionMessage, record.Update, []record.Record{
		{record.FieldID: 1, "read_by": "a"},
		{record.FieldID: 2, "read_by": "b"},
		{record.FieldID: 3, "read_by": "c"},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.True(t, out[0].Success)
	assert.False(t, out[1].Success)
	assert.Equal(t, "read_by", out[1].Errors[0].FieldLabel)
	assert.False(t, out[2].Success)
}

func TestWrite_DeleteSendsIDs(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		var req struct {
			RecordIds []int64 `json:"RecordIds"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []int64{7, 8}, req.RecordIds)
		_, _ = w.Write([]byte(`{"success":true,"results":[{"success":true},{"success":true}]}`))
	})
	out, err := c.Write(context.Background(), record.CollectionPost, record.Delete, []record.Record{{record.FieldID: 7}, {record.FieldID: 8}})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
