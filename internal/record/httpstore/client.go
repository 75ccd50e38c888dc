// Package httpstore — клиент облачного хранилища записей (backend-as-a-service) по HTTP/JSON.
// Формы запросов и ответов: {success, message, data} для чтения, {success, results} для записи.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/record"
)

const maxResponseSize = 8 << 20

type Client struct {
	baseURL    string
	projectID  string
	publicKey  string
	httpClient *http.Client
}

// New создаёт клиент. httpClient nil — клиент с таймаутом timeout.
func New(baseURL, projectID, publicKey string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		projectID:  projectID,
		publicKey:  publicKey,
		httpClient: httpClient,
	}
}

type fieldName struct {
	Name string `json:"Name"`
}

type wireField struct {
	Field          fieldName `json:"field"`
	ReferenceField *struct {
		Field fieldName `json:"field"`
	} `json:"referenceField,omitempty"`
}

type wireWhere struct {
	FieldName string          `json:"FieldName"`
	Operator  record.Operator `json:"Operator"`
	Values    []any           `json:"Values"`
}

type wireSubGroup struct {
	Conditions []record.Condition `json:"conditions"`
}

type wireGroup struct {
	Operator  record.GroupOperator `json:"operator"`
	SubGroups []wireSubGroup       `json:"subGroups"`
}

type fetchRequest struct {
	Fields      []wireField    `json:"fields,omitempty"`
	Where       []wireWhere    `json:"where,omitempty"`
	WhereGroups []wireGroup    `json:"whereGroups,omitempty"`
	OrderBy     []record.Order `json:"orderBy,omitempty"`
	PagingInfo  *record.Paging `json:"pagingInfo,omitempty"`
}

type readResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type writeResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Results []record.Outcome `json:"results"`
}

func encodeFields(fields []record.Field) []wireField {
	out := make([]wireField, 0, len(fields))
	for _, f := range fields {
		wf := wireField{Field: fieldName{Name: f.Name}}
		if f.RefField != "" {
			wf.ReferenceField = &struct {
				Field fieldName `json:"field"`
			}{Field: fieldName{Name: f.RefField}}
		}
		out = append(out, wf)
	}
	return out
}

func encodeQuery(q record.Query) fetchRequest {
	req := fetchRequest{Fields: encodeFields(q.Fields), OrderBy: q.OrderBy, PagingInfo: q.Paging}
	for _, c := range q.Where {
		req.Where = append(req.Where, wireWhere{FieldName: c.Field, Operator: c.Operator, Values: c.Values})
	}
	for _, g := range q.WhereGroups {
		wg := wireGroup{Operator: g.Operator}
		for _, sub := range g.SubGroups {
			wg.SubGroups = append(wg.SubGroups, wireSubGroup{Conditions: sub})
		}
		req.WhereGroups = append(req.WhereGroups, wg)
	}
	return req
}

func (c *Client) collectionURL(collection string, parts ...string) string {
	u := c.baseURL + "/api/v1/" + url.PathEscape(collection)
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

func (c *Client) List(ctx context.Context, collection string, q record.Query) ([]record.Record, error) {
	defer logger.DeferLogDuration("store.List "+collection, time.Now())()
	var resp readResponse
	status, err := c.do(ctx, http.MethodPost, c.collectionURL(collection, "fetch"), encodeQuery(q), &resp)
	if err != nil {
		return nil, record.TransportError("list", collection, "", err)
	}
	if status >= 300 || !resp.Success {
		return nil, record.TransportError("list", collection, failureMessage(resp.Message, status), nil)
	}
	recs := make([]record.Record, 0)
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return recs, nil
	}
	if err := decodeNumbers(resp.Data, &recs); err != nil {
		return nil, record.TransportError("list", collection, "", fmt.Errorf("decode data: %w", err))
	}
	return recs, nil
}

func (c *Client) GetByID(ctx context.Context, collection string, id int64, fields []record.Field) (record.Record, error) {
	defer logger.DeferLogDuration("store.GetByID "+collection, time.Now())()
	var resp readResponse
	body := struct {
		Fields []wireField `json:"fields,omitempty"`
	}{Fields: encodeFields(fields)}
	status, err := c.do(ctx, http.MethodPost, c.collectionURL(collection, "records", strconv.FormatInt(id, 10)), body, &resp)
	if err != nil {
		return nil, record.TransportError("get", collection, "", err)
	}
	if status == http.StatusNotFound {
		return nil, record.NotFound(collection, id)
	}
	if status >= 300 || !resp.Success {
		return nil, record.TransportError("get", collection, failureMessage(resp.Message, status), nil)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, record.NotFound(collection, id)
	}
	var rec record.Record
	if err := decodeNumbers(resp.Data, &rec); err != nil {
		return nil, record.TransportError("get", collection, "", fmt.Errorf("decode data: %w", err))
	}
	return rec, nil
}

func (c *Client) Write(ctx context.Context, collection string, kind record.WriteKind, recs []record.Record) ([]record.Outcome, error) {
	defer logger.DeferLogDuration("store.Write "+kind.String()+" "+collection, time.Now())()
	method := http.MethodPost
	var body any = map[string]any{"records": recs}
	switch kind {
	case record.Update:
		method = http.MethodPut
	case record.Delete:
		method = http.MethodDelete
		ids := make([]int64, 0, len(recs))
		for _, r := range recs {
			ids = append(ids, r.ID())
		}
		body = map[string]any{"RecordIds": ids}
	}
	var resp writeResponse
	status, err := c.do(ctx, method, c.collectionURL(collection, "records"), body, &resp)
	if err != nil {
		return nil, record.TransportError(kind.String(), collection, "", err)
	}
	if status >= 300 || !resp.Success {
		return nil, record.TransportError(kind.String(), collection, failureMessage(resp.Message, status), nil)
	}
	// Хранилище обязано вернуть результат на каждую запись; недостающие считаем неуспешными.
	out := make([]record.Outcome, len(recs))
	for i := range recs {
		if i < len(resp.Results) {
			out[i] = resp.Results[i]
			continue
		}
		out[i] = record.Outcome{Message: "no result returned for record"}
	}
	return out, nil
}

func failureMessage(msg string, status int) string {
	if msg != "" {
		return msg
	}
	return fmt.Sprintf("unexpected status %d", status)
}

func (c *Client) do(ctx context.Context, method, target string, payload, into any) (int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.projectID != "" {
		req.Header.Set("X-Project-Id", c.projectID)
	}
	if c.publicKey != "" {
		req.Header.Set("X-Public-Key", c.publicKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, nil
	}
	if err := decodeNumbers(data, into); err != nil {
		if resp.StatusCode >= 300 {
			// Тело ошибки не JSON — достаточно статуса.
			return resp.StatusCode, nil
		}
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// decodeNumbers декодирует JSON, сохраняя числа как json.Number (id не теряют точность).
func decodeNumbers(data []byte, into any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(into); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
