package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateResponse(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			},
		}},
	})
	return string(b)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{Endpoint: srv.URL})
}

func TestExtractText_Success(t *testing.T) {
	var gotPath, gotKey string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.NotNil(t, req.Contents[0].Parts[1].InlineData)

		fmt.Fprint(w, candidateResponse("1 Screen 1H1 T1 New"))
	})

	text, err := c.ExtractText(context.Background(), []byte("img"), "secret-key")
	require.NoError(t, err)
	assert.Equal(t, "1 Screen 1H1 T1 New", text)
	assert.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "secret-key", gotKey)
}

func TestExtractText_APIError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"quota exceeded"}`)
	})

	_, err := c.ExtractText(context.Background(), []byte("img"), "k")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "quota")
}

func TestExtractText_EmptyCandidates(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	})

	_, err := c.ExtractText(context.Background(), []byte("img"), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestStructure_ParsesRows(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateResponse(`[{"Item_Description":"Screen","Serial_Number":"1H1"}]`))
	})

	rows, err := c.Structure(context.Background(), "raw text", "k")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Screen", rows[0]["Item_Description"])
}

func TestStructure_StripsCodeFences(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateResponse("```json\n[{\"Item_Description\":\"CPU\"}]\n```"))
	})

	rows, err := c.Structure(context.Background(), "raw text", "k")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CPU", rows[0]["Item_Description"])
}

func TestStructure_NonJSONReply(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateResponse("Sure! Here are the rows you asked for."))
	})

	_, err := c.Structure(context.Background(), "raw text", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse structured response")
}

func TestStructure_EmptyArrayIsValid(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateResponse("[]"))
	})

	rows, err := c.Structure(context.Background(), "raw text", "k")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGenerate_ContextCancelled(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateResponse("x"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExtractText(ctx, []byte("img"), "k")
	require.Error(t, err)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `[1]`, stripFences("```json\n[1]\n```"))
	assert.Equal(t, `[1]`, stripFences("```\n[1]\n```"))
	assert.Equal(t, `[1]`, stripFences("  [1]  "))
}
