package elasticsearch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"gohan/storage/models"

	"github.com/Jeffail/gabs"
	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/stretchr/testify/require"
)

type fakeDocument struct {
	source      json.RawMessage
	seqNo       int64
	primaryTerm int64
}

// fakeCluster answers the subset of the elasticsearch REST api
// used by the repositories, keeping documents in memory.
type fakeCluster struct {
	mux     sync.Mutex
	indices map[string]map[string]*fakeDocument
	seqNo   int64

	// failBulk makes every bulk item fail
	failBulk bool
	// updateRequests holds the bodies of bulk update items
	updateRequests [][]byte
}

func newFakeClient(t *testing.T) (*es7.Client, *fakeCluster) {
	cluster := &fakeCluster{indices: map[string]map[string]*fakeDocument{}}
	client, err := es7.NewClient(es7.Config{
		Addresses: []string{"http://fake-es:9200"},
		Transport: cluster,
	})
	require.NoError(t, err)
	return client, cluster
}

func (f *fakeCluster) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}

	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	switch {
	case req.URL.Path == "/" || req.URL.Path == "":
		return respond(http.StatusOK, map[string]interface{}{
			"version": map[string]interface{}{"number": "7.17.7", "build_flavor": "default"},
			"tagline": "You Know, for Search",
		}), nil
	case len(parts) == 1 && req.Method == http.MethodHead:
		if _, ok := f.indices[parts[0]]; ok {
			return respond(http.StatusOK, nil), nil
		}
		return respond(http.StatusNotFound, nil), nil
	case len(parts) == 1 && req.Method == http.MethodPut:
		if _, ok := f.indices[parts[0]]; ok {
			return respond(http.StatusBadRequest, map[string]interface{}{
				"error": map[string]interface{}{"type": "resource_already_exists_exception"},
			}), nil
		}
		f.indices[parts[0]] = map[string]*fakeDocument{}
		return respond(http.StatusOK, map[string]interface{}{"acknowledged": true}), nil
	case len(parts) == 2 && parts[1] == "_search":
		return f.search(parts[0], body), nil
	case len(parts) == 2 && parts[1] == "_bulk":
		return f.bulk(parts[0], body), nil
	case len(parts) == 3 && parts[1] == "_create":
		docs := f.index(parts[0])
		if _, ok := docs[parts[2]]; ok {
			return respond(http.StatusConflict, map[string]interface{}{
				"error": map[string]interface{}{"type": "version_conflict_engine_exception"},
			}), nil
		}
		return f.store(docs, parts[2], body, http.StatusCreated), nil
	case len(parts) == 3 && parts[1] == "_doc" && req.Method == http.MethodGet:
		doc, ok := f.index(parts[0])[parts[2]]
		if !ok {
			return respond(http.StatusNotFound, map[string]interface{}{"found": false}), nil
		}
		return respond(http.StatusOK, map[string]interface{}{
			"_id":           parts[2],
			"found":         true,
			"_seq_no":       doc.seqNo,
			"_primary_term": doc.primaryTerm,
			"_source":       doc.source,
		}), nil
	case len(parts) == 3 && parts[1] == "_doc":
		docs := f.index(parts[0])
		doc, ok := docs[parts[2]]
		if q := req.URL.Query(); q.Get("if_seq_no") != "" {
			seqNo, _ := strconv.ParseInt(q.Get("if_seq_no"), 10, 64)
			primaryTerm, _ := strconv.ParseInt(q.Get("if_primary_term"), 10, 64)
			if !ok || doc.seqNo != seqNo || doc.primaryTerm != primaryTerm {
				return respond(http.StatusConflict, map[string]interface{}{
					"error": map[string]interface{}{"type": "version_conflict_engine_exception"},
				}), nil
			}
		}
		return f.store(docs, parts[2], body, http.StatusOK), nil
	}

	return respond(http.StatusBadRequest, map[string]interface{}{
		"error": fmt.Sprintf("unsupported request %s %s", req.Method, req.URL.Path),
	}), nil
}

func (f *fakeCluster) index(name string) map[string]*fakeDocument {
	docs, ok := f.indices[name]
	if !ok {
		docs = map[string]*fakeDocument{}
		f.indices[name] = docs
	}
	return docs
}

func (f *fakeCluster) store(docs map[string]*fakeDocument, id string, body []byte, status int) *http.Response {
	f.seqNo++
	docs[id] = &fakeDocument{source: json.RawMessage(body), seqNo: f.seqNo, primaryTerm: 1}
	return respond(status, map[string]interface{}{
		"_id":           id,
		"result":        "created",
		"_seq_no":       f.seqNo,
		"_primary_term": 1,
	})
}

func (f *fakeCluster) search(index string, body []byte) *http.Response {
	query, _ := gabs.ParseJSON(body)
	docs := f.index(index)

	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if query != nil && query.Exists("aggs", "projects") {
		counts := map[string]int{}
		for _, id := range ids {
			src, _ := gabs.ParseJSON(docs[id].source)
			if project, ok := src.Path("project").Data().(string); ok {
				counts[project]++
			}
		}
		buckets := []map[string]interface{}{}
		for project, count := range counts {
			buckets = append(buckets, map[string]interface{}{"key": project, "doc_count": count})
		}
		return respond(http.StatusOK, map[string]interface{}{
			"hits":         map[string]interface{}{"hits": []interface{}{}},
			"aggregations": map[string]interface{}{"projects": map[string]interface{}{"buckets": buckets}},
		})
	}

	var project interface{}
	if query != nil {
		filters, _ := query.Path("query.bool.filter").Children()
		for _, filter := range filters {
			if p := filter.Path("term.project").Data(); p != nil {
				project = p
			}
		}
	}

	hits := []map[string]interface{}{}
	for _, id := range ids {
		src, _ := gabs.ParseJSON(docs[id].source)
		if project != nil && src.Path("project").Data() != project {
			continue
		}
		hits = append(hits, map[string]interface{}{"_id": id, "_source": docs[id].source})
	}
	return respond(http.StatusOK, map[string]interface{}{
		"hits": map[string]interface{}{
			"total": map[string]interface{}{"value": len(hits)},
			"hits":  hits,
		},
	})
}

func (f *fakeCluster) bulk(index string, body []byte) *http.Response {
	docs := f.index(index)
	items := []map[string]interface{}{}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024)
	for scanner.Scan() {
		meta, err := gabs.ParseJSON(scanner.Bytes())
		if err != nil || !scanner.Scan() {
			break
		}
		action := "index"
		if meta.Exists("update") {
			action = "update"
		}
		id, _ := meta.Path(action + "._id").Data().(string)
		if f.failBulk {
			items = append(items, map[string]interface{}{action: map[string]interface{}{
				"_id":    id,
				"status": http.StatusBadRequest,
				"error":  map[string]interface{}{"type": "mapper_parsing_exception", "reason": "rejected"},
			}})
			continue
		}

		source := append([]byte(nil), scanner.Bytes()...)
		if action == "update" {
			f.updateRequests = append(f.updateRequests, source)
			source = upsertVariant(docs[id], source)
		}
		f.seqNo++
		docs[id] = &fakeDocument{source: source, seqNo: f.seqNo, primaryTerm: 1}
		items = append(items, map[string]interface{}{action: map[string]interface{}{
			"_id":    id,
			"status": http.StatusOK,
		}})
	}

	return respond(http.StatusOK, map[string]interface{}{
		"errors": f.failBulk,
		"items":  items,
	})
}

// upsertVariant applies the effect of the variant merge script
// to the stored document.
func upsertVariant(doc *fakeDocument, request []byte) json.RawMessage {
	var update struct {
		Script struct {
			Params struct {
				Columns map[string]interface{} `json:"columns"`
				Samples []models.SampleEntry   `json:"samples"`
			} `json:"params"`
		} `json:"script"`
	}
	_ = json.Unmarshal(request, &update)

	source := map[string]interface{}{}
	var stored []models.SampleEntry
	if doc != nil {
		_ = json.Unmarshal(doc.source, &source)
		if samples, ok := source["samples"]; ok {
			data, _ := json.Marshal(samples)
			_ = json.Unmarshal(data, &stored)
		}
	}
	for k, v := range update.Script.Params.Columns {
		source[k] = v
	}
	source["samples"] = models.MergeSampleEntries(stored, update.Script.Params.Samples)

	data, _ := json.Marshal(source)
	return data
}

// source returns the stored body of a document.
func (f *fakeCluster) source(index string, id string) (json.RawMessage, bool) {
	f.mux.Lock()
	defer f.mux.Unlock()
	doc, ok := f.indices[index][id]
	if !ok {
		return nil, false
	}
	return doc.source, true
}

func (f *fakeCluster) documentCount(index string) int {
	f.mux.Lock()
	defer f.mux.Unlock()
	return len(f.indices[index])
}

func respond(status int, payload interface{}) *http.Response {
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}
