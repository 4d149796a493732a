// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package story

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storyplot/storyplot/internal/errs"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func copyDoc(t *testing.T, name string) *Document {
	t.Helper()
	doc := penguins(t)
	doc.Name = name
	figs := make([]Figure, len(doc.Figures))
	copy(figs, doc.Figures)
	for i := range figs {
		figs[i].Output = filepath.Join(name, figs[i].Output)
	}
	doc.Figures = figs
	return doc
}

func TestRunBatch(t *testing.T) {
	var docs []*Document
	for _, name := range []string{"one", "two", "three"} {
		docs = append(docs, copyDoc(t, name))
	}
	broken := copyDoc(t, "broken")
	broken.Source.Path = "nowhere.csv"
	docs = append(docs, broken)

	dir := t.TempDir()
	r := RunBatch(context.Background(), docs, Options{OutDir: dir, Workers: 2})
	if len(r.Results) != 8 {
		t.Fatalf("got %d results, want 8", len(r.Results))
	}
	// Results are in document order whatever order documents finish in.
	for i, res := range r.Results {
		if want := docs[i/2].Name; res.Document != want {
			t.Errorf("result %d is from %s, want %s", i, res.Document, want)
		}
	}
	if failed := r.Failed(); len(failed) != 2 || failed[0].Document != "broken" {
		t.Errorf("failed = %+v, want both figures of broken", failed)
	}
	if err := r.Err(); !errs.IsIO(err) {
		t.Errorf("Err() = %v, want IOError", err)
	}
	for _, name := range []string{"one", "two", "three"} {
		if _, err := os.Stat(filepath.Join(dir, name, "overview.png")); err != nil {
			t.Errorf("document %s: %v", name, err)
		}
	}

	var sb strings.Builder
	if err := r.Fprint(&sb); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	if !strings.Contains(out, "rendered") || !strings.Contains(out, "error: ") {
		t.Errorf("report does not show successes and failures:\n%s", out)
	}
}

func TestRunBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := RunBatch(ctx, []*Document{copyDoc(t, "one")}, Options{OutDir: t.TempDir()})
	for _, res := range r.Results {
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("%s: got %v, want context.Canceled", res.Figure, res.Err)
		}
	}
	if r.Err() == nil {
		t.Errorf("canceled batch reports no error")
	}
}

func TestRunRemoteSource(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "penguins.csv"))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/penguins.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	doc := copyDoc(t, "remote")
	doc.Source.Path = ""
	doc.Source.URL = srv.URL + "/penguins.csv"
	missing := copyDoc(t, "missing")
	missing.Source.Path = ""
	missing.Source.URL = srv.URL + "/nope.csv"

	r := RunBatch(context.Background(), []*Document{doc, missing}, Options{OutDir: t.TempDir()})
	for _, res := range r.Results {
		switch res.Document {
		case "remote":
			if res.Err != nil {
				t.Errorf("remote %s: %v", res.Figure, res.Err)
			}
		case "missing":
			if !errs.IsIO(res.Err) {
				t.Errorf("missing %s: want IOError, got %v", res.Figure, res.Err)
			}
		}
	}
	http.DefaultClient.CloseIdleConnections()
}
