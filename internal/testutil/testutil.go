// Package testutil provides shared test helpers for output trees, catalogs
// and services.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/enexmd/internal/catalog"
	"github.com/starford/enexmd/internal/converter"
	"github.com/starford/enexmd/internal/noteservice"
	"github.com/starford/enexmd/internal/storage"
)

// FixedNow is the run timestamp used by TestService; the run folder is 20200501_120000.
var FixedNow = time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)

// SampleArchive holds two notes, one of them with an image attachment
// referenced by the MD5 of its bytes.
const SampleArchive = `<?xml version="1.0" encoding="UTF-8"?>
<en-export>
<note>
  <title>Trip plan</title>
  <content><![CDATA[<en-note><div>Pack <span style="font-weight: bold;">boots</span></div><div><en-media hash="5d41402abc4b2a76b9719d911017c592" type="image/png"/></div></en-note>]]></content>
  <created>20200101T000000Z</created>
  <tag>travel</tag>
  <resource>
    <data encoding="base64">aGVsbG8=</data>
    <mime>image/png</mime>
    <resource-attributes><file-name>map.png</file-name></resource-attributes>
  </resource>
</note>
<note>
  <title>Groceries</title>
  <content><![CDATA[<en-note><div><en-todo checked="true"/>milk</div></en-note>]]></content>
  <created>20200102T000000Z</created>
  <tag>home</tag>
</note>
</en-export>`

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary catalog that is automatically cleaned up.
func TestDB(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "enexmd-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestOutput creates a temporary output tree with a storage.Provider.
func TestOutput(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Env bundles a wired service for handler tests.
type Env struct {
	Root    string
	Store   storage.Provider
	DB      *catalog.DB
	Conv    *converter.Converter
	Service *noteservice.Service
}

// TestService wires an output tree, a catalog and a converter with a fixed clock.
func TestService(t *testing.T) *Env {
	t.Helper()
	root, store := TestOutput(t)
	db := TestDB(t)
	conv := converter.New(store, Logger(),
		converter.WithClock(func() time.Time { return FixedNow }),
		converter.WithCatalog(db))
	return &Env{
		Root:    root,
		Store:   store,
		DB:      db,
		Conv:    conv,
		Service: noteservice.NewService(store, db, conv),
	}
}

// WriteArchive writes SampleArchive into dir and returns its path.
func WriteArchive(t *testing.T, dir, name string) string {
	t.Helper()
	p := dir + string(os.PathSeparator) + name
	if err := os.WriteFile(p, []byte(SampleArchive), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}
