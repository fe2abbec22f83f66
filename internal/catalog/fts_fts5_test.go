//go:build sqlite_fts5

package catalog

import "testing"

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := NoteRow{Path: "run/export/fts.md", Title: "FTS Note", Checksum: "f1", Tags: []string{"search"}}
	if err := db.RecordNote(row, "The archive carried a surprisingly detailed packing list.", nil); err != nil {
		t.Fatalf("RecordNote: %v", err)
	}

	results, err := db.Search("packing", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "run/export/fts.md" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromIndex(t *testing.T) {
	db := testDB(t)
	_ = db.RecordNote(NoteRow{Path: "gone.md", Checksum: "g", Tags: []string{}}, "vanishing content", nil)
	_ = db.DeleteNote("gone.md")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.Path == "gone.md" {
			t.Error("deleted note still in FTS index")
		}
	}
}

func TestFTS5_RecordReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.RecordNote(NoteRow{Path: "n.md", Checksum: "1", Tags: []string{}}, "old words", nil)
	_ = db.RecordNote(NoteRow{Path: "n.md", Checksum: "2", Tags: []string{}}, "fresh words", nil)

	if results, _ := db.Search("old", 10); len(results) != 0 {
		t.Errorf("stale content still searchable: %+v", results)
	}
	if results, _ := db.Search("fresh", 10); len(results) != 1 {
		t.Errorf("new content not searchable: %+v", results)
	}
}
