package content

import (
	"testing"

	"frogtank.app/internal/sim/tank"
)

var _ tank.ContentIndex = (*Index)(nil)

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := OpenIndex(":memory:")
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	if err := ix.Rebuild([]Entry{
		{Path: "a.txt", Name: "a.txt", Type: tank.ObjectDocument, SizeBytes: 100},
		{Path: "projects", Name: "projects", Type: tank.ObjectFolder, Count: 3},
		{Path: "projects/deep", Name: "deep", Type: tank.ObjectFolder},
		{Path: "projects/readme.md", Name: "readme.md", Type: tank.ObjectDocument, SizeBytes: 10},
		{Path: "projects/shot.jpg", Name: "shot.jpg", Type: tank.ObjectImage, SizeBytes: 20},
	}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	return ix
}

func TestFilesUnderReturnsNestedFilesOnly(t *testing.T) {
	ix := testIndex(t)
	files, err := ix.FilesUnder("projects")
	if err != nil {
		t.Fatalf("files under: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files: got %d want 2 (%+v)", len(files), files)
	}
	if files[0].Name != "readme.md" || files[1].Name != "shot.jpg" {
		t.Fatalf("wrong files or order: %+v", files)
	}
	if files[1].Type != tank.ObjectImage {
		t.Fatalf("type lost through the index: %+v", files[1])
	}
}

func TestFilesUnderUnknownFolderIsEmpty(t *testing.T) {
	ix := testIndex(t)
	files, err := ix.FilesUnder("nope")
	if err != nil {
		t.Fatalf("files under: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("phantom files: %+v", files)
	}
}

func TestRemoveFolderDropsChildren(t *testing.T) {
	ix := testIndex(t)
	if err := ix.Remove("projects"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	all, err := ix.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 || all[0].Path != "a.txt" {
		t.Fatalf("folder removal left rows: %+v", all)
	}
}

func TestUpsertReplacesRow(t *testing.T) {
	ix := testIndex(t)
	if err := ix.Upsert(Entry{Path: "a.txt", Name: "a.txt", Type: tank.ObjectDocument, SizeBytes: 999}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	all, err := ix.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if all[0].Path != "a.txt" || all[0].SizeBytes != 999 {
		t.Fatalf("upsert did not replace: %+v", all[0])
	}
}
