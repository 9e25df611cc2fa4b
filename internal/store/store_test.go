package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"printvault/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestUpsertBlobFirstWriterWins(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first, err := st.UpsertBlob(ctx, &models.Blob{
		SHA256:         "ABC123",
		SizeBytes:      5,
		Filename:       "a.txt",
		Owner:          map[string]string{"object_id": "ob-000000000001"},
		StorageBackend: "local",
		BlobKey:        "sha256/ab/abc123",
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.SHA256 != "abc123" {
		t.Fatalf("expected normalized digest, got %q", first.SHA256)
	}

	second, err := st.UpsertBlob(ctx, &models.Blob{
		SHA256:         "abc123",
		SizeBytes:      5,
		Filename:       "b.txt",
		Owner:          map[string]string{"session_id": "ss-000000000001"},
		StorageBackend: "local",
		BlobKey:        "sha256/ab/abc123",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected canonical id %q, got %q", first.ID, second.ID)
	}
	if second.Filename != "a.txt" {
		t.Fatalf("expected first filename to persist, got %q", second.Filename)
	}
	if second.Owner["object_id"] != "ob-000000000001" || len(second.Owner) != 1 {
		t.Fatalf("expected first owner to persist, got %#v", second.Owner)
	}

	count, err := st.CountBlobs(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 blob, got %d", count)
	}
}

func TestUpsertBlobValidation(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cases := []*models.Blob{
		nil,
		{BlobKey: "k", StorageBackend: "local"},
		{SHA256: "abc", StorageBackend: "local"},
		{SHA256: "abc", BlobKey: "k", StorageBackend: "local", SizeBytes: -1},
		{SHA256: "abc", BlobKey: "k"},
	}
	for i, blob := range cases {
		if _, err := st.UpsertBlob(ctx, blob); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestGetBlobMissingReturnsNil(t *testing.T) {
	st := testStore(t)
	blob, err := st.GetBlob(context.Background(), "bl-000000000000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if blob != nil {
		t.Fatalf("expected nil blob, got %#v", blob)
	}
}

func TestSessionRoundTripAndList(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first := &models.Session{
		Status:             models.StatusQueued,
		Metadata:           models.Metadata{"operator": "kim", "layers": 12.0},
		PrintJobID:         "pj-000000000001",
		Timeseries:         map[string]string{"temp": "ts-000000000001"},
		ImageCollectionIDs: []string{"ic-000000000001"},
	}
	if err := st.CreateSession(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := models.ValidateID(models.KindSession, first.ID); err != nil {
		t.Fatalf("generated id: %v", err)
	}

	got, err := st.GetSession(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.Status != models.StatusQueued || got.PrintJobID != "pj-000000000001" {
		t.Fatalf("unexpected shell %+v", got)
	}
	if len(got.RawFileIDs) != 0 || got.RawFileIDs == nil {
		t.Fatalf("expected empty non-nil file list, got %#v", got.RawFileIDs)
	}
	if got.Metadata["operator"] != "kim" || got.Metadata["layers"] != 12.0 {
		t.Fatalf("unexpected metadata %#v", got.Metadata)
	}
	if got.Timeseries["temp"] != "ts-000000000001" {
		t.Fatalf("unexpected timeseries %#v", got.Timeseries)
	}

	if err := st.SetFiles(ctx, models.KindSession, first.ID, models.StatusIngested, []string{"bl-000000000001", "bl-000000000002"}); err != nil {
		t.Fatalf("set files: %v", err)
	}
	got, err = st.GetSession(ctx, first.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Status != models.StatusIngested || len(got.RawFileIDs) != 2 || got.RawFileIDs[1] != "bl-000000000002" {
		t.Fatalf("unexpected updated session %+v", got)
	}

	second := &models.Session{Status: models.StatusQueued, InsertedAt: got.InsertedAt.Add(1)}
	if err := st.CreateSession(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	list, err := st.ListSessions(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != second.ID {
		t.Fatalf("expected newest session first, got %+v", list)
	}

	missing, err := st.GetSession(ctx, "ss-zzzzzzzzzzzz")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing session, got %v, %v", missing, err)
	}
}

func TestSetFilesUnknownEntity(t *testing.T) {
	st := testStore(t)
	err := st.SetFiles(context.Background(), models.KindObject, "ob-000000000000", models.StatusIngested, nil)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := st.SetFiles(context.Background(), models.KindImage, "im-000000000000", models.StatusIngested, nil); err == nil {
		t.Fatal("expected error for kind without file list")
	}
}

func TestFindObjectByHash(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	object := &models.Object{HashID: "h1", Status: models.StatusQueued, ExtractedData: models.Metadata{"slicer": "prusa"}}
	if err := st.CreateObject(ctx, object); err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := st.FindObjectByHash(ctx, "h1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.ID != object.ID {
		t.Fatalf("expected %s, got %+v", object.ID, found)
	}
	if found.ExtractedData["slicer"] != "prusa" {
		t.Fatalf("unexpected extracted data %#v", found.ExtractedData)
	}

	none, err := st.FindObjectByHash(ctx, "h2")
	if err != nil || none != nil {
		t.Fatalf("expected no match, got %+v, %v", none, err)
	}
}

func TestFindPrintJobMatchesNullReferences(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	withRefs := &models.PrintJob{PrinterID: "pr-000000000001", ObjectID: "ob-000000000001", Status: models.StatusIngested, FileSetHash: "fs", HashID: "c1"}
	bare := &models.PrintJob{Status: models.StatusIngested, FileSetHash: "fs", HashID: "c2"}
	for _, job := range []*models.PrintJob{withRefs, bare} {
		if err := st.CreatePrintJob(ctx, job); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := st.FindPrintJob(ctx, "pr-000000000001", "ob-000000000001", "fs")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.ID != withRefs.ID {
		t.Fatalf("expected %s, got %+v", withRefs.ID, got)
	}

	got, err = st.FindPrintJob(ctx, "", "", "fs")
	if err != nil {
		t.Fatalf("find bare: %v", err)
	}
	if got == nil || got.ID != bare.ID {
		t.Fatalf("expected %s, got %+v", bare.ID, got)
	}

	got, err = st.FindPrintJob(ctx, "pr-000000000001", "", "fs")
	if err != nil || got != nil {
		t.Fatalf("expected no match for partial refs, got %+v, %v", got, err)
	}
}

func TestGetPrintersAndObjectsSingleLookup(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	printer := &models.Printer{PrinterID: "MK4-01", Info: models.Metadata{"nozzle": 0.4}, Status: models.StatusActive}
	if err := st.CreatePrinter(ctx, printer); err != nil {
		t.Fatalf("create printer: %v", err)
	}
	object := &models.Object{HashID: "h", Status: models.StatusIngested, FileIDs: []string{"bl-000000000001"}}
	if err := st.CreateObject(ctx, object); err != nil {
		t.Fatalf("create object: %v", err)
	}

	printers, objects, err := st.GetPrintersAndObjects(ctx, []string{printer.ID, object.ID, "ob-missing00000"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(printers) != 1 || printers[0].PrinterID != "MK4-01" || printers[0].Info["nozzle"] != 0.4 {
		t.Fatalf("unexpected printers %+v", printers)
	}
	if len(objects) != 1 || objects[0].ID != object.ID || len(objects[0].FileIDs) != 1 {
		t.Fatalf("unexpected objects %+v", objects)
	}

	found, err := st.FindPrinterByNaturalID(ctx, "MK4-01")
	if err != nil || found == nil || found.ID != printer.ID {
		t.Fatalf("expected printer by natural id, got %+v, %v", found, err)
	}
}

func TestImagesAndCollections(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	image := &models.Image{Name: "top", FileID: "bl-000000000001", HashID: "ih", Metadata: models.Metadata{"width": 10.0}}
	if err := st.CreateImage(ctx, image); err != nil {
		t.Fatalf("create image: %v", err)
	}
	found, err := st.FindImageByHash(ctx, "ih")
	if err != nil || found == nil || found.ID != image.ID {
		t.Fatalf("expected image by hash, got %+v, %v", found, err)
	}

	collection := &models.ImageCollection{Name: "layer shots", ImageIDs: []string{image.ID, "im-missing00000"}}
	if err := st.CreateImageCollection(ctx, collection); err != nil {
		t.Fatalf("create collection: %v", err)
	}

	updated, err := st.SetImageCollectionSession(ctx, "ss-000000000001", []string{collection.ID, "ic-000000000000"})
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 linked collection, got %d", updated)
	}

	collections, err := st.GetImageCollections(ctx, []string{collection.ID})
	if err != nil {
		t.Fatalf("get collections: %v", err)
	}
	got := collections[collection.ID]
	if got.SessionID != "ss-000000000001" || len(got.ImageIDs) != 2 || got.ImageIDs[0] != image.ID {
		t.Fatalf("unexpected collection %+v", got)
	}

	images, err := st.GetImages(ctx, got.ImageIDs)
	if err != nil {
		t.Fatalf("get images: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected only existing image, got %d", len(images))
	}
}

func TestTimeseriesSpanNullability(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	span := 3.5
	numeric := &models.Timeseries{Name: "temp", Data: []any{1.0, 4.5}, ArraySize: 2, ArraySpan: &span, HashID: "a"}
	text := &models.Timeseries{Name: "phase", Data: []any{"heat", "print"}, ArraySize: 2, HashID: "b"}
	for _, series := range []*models.Timeseries{numeric, text} {
		if err := st.CreateTimeseries(ctx, series); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := st.GetTimeseries(ctx, []string{numeric.ID, text.ID, "ts-000000000000"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 series, got %d", len(got))
	}
	if got[numeric.ID].ArraySpan == nil || *got[numeric.ID].ArraySpan != 3.5 {
		t.Fatalf("unexpected numeric span %+v", got[numeric.ID].ArraySpan)
	}
	if got[text.ID].ArraySpan != nil {
		t.Fatalf("expected nil span for text data, got %v", *got[text.ID].ArraySpan)
	}
	if got[text.ID].Data[1] != "print" {
		t.Fatalf("unexpected data %#v", got[text.ID].Data)
	}
}

func TestDictionaryReplace(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	dict := &models.Dictionary{Printer: "mk4", Slicer: "prusaslicer"}
	if err := st.CreateDictionary(ctx, dict); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := st.ReplaceDictionary(ctx, dict.ID, map[string]string{"layer_height": "layer_height_mm"})
	if err != nil || !ok {
		t.Fatalf("replace: %v, %v", ok, err)
	}

	found, err := st.FindDictionary(ctx, "mk4", "prusaslicer")
	if err != nil || found == nil {
		t.Fatalf("find: %+v, %v", found, err)
	}
	if found.Mapping["layer_height"] != "layer_height_mm" {
		t.Fatalf("unexpected mapping %#v", found.Mapping)
	}

	ok, err = st.ReplaceDictionary(ctx, "dc-000000000000", nil)
	if err != nil {
		t.Fatalf("replace missing: %v", err)
	}
	if ok {
		t.Fatal("expected replace of unknown id to report false")
	}

	all, err := st.ListDictionaries(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("expected one dictionary, got %d, %v", len(all), err)
	}
}

func TestScriptLifecycle(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	script := &models.Script{Name: "start", Status: models.StatusQueued}
	if err := st.CreateScript(ctx, script); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.SetScriptFile(ctx, script.ID, "bl-000000000001"); err != nil {
		t.Fatalf("set file: %v", err)
	}

	got, err := st.GetScript(ctx, script.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if got.Status != models.StatusIngested || got.FileID != "bl-000000000001" {
		t.Fatalf("unexpected script %+v", got)
	}

	if err := st.SetScriptFile(ctx, "sc-000000000000", "bl-1"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreInfo(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.CreateSession(ctx, &models.Session{Status: models.StatusQueued}); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := st.UpsertBlob(ctx, &models.Blob{SHA256: "abc", SizeBytes: 7, StorageBackend: "local", BlobKey: "k"}); err != nil {
		t.Fatalf("upsert blob: %v", err)
	}
	if err := st.CreateImageCollection(ctx, &models.ImageCollection{Name: "c"}); err != nil {
		t.Fatalf("create collection: %v", err)
	}

	info, err := st.StoreInfo(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.SchemaVersion != 2 {
		t.Fatalf("expected schema version 2, got %d", info.SchemaVersion)
	}
	if info.Collections["sessions"] != 1 || info.Collections["blobs"] != 1 {
		t.Fatalf("unexpected counts %#v", info.Collections)
	}
	if info.QueuedEntities != 1 {
		t.Fatalf("expected 1 queued entity, got %d", info.QueuedEntities)
	}
	if info.TotalBlobBytes != 7 {
		t.Fatalf("expected 7 blob bytes, got %d", info.TotalBlobBytes)
	}
	if info.UnlinkedCollections != 1 {
		t.Fatalf("expected 1 unlinked collection, got %d", info.UnlinkedCollections)
	}
}
