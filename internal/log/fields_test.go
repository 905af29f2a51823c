package log

import "testing"

func TestLogFieldsBuilder(t *testing.T) {
	fields := NewFields().
		WithComponent(ComponentWorker).
		WithOperation(OpExport)

	if got := fields[FieldComponent]; got != ComponentWorker {
		t.Errorf("component = %v, want %q", got, ComponentWorker)
	}
	if got := fields[FieldOperation]; got != OpExport {
		t.Errorf("operation = %v, want %q", got, OpExport)
	}
}

func TestWithErrorSkipsNil(t *testing.T) {
	fields := NewFields().WithError(nil)
	if _, ok := fields[FieldError]; ok {
		t.Error("nil error should not add an error field")
	}
}

func TestWithUpload(t *testing.T) {
	fields := NewFields().WithUpload("bets.xlsx", 120, 3)

	if got := fields[FieldFile]; got != "bets.xlsx" {
		t.Errorf("file = %v, want bets.xlsx", got)
	}
	if got := fields[FieldRowsLoaded]; got != 120 {
		t.Errorf("rows loaded = %v, want 120", got)
	}
	if got := fields[FieldRowsDropped]; got != 3 {
		t.Errorf("rows dropped = %v, want 3", got)
	}
}

func TestToSlicePairsKeysWithValues(t *testing.T) {
	fields := NewFields().WithComponent(ComponentHTTP)
	fields[FieldSessionID] = "abc123"

	slice := fields.ToSlice()
	if len(slice) != 4 {
		t.Fatalf("slice length = %d, want 4", len(slice))
	}
	got := map[any]any{slice[0]: slice[1], slice[2]: slice[3]}
	if got[FieldComponent] != ComponentHTTP {
		t.Errorf("component pair missing: %v", got)
	}
	if got[FieldSessionID] != "abc123" {
		t.Errorf("session pair missing: %v", got)
	}
}
