package register

import "testing"

func TestReadWriteRoundTrip(t *testing.T) {
	f := New()
	if err := f.Write(5, 42); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.ResetHazards()
	got, err := f.Read(5)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != 42 {
		t.Errorf("Read got %d want 42", got)
	}
}

func TestHazardWriteAfterWrite(t *testing.T) {
	f := New()
	if err := f.Write(0, 1); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := f.Write(0, 2); err == nil {
		t.Fatal("expected data race on second write, got nil")
	}
}

func TestHazardWriteAfterRead(t *testing.T) {
	f := New()
	if _, err := f.Read(0); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := f.Write(0, 1); err == nil {
		t.Fatal("expected data race on write-after-read, got nil")
	}
}

func TestHazardReadAfterWrite(t *testing.T) {
	f := New()
	if err := f.Write(0, 1); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := f.Read(0); err == nil {
		t.Fatal("expected data race on read-after-write, got nil")
	}
}

func TestMultipleReadsPermitted(t *testing.T) {
	f := New()
	if err := f.Write(3, 7); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.ResetHazards()
	for i := 0; i < 3; i++ {
		if _, err := f.Read(3); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
	}
}

func TestResetHazardsClearsPerCycle(t *testing.T) {
	f := New()
	if err := f.Write(1, 9); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.ResetHazards()
	if err := f.Write(1, 10); err != nil {
		t.Fatalf("write after reset should be permitted: %v", err)
	}
}
