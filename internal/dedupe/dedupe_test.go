package dedupe

import "testing"

func TestCache_SeenBefore(t *testing.T) {
	c, err := New(100, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer c.Close()

	if c.SeenBefore("frame-1") {
		t.Fatalf("expected first sighting to report false")
	}
	if !c.SeenBefore("frame-1") {
		t.Fatalf("expected second sighting to report true")
	}
	if c.SeenBefore("frame-2") {
		t.Fatalf("expected distinct frame id to report false")
	}
}
