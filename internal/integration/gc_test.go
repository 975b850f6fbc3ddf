package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yourname/share_lite/internal/app/sharehttp"
	"github.com/yourname/share_lite/internal/logging"
	"github.com/yourname/share_lite/internal/store"
	"github.com/yourname/share_lite/internal/token"
	"github.com/yourname/share_lite/pkg/shareclient"
)

func Test_GC_RemovesStaleOrphansOnly(t *testing.T) {
	gw := startGateway(t, store.Options{})
	c := shareclient.New()
	ctx := context.Background()

	if err := c.Put(ctx, gw.slot("kept.txt", "text/plain", []byte("complete"))); err != nil {
		t.Fatal(err)
	}

	// контент без sidecar: след падения между созданием файла и записью типа
	stale := filepath.Join(gw.dir, "store-"+store.Key("crashed.bin"))
	fresh := filepath.Join(gw.dir, "store-"+store.Key("in-flight.bin"))
	for _, p := range []string{stale, fresh} {
		if err := os.WriteFile(p, []byte("partial"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// старим модтайм
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}
	keptPath := filepath.Join(gw.dir, "store-"+store.Key("kept.txt"))
	if err := os.Chtimes(keptPath, old, old); err != nil {
		t.Fatal(err)
	}

	stop := sharehttp.StartGC(gw.st, logging.Discard(), 24*time.Hour, 10*time.Millisecond)
	defer stop()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(stale); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("stale orphan not removed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh orphan removed: %v", err)
	}
	if _, err := c.Head(ctx, token.GetURL(gw.base, "kept.txt")); err != nil {
		t.Fatalf("complete object affected by gc: %v", err)
	}
}
