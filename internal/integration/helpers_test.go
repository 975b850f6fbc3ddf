package integration

import (
	"bytes"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/yourname/share_lite/internal/app/sharehttp"
	"github.com/yourname/share_lite/internal/logging"
	"github.com/yourname/share_lite/internal/store"
	"github.com/yourname/share_lite/internal/token"
	"github.com/yourname/share_lite/pkg/shareclient"
)

const secret = "integration-secret"

type gateway struct {
	dir  string
	st   *store.Store
	base string
}

// startGateway поднимает шлюз поверх настоящего каталога на диске.
func startGateway(t *testing.T, opts store.Options) *gateway {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(dir, opts)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(sharehttp.New(sharehttp.Deps{
		Store:    st,
		Secret:   secret,
		BasePath: "/share/",
		Logger:   logging.Discard(),
	}))
	t.Cleanup(srv.Close)

	return &gateway{dir: dir, st: st, base: srv.URL + "/share"}
}

func (g *gateway) slot(name, ctype string, data []byte) shareclient.PutRequest {
	tok := token.Sign(secret, name, strconv.Itoa(len(data)), ctype)
	return shareclient.PutRequest{
		URL:         token.PutURL(g.base, name, tok),
		ContentType: ctype,
		Reader:      bytes.NewReader(data),
		Size:        int64(len(data)),
	}
}

// observerFunc адаптирует функцию к store.Observer.
type observerFunc func(op string, n int64, err error)

func (f observerFunc) Observe(op string, n int64, err error, _ time.Duration) { f(op, n, err) }
