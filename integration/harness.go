package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	apirest "github.com/stockroom-app/stockroom/api/rest"
	"github.com/stockroom-app/stockroom/cache"
	"github.com/stockroom-app/stockroom/client"
	"github.com/stockroom-app/stockroom/config"
	"github.com/stockroom-app/stockroom/inventory"
	mw "github.com/stockroom-app/stockroom/middleware"
	"github.com/stockroom-app/stockroom/testutil"
)

// TestServer wraps a real HTTP server with every subsystem wired together.
type TestServer struct {
	DB     *gorm.DB
	Cache  cache.Cache
	Server *httptest.Server
	URL    string // http://127.0.0.1:<port>
	Sec    config.SecurityConfig
}

var userSeq int64

// NewTestServer creates a fully wired inventory server for integration
// testing. It mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		BcryptCost:     4,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}

	repo := inventory.NewRepo(db)
	authH := apirest.NewAuthHandler(db, c, sec)
	invH := apirest.NewInventoryHandler(repo, nil)

	r := gin.New()
	r.Use(mw.TraceID())
	r.Use(mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))

	r.POST("/api/auth/register", authH.Register)
	r.POST("/api/auth/login", authH.Login)
	r.POST("/api/auth/logout", authH.Logout)

	auth := r.Group("/api", mw.Auth(sec, c))
	auth.POST("/auth/refresh", authH.Refresh)
	auth.GET("/inventory", invH.List)
	auth.POST("/inventory", invH.Create)
	auth.PATCH("/inventory/:id", invH.Update)
	auth.DELETE("/inventory/:id", invH.Delete)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &TestServer{DB: db, Cache: c, Server: srv, URL: srv.URL, Sec: sec}
}

// NewClient registers a fresh user, logs in, and returns a ready-to-use
// API client for this server.
func (ts *TestServer) NewClient(t *testing.T) *client.Client {
	t.Helper()
	n := atomic.AddInt64(&userSeq, 1)
	email := fmt.Sprintf("user%d@example.com", n)

	c := client.New(ts.URL, 10*time.Second)
	ctx := context.Background()
	require.NoError(t, c.Register(ctx, fmt.Sprintf("User %d", n), email, "secret-pass"))
	require.NoError(t, c.Login(ctx, email, "secret-pass"))
	return c
}
