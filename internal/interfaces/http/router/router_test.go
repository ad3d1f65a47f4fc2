package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup_MountsGroupsUnderVersion(t *testing.T) {
	engine := gin.New()
	var order []string
	r := NewRouter(engine, WithMiddleware(func(c *gin.Context) {
		order = append(order, "api")
		c.Next()
	}))

	network := NewDomainGroup("network", "/network")
	network.Use(func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	})
	network.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	r.Register(network).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/network/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, []string{"api", "group"}, order)
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("ledger", "/ledger")
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	g.GET("/a", ok).POST("/a", ok).PUT("/a/:id", ok).PATCH("/a/:id", ok)
	g.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, "ledger", g.Name())
	assert.Equal(t, "/ledger", g.Prefix())

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/ledger/a"},
		{http.MethodPost, "/api/v1/ledger/a"},
		{http.MethodPut, "/api/v1/ledger/a/1"},
		{http.MethodPatch, "/api/v1/ledger/a/1"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.method, w.Body.String())
	}
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("catalog", "/catalog")
	g.Group("products", "/products").GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "products")
	})
	g.Group("tables", "/tables").GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "tables")
	})
	g.RegisterRoutes(engine.Group("/api/v1"))

	for _, name := range []string{"products", "tables"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/"+name, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, name, w.Body.String())
	}
}
