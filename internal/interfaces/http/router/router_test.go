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

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouterMountsUnderVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group)
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterCustomVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.Register(group)
	r.Setup()

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v2/system/ping").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/system/ping").Code)
}

func TestRouterMiddlewareRunsFirst(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	var order []string
	r.Use(func(c *gin.Context) {
		order = append(order, "router")
		c.Next()
	})

	group := NewDomainGroup("uploads", "/bulk")
	group.GET("/uploads", func(c *gin.Context) {
		order = append(order, "handler")
		c.Status(http.StatusOK)
	})
	r.Register(group)
	r.Setup()

	serve(engine, http.MethodGet, "/api/v1/bulk/uploads")
	assert.Equal(t, []string{"router", "handler"}, order)
}

func TestRouterRegistersFuncRegistrars(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Register(registrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/direct", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
	}))
	r.Setup()

	assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodGet, "/api/v1/direct").Code)
}

type registrarFunc func(rg *gin.RouterGroup)

func (f registrarFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }

func TestDomainGroupRoutes(t *testing.T) {
	engine := gin.New()

	g := NewDomainGroup("uploads", "/bulk")
	g.GET("/uploads", func(c *gin.Context) {
		c.String(http.StatusOK, "listed")
	})
	g.POST("/:entity/uploads", func(c *gin.Context) {
		c.String(http.StatusCreated, c.Param("entity"))
	})
	g.Handle(http.MethodDelete, "/uploads/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	api := engine.Group("/api/v1")
	g.RegisterRoutes(api)

	assert.Equal(t, "uploads", g.Name())
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/bulk/uploads").Code)

	w := serve(engine, http.MethodPost, "/api/v1/bulk/warehouses/uploads")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "warehouses", w.Body.String())

	assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodDelete, "/api/v1/bulk/uploads/42").Code)
}

func TestDomainGroupMiddleware(t *testing.T) {
	engine := gin.New()

	g := NewDomainGroup("uploads", "/bulk")
	g.Use(func(c *gin.Context) {
		c.Header("X-Scoped", "yes")
		c.Next()
	})
	g.GET("/uploads", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	api := engine.Group("/api/v1")
	g.RegisterRoutes(api)

	// A sibling group must not inherit the middleware
	api.GET("/other", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(engine, http.MethodGet, "/api/v1/bulk/uploads")
	assert.Equal(t, "yes", w.Header().Get("X-Scoped"))

	w = serve(engine, http.MethodGet, "/api/v1/other")
	assert.Empty(t, w.Header().Get("X-Scoped"))
}
