package access

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAllowlist_Allowed(t *testing.T) {
	list := NewAllowlist([]string{" Ana@Empresa.com.br ", "@parceiro.com", ""})

	tests := []struct {
		email string
		want  bool
	}{
		{"ana@empresa.com.br", true},
		{"ANA@EMPRESA.COM.BR", true},
		{"bob@empresa.com.br", false},
		{"qualquer@parceiro.com", true},
		{"x@sub.parceiro.com", false},
		{"", false},
		{"sem-arroba", false},
		{"@parceiro.com", false},
		{"ana@", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, list.Allowed(tt.email))
		})
	}
}

func TestAllowlist_EmptyDisablesGate(t *testing.T) {
	list := NewAllowlist(nil)
	assert.False(t, list.Enabled())
	assert.True(t, list.Allowed(""))
	assert.True(t, list.Allowed("qualquer@lugar.com"))

	var nilList *Allowlist
	assert.True(t, nilList.Allowed("x@y.com"))
}

func setupRouter(list *Allowlist) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(list, zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKey))
	})
	return r
}

func TestMiddleware(t *testing.T) {
	r := setupRouter(NewAllowlist([]string{"ana@empresa.com.br"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(EmailHeader, "Ana@empresa.com.br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana@empresa.com.br", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ping?email=ana@empresa.com.br", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code, "e-mail na query não substitui o cabeçalho")

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(EmailHeader, "intruso@fora.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
