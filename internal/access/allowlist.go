// Package access implementa o controle de acesso por lista de e-mails permitidos.
package access

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EmailHeader é o cabeçalho preenchido pelo proxy de autenticação (oauth2-proxy e similares).
const EmailHeader = "X-Forwarded-Email"

// ContextKey guarda o e-mail autorizado no contexto do gin.
const ContextKey = "userEmail"

// Allowlist contém e-mails exatos e domínios inteiros ("@empresa.com.br").
type Allowlist struct {
	emails  map[string]struct{}
	domains map[string]struct{}
}

func NewAllowlist(entries []string) *Allowlist {
	a := &Allowlist{
		emails:  make(map[string]struct{}),
		domains: make(map[string]struct{}),
	}
	for _, e := range entries {
		e = normalizeEmail(e)
		switch {
		case e == "":
		case strings.HasPrefix(e, "@"):
			a.domains[e[1:]] = struct{}{}
		default:
			a.emails[e] = struct{}{}
		}
	}
	return a
}

// Enabled é falso quando nenhuma entrada foi configurada; nesse caso tudo é liberado.
func (a *Allowlist) Enabled() bool {
	return a != nil && len(a.emails)+len(a.domains) > 0
}

func (a *Allowlist) Allowed(email string) bool {
	if !a.Enabled() {
		return true
	}
	email = normalizeEmail(email)
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if _, ok := a.emails[email]; ok {
		return true
	}
	_, ok := a.domains[email[at+1:]]
	return ok
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Middleware barra a requisição antes que qualquer chamada ao modelo aconteça.
func Middleware(list *Allowlist, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// só o cabeçalho do proxy conta; query e form vêm do próprio cliente
		email := c.GetHeader(EmailHeader)
		if !list.Allowed(email) {
			logger.Warn("acesso negado", zap.String("email", email), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "e-mail não autorizado"})
			return
		}
		c.Set(ContextKey, normalizeEmail(email))
		c.Next()
	}
}
