// Package web is the thin layer every controller is written against. It wraps
// gin so handlers can return errors and middleware can be chained per route.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler is the signature all application handlers implement.
type Handler func(c *Context) error

// Middleware runs code before or after a Handler.
type Middleware func(Handler) Handler

// App is the entrypoint for the application. It embeds the gin engine so the
// router can still reach raw gin features (static files, websockets).
type App struct {
	*gin.Engine
}

func NewApp() *App {
	return &App{Engine: gin.New()}
}

func (a *App) handle(method, path string, handler Handler, middleware ...Middleware) {
	// Wrap the handler from the inside out.
	for i := len(middleware) - 1; i >= 0; i-- {
		if middleware[i] != nil {
			handler = middleware[i](handler)
		}
	}

	a.Engine.Handle(method, path, func(gc *gin.Context) {
		c := NewContext(gc)
		if err := handler(c); err != nil {
			// Handlers respond themselves; an error here means nothing was
			// written yet.
			_ = c.RespondError(err)
		}
	})
}

func (a *App) Get(path string, handler Handler, middleware ...Middleware) {
	a.handle(http.MethodGet, path, handler, middleware...)
}

func (a *App) Post(path string, handler Handler, middleware ...Middleware) {
	a.handle(http.MethodPost, path, handler, middleware...)
}

func (a *App) Put(path string, handler Handler, middleware ...Middleware) {
	a.handle(http.MethodPut, path, handler, middleware...)
}

func (a *App) Patch(path string, handler Handler, middleware ...Middleware) {
	a.handle(http.MethodPatch, path, handler, middleware...)
}

func (a *App) Delete(path string, handler Handler, middleware ...Middleware) {
	a.handle(http.MethodDelete, path, handler, middleware...)
}
