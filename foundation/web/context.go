package web

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Context carries the request scoped values handlers need. Ctx is the
// context.Context claims are attached to by the auth middleware.
type Context struct {
	*gin.Context
	Ctx context.Context

	paramErrs []error
	queryErrs []error
}

func NewContext(gc *gin.Context) *Context {
	return &Context{Context: gc, Ctx: gc.Request.Context()}
}

// GetParam reads a path parameter converted to the given kind. Conversion
// failures are collected and reported by ValidParam.
func (c *Context) GetParam(kind reflect.Kind, name string) interface{} {
	value := c.Param(name)

	switch kind {
	case reflect.Int:
		v, err := strconv.Atoi(value)
		if err != nil {
			c.paramErrs = append(c.paramErrs, fmt.Errorf("param %q must be an integer", name))
			return 0
		}
		return v
	case reflect.String:
		return value
	default:
		c.paramErrs = append(c.paramErrs, fmt.Errorf("param %q: unsupported kind %s", name, kind))
		return nil
	}
}

// GetQueryFunc reads an optional query parameter and returns a typed pointer,
// nil when the parameter is absent. The caller type-asserts the result.
func (c *Context) GetQueryFunc(kind reflect.Kind, name string) interface{} {
	value, ok := c.GetQuery(name)

	switch kind {
	case reflect.Int:
		if !ok {
			return (*int)(nil)
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			c.queryErrs = append(c.queryErrs, fmt.Errorf("query %q must be an integer", name))
			return (*int)(nil)
		}
		return &v
	case reflect.Bool:
		if !ok {
			return (*bool)(nil)
		}
		v, err := strconv.ParseBool(value)
		if err != nil {
			c.queryErrs = append(c.queryErrs, fmt.Errorf("query %q must be a boolean", name))
			return (*bool)(nil)
		}
		return &v
	case reflect.String:
		if !ok {
			return (*string)(nil)
		}
		return &value
	default:
		c.queryErrs = append(c.queryErrs, fmt.Errorf("query %q: unsupported kind %s", name, kind))
		return nil
	}
}

func (c *Context) ValidParam() error {
	if len(c.paramErrs) == 0 {
		return nil
	}
	return NewRequestError(c.paramErrs[0], http.StatusBadRequest)
}

func (c *Context) ValidQuery() error {
	if len(c.queryErrs) == 0 {
		return nil
	}
	return NewRequestError(c.queryErrs[0], http.StatusBadRequest)
}

// BindFunc binds the JSON or form body into dst and checks the named struct
// fields are present (non nil / non zero).
func (c *Context) BindFunc(dst interface{}, required ...string) error {
	if err := c.ShouldBind(dst); err != nil {
		return NewRequestError(errors.Wrap(err, "binding request body"), http.StatusBadRequest)
	}

	v := reflect.ValueOf(dst)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	missing := map[string]string{}
	for _, name := range required {
		f := v.FieldByName(name)
		if !f.IsValid() {
			continue
		}
		switch f.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			if f.IsNil() {
				missing[name] = "required"
			}
		default:
			if f.IsZero() {
				missing[name] = "required"
			}
		}
	}
	if len(missing) > 0 {
		err := NewRequestError(errors.New("required field is missing"), http.StatusBadRequest)
		err.(*Error).Fields = missing
		return err
	}

	return nil
}

// Respond writes data as JSON with the given status code.
func (c *Context) Respond(data interface{}, statusCode int) error {
	c.JSON(statusCode, data)
	return nil
}

// RespondError translates an error into the uniform error envelope. Trusted
// *Error values keep their status code; everything else is a 500.
func (c *Context) RespondError(err error) error {
	status := http.StatusInternalServerError
	fields := map[string]string(nil)

	var webErr *Error
	if errors.As(err, &webErr) {
		status = webErr.Status
		fields = webErr.Fields
		err = webErr.Err
	}

	body := gin.H{
		"error":  err.Error(),
		"status": false,
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}

	c.JSON(status, body)
	return nil
}
