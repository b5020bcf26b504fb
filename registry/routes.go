package registry

import (
	"github.com/effective-security/llmfn/funcs"
)

// Route describes how a registered function is exposed over HTTP.
// Each function maps to POST /{name}, with the request body carrying the
// JSON arguments. Mounting the routes on a server is left to the caller.
type Route struct {
	Name        string
	Path        string
	Method      string
	Description string
	Func        funcs.IFunction
}

// Routes returns route descriptors for the registered functions, in
// registration order.
func (r *Registry) Routes() []Route {
	fns := r.Functions()
	routes := make([]Route, 0, len(fns))
	for _, fn := range fns {
		routes = append(routes, Route{
			Name:        fn.Name(),
			Path:        "/" + fn.Name(),
			Method:      "POST",
			Description: fn.Description(),
			Func:        fn,
		})
	}
	return routes
}
