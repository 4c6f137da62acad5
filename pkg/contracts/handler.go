package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Authenticator guards routes. Require rejects anonymous callers; Optional lets them through
// without a principal in the request context.
type Authenticator interface {
	Require(next httprouter.Handle) httprouter.Handle
	Optional(next httprouter.Handle) httprouter.Handle
}
