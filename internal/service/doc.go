// Package service contains the application use cases. It sits between the
// HTTP handlers in internal/api and the store interfaces in internal/store,
// and owns the rules that span more than one store call: the duplicate check
// before a Pokemon is inserted, the protection of the path identifier on
// update, and password hashing when users register.
//
// Services receive their dependencies through constructors and never depend
// on a concrete store implementation.
package service
