package main

import "errors"

// Catalog failures are fatal for the run; solver outcomes other than
// ErrInfeasible abort it. ErrInfeasible is a normal, reportable result.
var (
	ErrCatalogRead      = errors.New("catalog read error")
	ErrCatalogParse     = errors.New("catalog parse error")
	ErrMalformedCatalog = errors.New("malformed catalog")

	ErrInfeasible     = errors.New("infeasible")
	ErrUnbounded      = errors.New("unbounded")
	ErrSolverTimeout  = errors.New("solver timeout")
	ErrSolverInternal = errors.New("solver internal error")
)
