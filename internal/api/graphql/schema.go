package graphql

import (
	_ "embed"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphql
var sdl string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{
	Name:  "schema.graphql",
	Input: sdl,
})
