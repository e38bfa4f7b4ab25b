// Package graph exposes the task and account services over GraphQL.
package graph

import (
	"github.com/graphql-go/graphql"
)

// NewSchema builds the executable schema backed by r.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	t := newTypes(r)

	mutations := r.taskMutations(t)
	for name, field := range r.accountMutations(t) {
		mutations[name] = field
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: r.queryFields(t),
		}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Mutation",
			Fields: mutations,
		}),
	})
}
