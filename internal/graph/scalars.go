package graph

import (
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time of day, exchanged as YYYY-MM-DD.
var Date = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Date",
	Description: "A calendar date in YYYY-MM-DD form.",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case time.Time:
			return v.Format(dateLayout)
		case *time.Time:
			if v == nil {
				return nil
			}
			return v.Format(dateLayout)
		default:
			return nil
		}
	},
	ParseValue: func(value interface{}) interface{} {
		switch v := value.(type) {
		case string:
			return parseDate(v)
		case *string:
			if v == nil {
				return nil
			}
			return parseDate(*v)
		default:
			return nil
		}
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if v, ok := valueAST.(*ast.StringValue); ok {
			return parseDate(v.Value)
		}
		return nil
	},
})

// parseDate returns nil for malformed input so the executor reports the
// argument as invalid.
func parseDate(s string) interface{} {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return t
}

// GenericScalar passes arbitrary JSON-compatible values through untouched.
// Token payloads are exposed with it.
var GenericScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "GenericScalar",
	Description: "Any JSON value.",
	Serialize: func(value interface{}) interface{} {
		return value
	},
	ParseValue: func(value interface{}) interface{} {
		return value
	},
	ParseLiteral: parseLiteral,
})

func parseLiteral(valueAST ast.Value) interface{} {
	switch v := valueAST.(type) {
	case *ast.StringValue:
		return v.Value
	case *ast.BooleanValue:
		return v.Value
	case *ast.IntValue, *ast.FloatValue, *ast.EnumValue:
		return v.GetValue()
	case *ast.ListValue:
		out := make([]interface{}, 0, len(v.Values))
		for _, item := range v.Values {
			out = append(out, parseLiteral(item))
		}
		return out
	case *ast.ObjectValue:
		out := make(map[string]interface{}, len(v.Fields))
		for _, f := range v.Fields {
			out[f.Name.Value] = parseLiteral(f.Value)
		}
		return out
	default:
		return nil
	}
}
