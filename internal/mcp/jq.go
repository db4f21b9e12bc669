package mcp

import (
	"context"
	"fmt"
	"net/url"

	"github.com/itchyny/gojq"
)

// Output is what every query-backed tool hands back to the MCP client.
type Output struct {
	Result any `json:"result" jsonschema:"The result of the query."`
}

// JQQuery is a compiled jq program ready to run against tool data.
type JQQuery struct {
	code *gojq.Code
}

// ParseJQ compiles a jq query. The empty string means the identity filter,
// so callers can pass an optional tool argument straight through.
//
// Compiled programs get one extra builtin, parse_url/0, that splits a URL
// string into its parts.
func ParseJQ(query string) (JQQuery, error) {
	if query == "" {
		query = "."
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return JQQuery{}, err
	}

	code, err := gojq.Compile(
		parsed,
		gojq.WithFunction("parse_url", 0, 0, parseURLFunc),
	)
	if err != nil {
		return JQQuery{}, err
	}

	return JQQuery{code: code}, nil
}

// parseURLFunc implements parse_url/0. Errors are returned as values so jq
// reports them as query errors rather than crashing the stream.
func parseURLFunc(input any, _ []any) any {
	raw, ok := input.(string)
	if !ok {
		return fmt.Errorf("parse_url/0: expected a string but got %T (%v)", input, input)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse_url/0: failed to parse URL: %v", err)
	}

	return urlParts(u)
}

// urlParts flattens a URL into plain jq values.
func urlParts(u *url.URL) map[string]any {
	var username string
	if u.User != nil {
		username = u.User.Username()
	}

	queries := make(map[string][]any)
	for key, vals := range u.Query() {
		list := make([]any, len(vals))
		for i, v := range vals {
			list[i] = v
		}
		queries[key] = list
	}

	return map[string]any{
		"scheme":   u.Scheme,
		"username": username,
		"hostname": u.Hostname(),
		"port":     u.Port(),
		"path":     u.Path,
		"queries":  queries,
		"fragment": u.Fragment,
		"opaque":   u.Opaque,
	}
}

// Run evaluates the query against input. A single produced value is returned
// bare, any other count comes back as an array.
//
// halt_error inside the program does not fail the call. Exit code zero just
// ends the stream, and a non-zero code is reported as the final value so the
// client can see what the program raised. Other jq runtime errors fail the
// call as usual.
func (q JQQuery) Run(ctx context.Context, input any) (Output, error) {
	var results []any

	iter := q.code.RunWithContext(ctx, input)
loop:
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}

		switch val := v.(type) {
		case *gojq.HaltError:
			if val.ExitCode() != 0 {
				results = append(results, map[string]any{
					"status":    "halt_error",
					"exit_code": val.ExitCode(),
					"value":     val.Value(),
				})
			}
			break loop
		case error:
			return Output{}, val
		default:
			results = append(results, val)
		}
	}

	if len(results) == 1 {
		return Output{Result: results[0]}, nil
	}
	return Output{Result: results}, nil
}
