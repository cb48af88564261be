/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"net/http"

	"github.com/pkg/errors"
)

// Chaincode functions
const (
	fcnQueryUser              = "queryUser"
	fcnQueryIngredient        = "queryIngredient"
	fcnQueryIngredientHistory = "queryIngredientHistory"
	fcnUserRegister           = "userRegister"
	fcnIngredientEnroll       = "ingredientEnroll"
	fcnIngredientExchange     = "ingredientExchange"
	fcnUserDestroy            = "userDestroy"
)

// relay selects how a successful ledger result is written back
type relay int

const (
	// relayPayload writes the first query payload as text
	relayPayload relay = iota
	// relayStatus writes the invoke status string as text
	relayStatus
	// relayJSON writes the invoke result as JSON
	relayJSON
)

// argBuilder extracts the positional chaincode arguments of a request.
// Optional fields are appended only when present.
type argBuilder func(in *input) ([]string, error)

// input gives access to the request fields of each source
type input struct {
	query params
	path  params
	body  params
}

// route binds an HTTP method and path to a chaincode function
type route struct {
	name    string
	methods []string
	path    string
	fcn     string
	invoke  bool
	relay   relay
	args    argBuilder
	hasBody bool
}

type missingFieldError struct {
	field string
}

func (e *missingFieldError) Error() string {
	return "missing required parameter: " + e.field
}

func required(p params, name string) (string, error) {
	v, ok := p.get(name)
	if !ok || v == "" {
		return "", errors.WithStack(&missingFieldError{field: name})
	}
	return v, nil
}

func queryID(in *input) ([]string, error) {
	id, err := required(in.query, "id")
	if err != nil {
		return nil, err
	}
	return []string{id}, nil
}

func pathID(in *input) ([]string, error) {
	id, err := required(in.path, "id")
	if err != nil {
		return nil, err
	}
	return []string{id}, nil
}

func historyArgs(in *input) ([]string, error) {
	args, err := queryID(in)
	if err != nil {
		return nil, err
	}
	return in.query.appendPresent(args, "type"), nil
}

func bodyFields(names ...string) argBuilder {
	return func(in *input) ([]string, error) {
		return in.body.appendPresent([]string{}, names...), nil
	}
}

// routes is the gateway route table
var routes = []route{
	{
		name:    "users",
		methods: []string{http.MethodGet},
		path:    "/users",
		fcn:     fcnQueryUser,
		args:    queryID,
	},
	{
		name:    "users_id",
		methods: []string{http.MethodGet},
		path:    "/users/{id}",
		fcn:     fcnQueryUser,
		args:    pathID,
	},
	{
		name:    "ingredients_get",
		methods: []string{http.MethodGet},
		path:    "/ingredients/get",
		fcn:     fcnQueryIngredient,
		args:    queryID,
	},
	{
		name:    "ingredients_get_id",
		methods: []string{http.MethodGet},
		path:    "/ingredients/get/{id}",
		fcn:     fcnQueryIngredient,
		args:    pathID,
	},
	{
		name:    "ingredients_exchange_history",
		methods: []string{http.MethodGet},
		path:    "/ingredients/exchange/history",
		fcn:     fcnQueryIngredientHistory,
		args:    historyArgs,
	},
	{
		name:    "users_register",
		methods: []string{http.MethodPost},
		path:    "/users",
		fcn:     fcnUserRegister,
		invoke:  true,
		relay:   relayStatus,
		args:    bodyFields("name", "id"),
		hasBody: true,
	},
	{
		name:    "ingredients_enroll",
		methods: []string{http.MethodPost},
		path:    "/ingredients/enroll",
		fcn:     fcnIngredientEnroll,
		invoke:  true,
		relay:   relayStatus,
		args:    bodyFields("ingredientid", "ingredientname", "metadata", "ownerid"),
		hasBody: true,
	},
	{
		name:    "ingredients_exchange",
		methods: []string{http.MethodPost},
		path:    "/ingredients/exchange",
		fcn:     fcnIngredientExchange,
		invoke:  true,
		relay:   relayStatus,
		args:    bodyFields("origin", "id", "current"),
		hasBody: true,
	},
	{
		name:    "deleteusers",
		methods: []string{http.MethodGet, http.MethodDelete},
		path:    "/deleteusers",
		fcn:     fcnUserDestroy,
		invoke:  true,
		relay:   relayJSON,
		args:    queryID,
	},
}
