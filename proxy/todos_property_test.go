package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/prognoshealth/todolambda/todo"
)

func TestTodoAPI_createProperties(t *testing.T) {
	api, _ := localAPI(t)
	router, err := api.Router()
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}

	properties := gopter.NewProperties(nil)

	properties.Property("created todos get a fresh id and keep their text", prop.ForAll(
		func(text string) string {
			body, err := json.Marshal(map[string]string{"text": text})
			if err != nil {
				return err.Error()
			}

			request := testRequest(POST, "/api/todos")
			request.Body = string(body)

			response, err := router.Route(context.Background(), request)
			if err != nil {
				return err.Error()
			}
			if response.StatusCode != http.StatusCreated {
				return response.Body
			}

			created := todo.Todo{}
			if err := json.Unmarshal([]byte(response.Body), &created); err != nil {
				return err.Error()
			}

			if seen[created.ID] {
				return "duplicate id " + created.ID
			}
			seen[created.ID] = true

			if created.Text != text {
				return "text changed to " + created.Text
			}

			return ""
		},
		gen.OneGenOf(
			gen.AnyString(),
			gen.AlphaString().Map(func(s string) string { return "  " + s + "\t" }),
			gen.IntRange(1, 8).Map(func(n int) string { return strings.Repeat(" ", n) }),
		).SuchThat(func(text string) bool {
			return text != ""
		}),
	))

	properties.Property("missing or empty text is rejected", prop.ForAll(
		func(body string) bool {
			request := testRequest(POST, "/api/todos")
			request.Body = body

			response, err := router.Route(context.Background(), request)
			return err == nil && response.StatusCode == http.StatusBadRequest
		},
		gen.OneConstOf(`{"text":""}`, `{"text":null}`, `{}`, ``),
	))

	properties.TestingRun(t)
}
