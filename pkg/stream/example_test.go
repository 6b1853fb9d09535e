package stream_test

import (
	"fmt"
	"slices"

	"github.com/deepankarm/partialstream/pkg/partial"
	"github.com/deepankarm/partialstream/pkg/stream"
)

// ExampleContentGenerator shows a typed value growing as an LLM streams its
// JSON answer.
func ExampleContentGenerator() {
	gen := stream.NewContentGenerator(partial.NewStructTarget[Plan]())

	deltas := content(`{"title": "Ship`, `", "steps": [{"text": "bu`, `ild"}]}`)
	for d := range gen.Stream(slices.Values(deltas)) {
		fmt.Printf("%+v\n", d.Value)
	}
	// Output:
	// {Title:Ship Steps:[]}
	// {Title:Ship Steps:[{Text:bu Done:false}]}
	// {Title:Ship Steps:[{Text:build Done:false}]}
}

// ExampleToolCallGenerator shows tool-call arguments assembled per call.
func ExampleToolCallGenerator() {
	gen := stream.NewToolCallGenerator(partial.NewMapTarget())

	deltas := []stream.Delta{
		{ToolName: "search", ToolArgs: `{"query": "partial js`},
		{ToolArgs: `on"}`},
		{ToolName: "fetch", ToolArgs: `{"url": "https://go.dev"}`},
	}
	for d := range gen.Stream(slices.Values(deltas)) {
		if c := d.Completed; c != nil {
			fmt.Println("completed", c.Name, c.Arguments)
			continue
		}
		fmt.Println(d.ToolName, d.Value)
	}
	// Output:
	// search map[query:partial js]
	// search map[query:partial json]
	// completed search {"query":"partial json"}
	// fetch map[url:https://go.dev]
	// completed fetch {"url":"https://go.dev"}
}
