package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/callflow/internal/compiler"
	"github.com/aretw0/callflow/internal/presentation/graph"
	"github.com/aretw0/callflow/internal/testutils"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid(t *testing.T) {
	done := &testutils.Screen{ID: "done", Path: "/done"}
	states := []any{
		done,
		&testutils.Step{ID: "collect-pin", TransitionPath: "/pin/next", Next: testutils.GoTo(done)},
		&testutils.Prompt{
			Screen:         testutils.Screen{ID: "menu", Path: "/menu"},
			TransitionPath: "/menu/next",
			Next:           testutils.GoTo(done),
		},
	}
	table, err := compiler.Compile(states)
	require.NoError(t, err)

	out := graph.GenerateMermaid(table.States(), table.Bindings())

	contains := []string{
		"graph LR\n",
		`s_done["done"]`,
		`s_collect_pin[/"collect-pin"/]`,
		`s_menu[["menu"]]`,
		`r_done(["POST /done"]) --> s_done`,
		`r_pin_next(["POST /pin/next"]) -. transition .-> s_collect_pin`,
		`r_menu_next(["POST /menu/next"]) -. transition .-> s_menu`,
	}
	for _, c := range contains {
		if !strings.Contains(out, c) {
			t.Errorf("expected output to contain %q\ngot:\n%s", c, out)
		}
	}
}
