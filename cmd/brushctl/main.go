// Command brushctl is a batch-rendering CLI host over the brush engine
// core: it replays recorded stroke transcripts and exports PNGs, but has
// no part in the engine's own API surface.
package main

import "github.com/inkforge/brushengine/internal/cmd"

func main() {
	cmd.Execute()
}
