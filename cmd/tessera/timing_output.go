package main

import (
	"fmt"
	"io"

	"tessera/internal/buildpipeline"
)

// printStageTimings writes one line per stage of res, in pipeline order.
func printStageTimings(out io.Writer, res *buildpipeline.Result) {
	if out == nil || res == nil {
		return
	}
	fmt.Fprintf(out, "%s:", res.Path)
	for _, stage := range buildpipeline.Stages {
		lap, ok := res.Timings.Lap(string(stage))
		switch {
		case !ok:
		case lap.Cached:
			fmt.Fprintf(out, " %s cached", stage)
		default:
			fmt.Fprintf(out, " %s %.2f ms", stage, lap.MS)
		}
	}
	fmt.Fprintf(out, " (total %.2f ms)\n", res.Timings.TotalMS)
}
