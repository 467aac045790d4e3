// Package workflow wires the campaign agents into a runnable unit.
//
// A Controller is one run. It builds an engine.Router, injects it into the
// planner, researcher, strategist, writer and feedback agents, and registers
// them on the default graph. StartWorkflow sends the goal to the planner once;
// the synchronous reaction chain then drives research and strategy, and the
// result is collected from every agent implementing core.ResultContributor.
//
//	c, err := workflow.New(func(o *workflow.Options) { o.Research = ragClient })
//	res, err := c.StartWorkflow(ctx, "Launch Twitter campaign")
package workflow
