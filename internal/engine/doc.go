// Package engine orchestrates code generation for one schema at a time.
//
// An Engine is created per invocation and owns no process-wide state:
//
//	e := engine.New(cfg, engine.WithLogger(log))
//	diags, err := e.LoadSchema("schemas/h264_delta.yaml")
//	results, err := e.Generate()          // every registered target
//	files, err := e.WriteOutput(results)  // under cfg.OutputDir
//
// Generate isolates targets from each other: an emitter that returns an
// error or panics produces a failed emit.Result for its own target while
// the others proceed. WriteOutput never writes outside cfg.OutputDir and
// never writes a failed result.
//
// Batch runs the same pipeline over a directory of schemas with bounded
// parallelism and returns a BatchReport that can be written as JSON.
package engine
