// Package main hosts the framekeep CLI entrypoint and command graph.
//
// The Cobra-based command tree maps terminal invocations onto catalog
// operations: asset and stack versioning, variant policy expansion, keyframe
// set creation, item media writes, seed exploration, and promotion into the
// asset library. Configuration resolution and store opening happen once per
// invocation through the shared command context, so subcommands only format
// input and output.
//
// Heavy lifting belongs in the internal packages; commands here should stay
// declarative.
package main
