// Callisto is a runtime rule engine for diffusion sampling pipelines.
//
// It loads declarative rule documents and evaluates them against the
// tensors flowing through a diffusion model's blocks, providing:
//   - Conditional tensor operations (scaling, rotation, filtering, blending)
//   - Sigma-to-percent schedule resolution for step-aware conditions
//   - Hot reload of rule files from disk or a git repository
//   - Evaluation trace recording for offline inspection
//
// Usage:
//
//	# Validate rule files
//	callisto lint --file rules.yaml
//
//	# Evaluate rules across a simulated sampling run
//	callisto eval --rules rules.yaml --site output --block 4 --steps 30
//
//	# Measure evaluation latency
//	callisto bench --rules rules.yaml --iterations 1000
//
//	# Inspect recorded evaluation traces
//	callisto trace list --limit 20
//
//	# Show version information
//	callisto version
package main

func main() {
	Execute()
}
