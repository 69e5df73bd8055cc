// Safemirrord mirrors the local display to a window while redacting
// sensitive information detected in the captured frames.
//
// Usage:
//
//	safemirrord run                    # mirror with defaults
//	safemirrord run -c mirror.yaml     # mirror with a config file
//	safemirrord version
package main

func main() {
	Execute()
}
