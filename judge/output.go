package judge

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatOutput renders a result the way the practice console shows it:
// compiler output, errors, program output, then status and resource usage.
func FormatOutput(r *Result) string {
	if r == nil {
		return ""
	}

	var parts []string
	if r.CompileOutput != nil && *r.CompileOutput != "" {
		parts = append(parts, "Compilation:\n"+*r.CompileOutput)
	}
	if r.Stderr != nil && *r.Stderr != "" {
		parts = append(parts, "Error:\n"+*r.Stderr)
	}
	if r.Stdout != nil && *r.Stdout != "" {
		parts = append(parts, "Output:\n"+*r.Stdout)
	}
	if r.StatusDescription != "" {
		parts = append(parts, "\nStatus: "+r.StatusDescription)
	}
	if r.TimeMs != nil && r.MemoryKb != nil && *r.MemoryKb > 0 {
		secs := strconv.FormatFloat(float64(*r.TimeMs)/1000, 'f', -1, 64)
		parts = append(parts, fmt.Sprintf("Time: %ss | Memory: %.2f MB", secs, float64(*r.MemoryKb)/1024))
	}

	return strings.Join(parts, "\n\n")
}
