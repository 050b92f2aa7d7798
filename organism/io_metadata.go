package organism

import "fmt"

// IODescriptor describes one brain input or output for reports.
type IODescriptor struct {
	ID          string  // Unique identifier
	Label       string  // Display name
	Description string  // Extended description
	Min         float32 // Minimum value
	Max         float32 // Maximum value
	Group       string  // Logical grouping (e.g., "memory", "clock", "muscle")
}

// BrainInputDescriptors returns metadata for every brain input of a body
// with the given muscle count, in the order the brain consumes them.
func BrainInputDescriptors(muscles int) []IODescriptor {
	out := make([]IODescriptor, 0, InputWidth(muscles))

	// Memory (indices 0..M-1)
	for i := 0; i < muscles; i++ {
		out = append(out, IODescriptor{
			ID: fmt.Sprintf("memory_%d", i), Label: fmt.Sprintf("Mem %d", i),
			Description: fmt.Sprintf("Previous output for muscle %d", i),
			Min:         -1, Max: 1, Group: "memory",
		})
	}

	// Fixed stimuli (indices M, M+1)
	out = append(out,
		IODescriptor{ID: "clock_phase", Label: "Clock", Description: "Saw wave over the internal clock period", Min: -1, Max: 1, Group: "clock"},
		IODescriptor{ID: "body_orientation", Label: "Body", Description: "Angle of the first bone / pi", Min: -1, Max: 1, Group: "body"},
	)

	// Muscle orientation (indices M+2..2M+1)
	for i := 0; i < muscles; i++ {
		out = append(out, IODescriptor{
			ID: fmt.Sprintf("muscle_%d_angle", i), Label: fmt.Sprintf("Muscle %d", i),
			Description: fmt.Sprintf("Angle of muscle %d / pi", i),
			Min:         -1, Max: 1, Group: "muscle",
		})
	}
	return out
}

// BrainOutputDescriptors returns metadata for every brain output.
func BrainOutputDescriptors(muscles int) []IODescriptor {
	out := make([]IODescriptor, muscles)
	for i := range out {
		out[i] = IODescriptor{
			ID: fmt.Sprintf("target_%d", i), Label: fmt.Sprintf("Target %d", i),
			Description: fmt.Sprintf("Stretch of muscle %d relative to rest length", i),
			Min:         -1, Max: 1, Group: "muscle",
		}
	}
	return out
}

// InputGroups returns the logical groupings for inputs, in input order.
func InputGroups() []string {
	return []string{"memory", "clock", "body", "muscle"}
}
