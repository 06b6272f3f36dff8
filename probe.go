package jsruntime

// probeValue is the fixed constant the diagnostic probe reports.
const probeValue = 42

// Probe returns a fixed constant. It exists only to verify the library
// linked and loaded correctly; it is not part of the semantic surface.
func Probe() int {
	return probeValue
}
