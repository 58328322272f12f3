package evolve

// CoEvolutionResult is the outcome of a model co-evolution request.
type CoEvolutionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CoEvolveModel would adapt existing instance documents to remain valid
// after a schema change. Co-evolution is a stub boundary in this version:
// the contract exists, the transformation does not, and every call
// reports not supported.
func CoEvolveModel(schemaPath, outputPath string) CoEvolutionResult {
	_ = schemaPath
	_ = outputPath
	return CoEvolutionResult{
		Success: false,
		Message: "model co-evolution is not supported",
	}
}
