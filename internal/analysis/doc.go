// Package analysis post-processes fiber runs.
//
//   - [ElasticCatenary]: closed-form reference shape for a hanging elastic cable
//   - [DominantFrequency]: strongest oscillation in a sampled height history
//   - [Summarize], [SettlingIndex]: descriptive statistics of the history
//
// # Reference sag
//
// A converged chain should hang close to the elastic catenary with the same
// span, rest length, axial stiffness and suspended weight. The agreement
// improves as the chain is refined:
//
//	cat, err := analysis.PredictSag(p)
//	fmt.Printf("predicted sag %.4f m\n", cat.Sag)
package analysis
