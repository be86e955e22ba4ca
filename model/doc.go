// Package model defines the inference abstraction used by the analysis
// agent, with provider adapters in the openai and anthropic subpackages.
package model
