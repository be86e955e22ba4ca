// Package agent provides the shared Base embedded by concrete agent
// implementations. The concrete agents live in the text, data, api and
// analysis subpackages.
package agent
