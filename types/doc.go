// Package types defines the shared data model of SocialForge: generation
// jobs, attempts, validation outcomes, and the structured error taxonomy.
//
// Types here are deliberately free of behavior beyond small helpers so that
// every other package (schema, llm, controller, api, store) can depend on
// them without cycles.
package types
