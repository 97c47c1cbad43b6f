// Package gateway is the orchestration layer between the UI surfaces and the
// local inference server. One Handle call walks a fixed pipeline:
//
//	Idle -> ResolvingEndpoint -> CheckingModel -> Classifying ->
//	Dispatching -> Inferring | FallingBack -> Completed
//
// Files by concern:
//
//   - config.go: Config, defaults, New.
//   - gateway.go: Gateway and the Handle pipeline.
//   - state.go: pipeline states.
//   - events.go: Event and EventPublisher; eventpub_memory.go for tests.
//   - collaborators.go: Aggregator and FileContexts contracts.
//   - prompt.go: prompt assembly for conversational and file queries.
//   - status.go: StatusSnapshot, RetryConnection, Reset.
//   - metrics.go: prometheus collectors.
//
// Handle never fails for a valid query; every pipeline failure becomes a
// degraded Result carrying a Reason.
package gateway
