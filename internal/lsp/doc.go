// Package lsp talks to the external TLA+ proof checker over JSON-RPC
// 2.0 on the standard streams of a spawned process.
//
// The package is organized around these components:
//
//   - Transport: Content-Length framed JSON-RPC reading and writing
//   - Client: one checker process plus its protocol session
//   - Manager: at most one live client for the whole editor session,
//     started and stopped in response to configuration changes
//   - Relay: translates the user "check proof step" action into the
//     wire request, inert while no client is running
//
// Proof-state verdicts arrive asynchronously as tlapm/proofStates
// notifications and are handed to a single consumer as verdict.Batch
// values, in arrival order.
package lsp
